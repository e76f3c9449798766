package tcp

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printer-service/internal/model"
)

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		target   string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{target: "192.168.1.50", wantHost: "192.168.1.50", wantPort: 9100},
		{target: "192.168.1.50:9101", wantHost: "192.168.1.50", wantPort: 9101},
		{target: "printer.local", wantHost: "printer.local", wantPort: 9100},
		{target: "[::1]:9100", wantHost: "::1", wantPort: 9100},
		{target: "host:", wantErr: true},
		{target: "host:notaport", wantErr: true},
		{target: "host:70000", wantErr: true},
	}

	for _, tt := range tests {
		host, port, err := splitTarget(tt.target)
		if tt.wantErr {
			assert.Error(t, err, tt.target)
			continue
		}
		require.NoError(t, err, tt.target)
		assert.Equal(t, tt.wantHost, host, tt.target)
		assert.Equal(t, tt.wantPort, port, tt.target)
	}
}

func TestScanFindsListeningTarget(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	addr := listener.Addr().(*net.TCPAddr)
	target := net.JoinHostPort("127.0.0.1", strconv.Itoa(addr.Port))

	scanner := NewScanner(zap.NewNop(), &Config{
		Targets:     []string{target},
		ConnTimeout: time.Second,
	})
	require.True(t, scanner.IsAvailable())

	candidates, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	candidate := candidates[0]
	assert.Equal(t, model.ConnectionTypeTCP, candidate.ConnectionType)
	assert.Equal(t, "unknown", candidate.Dialect)
	assert.Equal(t, "127.0.0.1", candidate.ConnectionConfig["host"])
	assert.Equal(t, addr.Port, candidate.ConnectionConfig["port"])
	assert.Equal(t, 0.5, candidate.Confidence)
}

func TestScanSkipsUnreachableTarget(t *testing.T) {
	// Bind then close so the port is known to refuse connections.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().(*net.TCPAddr)
	require.NoError(t, listener.Close())

	scanner := NewScanner(zap.NewNop(), &Config{
		Targets:     []string{net.JoinHostPort("127.0.0.1", strconv.Itoa(addr.Port))},
		ConnTimeout: time.Second,
	})

	candidates, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestScannerUnavailableWithoutTargets(t *testing.T) {
	scanner := NewScanner(zap.NewNop(), nil)
	assert.False(t, scanner.IsAvailable())
	assert.Equal(t, "tcp", scanner.GetScannerType())
}
