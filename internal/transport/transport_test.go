// internal/transport/transport_test.go
package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/pkg/escpos"
)

var (
	_ Transport = (*Serial)(nil)
	_ Transport = (*USB)(nil)
	_ Transport = (*TCP)(nil)
)

// startPrinterStub listens on a loopback port and hands the accepted
// connection to handler.
func startPrinterStub(t *testing.T, handler func(conn net.Conn)) *TCPConfig {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return &TCPConfig{
		Host:         "127.0.0.1",
		Port:         addr.Port,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

func TestTCPWriteAndRead(t *testing.T) {
	received := make(chan []byte, 1)
	config := startPrinterStub(t, func(conn net.Conn) {
		buf := make([]byte, 64)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		received <- append([]byte{}, buf[:n]...)

		reply := make([]byte, escpos.StatusReplyLen)
		reply[0] = 0b00101000
		conn.Write(reply)
	})

	tr := NewTCP(config, zap.NewNop())
	require.NoError(t, tr.Open())
	defer tr.Close()
	assert.True(t, tr.IsOpen())

	n, err := tr.Write([]byte{0x10, 0x04, 0x01})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0x10, 0x04, 0x01}, <-received)

	buf := make([]byte, escpos.StatusReplyLen)
	n, err = tr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, escpos.StatusReplyLen, n)
	assert.Equal(t, escpos.StatusOffline|escpos.StatusDoorOpen, escpos.DecodeStatus(escpos.SNBC, buf))
}

func TestTCPReadTimeout(t *testing.T) {
	config := startPrinterStub(t, func(conn net.Conn) {
		// Hold the connection open without answering.
		time.Sleep(500 * time.Millisecond)
	})
	config.ReadTimeout = 50 * time.Millisecond

	tr := NewTCP(config, zap.NewNop())
	require.NoError(t, tr.Open())
	defer tr.Close()

	_, err := tr.Read(make([]byte, 1))
	assert.ErrorIs(t, err, escpos.ErrTimeout)
}

func TestTCPStats(t *testing.T) {
	config := startPrinterStub(t, func(conn net.Conn) {
		buf := make([]byte, 64)
		if _, err := conn.Read(buf); err != nil {
			return
		}
		conn.Write([]byte{0x00})
	})

	tr := NewTCP(config, zap.NewNop())
	require.NoError(t, tr.Open())

	_, err := tr.Write([]byte{0x1b, 0x40})
	require.NoError(t, err)
	_, err = tr.Read(make([]byte, 1))
	require.NoError(t, err)

	stats := tr.Stats()
	assert.Equal(t, int64(2), stats.BytesWritten)
	assert.Equal(t, int64(1), stats.BytesRead)
	assert.Equal(t, int64(2), stats.OperationCount)
	assert.True(t, stats.IsConnected)

	require.NoError(t, tr.Close())
	assert.False(t, tr.Stats().IsConnected)
}

func TestTCPPrinterSession(t *testing.T) {
	// A printer session drives the transport directly.
	received := make(chan []byte, 1)
	config := startPrinterStub(t, func(conn net.Conn) {
		buf := make([]byte, 64)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		received <- append([]byte{}, buf[:n]...)
	})

	tr := NewTCP(config, zap.NewNop())
	require.NoError(t, tr.Open())
	defer tr.Close()

	p := escpos.NewPrinter(tr, escpos.SNBC)
	n, err := p.Init()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0x1b, 0x40}, <-received)
}

func TestTCPNotOpen(t *testing.T) {
	tr := NewTCP(&TCPConfig{Host: "127.0.0.1", Port: 9100}, zap.NewNop())

	assert.False(t, tr.IsOpen())

	_, err := tr.Write([]byte{0x1b, 0x40})
	assert.ErrorContains(t, err, "not open")

	_, err = tr.Read(make([]byte, 1))
	assert.ErrorContains(t, err, "not open")

	// Closing a never-opened transport is not an error.
	assert.NoError(t, tr.Close())
}

func TestSerialNotOpen(t *testing.T) {
	tr := NewSerial(&SerialConfig{Port: "/dev/ttyUSB0", ReadTimeout: escpos.DefaultTimeout}, zap.NewNop())

	assert.False(t, tr.IsOpen())
	assert.Equal(t, model.ConnectionTypeSerial, tr.Type())

	_, err := tr.Write([]byte{0x1b, 0x40})
	assert.ErrorContains(t, err, "not open")

	_, err = tr.Read(make([]byte, 1))
	assert.ErrorContains(t, err, "not open")

	assert.NoError(t, tr.Close())
}

func TestUSBNotOpen(t *testing.T) {
	tr := NewUSB(&USBConfig{VendorID: "0x154f", ProductID: "0x1105", Endpoint: 1}, zap.NewNop())

	assert.False(t, tr.IsOpen())
	assert.Equal(t, model.ConnectionTypeUSB, tr.Type())

	_, err := tr.Write([]byte{0x1b, 0x40})
	assert.ErrorContains(t, err, "not open")

	_, err = tr.Read(make([]byte, 1))
	assert.ErrorContains(t, err, "not open")

	assert.NoError(t, tr.Close())
}
