// internal/transport/tcp.go
package transport

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/pkg/escpos"
)

// TCP implements Transport for network printers, typically raw port 9100
type TCP struct {
	config *TCPConfig
	conn   net.Conn
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  *Stats
}

// NewTCP creates a TCP transport
func NewTCP(config *TCPConfig, logger *zap.Logger) *TCP {
	return &TCP{
		config: config,
		logger: logger.With(
			zap.String("transport", "tcp"),
			zap.String("host", config.Host),
			zap.Int("port", config.Port),
		),
		stats: &Stats{
			IsConnected: false,
		},
	}
}

// Open dials the printer
func (t *TCP) Open() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.isOpen {
		return nil
	}

	t.logger.Info("Opening TCP connection",
		zap.String("host", t.config.Host),
		zap.Int("port", t.config.Port),
		zap.Bool("ssl", t.config.SSL),
	)

	dialer := &net.Dialer{
		Timeout:   t.config.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	address := fmt.Sprintf("%s:%d", t.config.Host, t.config.Port)

	var conn net.Conn
	var err error

	if t.config.SSL {
		tlsConfig := &tls.Config{
			ServerName: t.config.Host,
		}
		conn, err = tls.DialWithDialer(dialer, "tcp", address, tlsConfig)
	} else {
		conn, err = dialer.Dial("tcp", address)
	}

	if err != nil {
		t.logger.Error("Failed to open TCP connection", zap.Error(err))
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok && t.config.KeepAlive {
		tcpConn.SetKeepAlive(true)
		tcpConn.SetKeepAlivePeriod(30 * time.Second)
	}

	t.conn = conn
	t.isOpen = true
	t.stats.IsConnected = true
	t.stats.LastActivity = time.Now()

	t.logger.Info("TCP connection opened successfully")
	return nil
}

// Close closes the connection
func (t *TCP) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.isOpen || t.conn == nil {
		return nil
	}

	if err := t.conn.Close(); err != nil {
		t.logger.Error("Failed to close TCP connection", zap.Error(err))
		return fmt.Errorf("failed to close TCP connection: %w", err)
	}

	t.conn = nil
	t.isOpen = false
	t.stats.IsConnected = false

	t.logger.Info("TCP connection closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (t *TCP) IsOpen() bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.isOpen && t.conn != nil
}

// Write writes data to the connection
func (t *TCP) Write(data []byte) (int, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if !t.isOpen || t.conn == nil {
		return 0, fmt.Errorf("tcp connection not open")
	}

	if t.config.WriteTimeout > 0 {
		t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
	}

	startTime := time.Now()
	n, err := t.conn.Write(data)
	if err != nil {
		t.stats.ErrorCount++
		t.logger.Error("TCP write failed", zap.Error(err))
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return n, escpos.ErrTimeout
		}
		return n, fmt.Errorf("failed to write to TCP connection: %w", err)
	}

	if n != len(data) {
		t.stats.ErrorCount++
		return n, fmt.Errorf("incomplete write: wrote %d of %d bytes: %w", n, len(data), escpos.ErrTimeout)
	}

	duration := time.Since(startTime)
	t.stats.BytesWritten += int64(n)
	t.stats.OperationCount++
	t.stats.LastActivity = time.Now()
	updateAverageLatency(t.stats, duration)

	t.logger.Debug("TCP write completed", zap.Int("bytes", n))
	return n, nil
}

// Read fills buf from the connection, waiting at most the configured
// read timeout.
func (t *TCP) Read(buf []byte) (int, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if !t.isOpen || t.conn == nil {
		return 0, fmt.Errorf("tcp connection not open")
	}

	if t.config.ReadTimeout > 0 {
		t.conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout))
	}

	n, err := t.conn.Read(buf)
	if err != nil {
		t.stats.ErrorCount++
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return n, escpos.ErrTimeout
		}
		return n, fmt.Errorf("failed to read from TCP connection: %w", err)
	}

	t.stats.BytesRead += int64(n)
	t.stats.OperationCount++
	t.stats.LastActivity = time.Now()

	return n, nil
}

// Type returns the transport type
func (t *TCP) Type() model.ConnectionType {
	return model.ConnectionTypeTCP
}

// Stats returns a snapshot of the transport statistics
func (t *TCP) Stats() Stats {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return *t.stats
}
