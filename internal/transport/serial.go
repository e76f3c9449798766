// internal/transport/serial.go
package transport

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/pkg/escpos"
)

// Serial implements Transport for serial-attached printers
type Serial struct {
	config *SerialConfig
	port   serial.Port
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  *Stats
}

// NewSerial creates a serial transport
func NewSerial(config *SerialConfig, logger *zap.Logger) *Serial {
	return &Serial{
		config: config,
		logger: logger.With(
			zap.String("transport", "serial"),
			zap.String("port", config.Port),
		),
		stats: &Stats{
			IsConnected: false,
		},
	}
}

// Open opens the serial port
func (s *Serial) Open() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isOpen {
		return nil
	}

	s.logger.Info("Opening serial port",
		zap.String("port", s.config.Port),
		zap.Int("baud_rate", s.config.BaudRate),
	)

	mode := &serial.Mode{
		BaudRate: s.config.BaudRate,
		DataBits: s.config.DataBits,
	}

	switch s.config.StopBits {
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		mode.StopBits = serial.OneStopBit
	}

	switch s.config.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}

	port, err := serial.Open(s.config.Port, mode)
	if err != nil {
		s.logger.Error("Failed to open serial port", zap.Error(err))
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := port.SetReadTimeout(s.config.ReadTimeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}

	s.port = port
	s.isOpen = true
	s.stats.IsConnected = true
	s.stats.LastActivity = time.Now()

	s.logger.Info("Serial port opened successfully")
	return nil
}

// Close closes the serial port
func (s *Serial) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen || s.port == nil {
		return nil
	}

	if err := s.port.Close(); err != nil {
		s.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	s.port = nil
	s.isOpen = false
	s.stats.IsConnected = false

	s.logger.Info("Serial port closed successfully")
	return nil
}

// IsOpen returns whether the port is open
func (s *Serial) IsOpen() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.isOpen && s.port != nil
}

// Write writes data to the serial port
func (s *Serial) Write(data []byte) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isOpen || s.port == nil {
		return 0, fmt.Errorf("serial port not open")
	}

	startTime := time.Now()
	n, err := s.port.Write(data)
	if err != nil {
		s.stats.ErrorCount++
		s.logger.Error("Serial write failed", zap.Error(err))
		return n, fmt.Errorf("failed to write to serial port: %w", err)
	}

	if n != len(data) {
		s.stats.ErrorCount++
		return n, fmt.Errorf("incomplete write: wrote %d of %d bytes: %w", n, len(data), escpos.ErrTimeout)
	}

	duration := time.Since(startTime)
	s.stats.BytesWritten += int64(n)
	s.stats.OperationCount++
	s.stats.LastActivity = time.Now()
	updateAverageLatency(s.stats, duration)

	s.logger.Debug("Serial write completed", zap.Int("bytes", n))
	return n, nil
}

// Read fills buf from the serial port. Bytes are accumulated until buf
// is full or the configured read timeout elapses with nothing further
// arriving; a read that yields no bytes at all reports ErrTimeout.
func (s *Serial) Read(buf []byte) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isOpen || s.port == nil {
		return 0, fmt.Errorf("serial port not open")
	}

	total := 0
	deadline := time.Now().Add(s.config.ReadTimeout)
	for total < len(buf) {
		n, err := s.port.Read(buf[total:])
		total += n
		if err != nil {
			if err == io.EOF {
				break
			}
			s.stats.ErrorCount++
			return total, fmt.Errorf("failed to read from serial port: %w", err)
		}
		// SetReadTimeout makes a zero-byte read mean the timeout expired.
		if n == 0 || !time.Now().Before(deadline) {
			break
		}
	}

	if total == 0 {
		s.stats.ErrorCount++
		return 0, escpos.ErrTimeout
	}

	s.stats.BytesRead += int64(total)
	s.stats.OperationCount++
	s.stats.LastActivity = time.Now()

	return total, nil
}

// Type returns the transport type
func (s *Serial) Type() model.ConnectionType {
	return model.ConnectionTypeSerial
}

// Stats returns a snapshot of the transport statistics
func (s *Serial) Stats() Stats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return *s.stats
}
