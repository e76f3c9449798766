// internal/transport/transport.go

// Package transport provides the byte channels that carry ESC/POS
// command streams to physical printers over serial, USB and TCP links.
// Each transport satisfies escpos.Transport with synchronous, blocking
// Write and Read calls; serializing access to one printer is the
// caller's responsibility.
package transport

import (
	"time"

	"printer-service/internal/model"
	"printer-service/pkg/escpos"
)

// Transport is an open-able byte channel to a printer
type Transport interface {
	escpos.Transport

	// Connection lifecycle
	Open() error
	IsOpen() bool

	// Transport information
	Type() model.ConnectionType
	Stats() Stats
}

// Stats provides transport-level statistics
type Stats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}

// SerialConfig represents serial transport configuration
type SerialConfig struct {
	Port        string        `json:"port"`
	BaudRate    int           `json:"baud_rate"`
	DataBits    int           `json:"data_bits"`
	StopBits    int           `json:"stop_bits"`
	Parity      string        `json:"parity"`
	ReadTimeout time.Duration `json:"read_timeout"`
}

// USBConfig represents USB transport configuration
type USBConfig struct {
	VendorID    string        `json:"vendor_id"`
	ProductID   string        `json:"product_id"`
	Endpoint    int           `json:"endpoint"`
	ReadTimeout time.Duration `json:"read_timeout"`
}

// TCPConfig represents TCP transport configuration
type TCPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	SSL          bool          `json:"ssl"`
	KeepAlive    bool          `json:"keep_alive"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// updateAverageLatency folds a new sample into the running average
func updateAverageLatency(stats *Stats, sample time.Duration) {
	if stats.AverageLatency == 0 {
		stats.AverageLatency = sample
	} else {
		stats.AverageLatency = (stats.AverageLatency + sample) / 2
	}
}
