// internal/model/printer.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"printer-service/pkg/escpos"
)

// PrinterStatus represents the current status of a printer
type PrinterStatus string

const (
	PrinterStatusOnline     PrinterStatus = "ONLINE"
	PrinterStatusOffline    PrinterStatus = "OFFLINE"
	PrinterStatusError      PrinterStatus = "ERROR"
	PrinterStatusConnecting PrinterStatus = "CONNECTING"
)

// ConnectionType represents how the printer is connected
type ConnectionType string

const (
	ConnectionTypeSerial ConnectionType = "SERIAL"
	ConnectionTypeUSB    ConnectionType = "USB"
	ConnectionTypeTCP    ConnectionType = "TCP"
)

// JSONArray type for PostgreSQL JSONB arrays
type JSONArray []interface{}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// JSONObject type for PostgreSQL JSONB objects
type JSONObject map[string]interface{}

func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Printer represents a registered receipt printer
type Printer struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	Name             string         `json:"name" db:"name"`
	Dialect          string         `json:"dialect" db:"dialect"`
	Model            *string        `json:"model" db:"model"`
	SerialNumber     *string        `json:"serial_number" db:"serial_number"`
	ConnectionType   ConnectionType `json:"connection_type" db:"connection_type"`
	ConnectionConfig JSONObject     `json:"connection_config" db:"connection_config"`
	Encoding         string         `json:"encoding" db:"encoding"`
	Status           PrinterStatus  `json:"status" db:"status"`
	LastSeen         *time.Time     `json:"last_seen" db:"last_seen"`
	ErrorInfo        JSONObject     `json:"error_info" db:"error_info"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// EscposDialect resolves the stored dialect name to the protocol dialect.
func (p *Printer) EscposDialect() escpos.Dialect {
	return escpos.ParseDialect(p.Dialect)
}

// IsOnline checks if the printer is currently online
func (p *Printer) IsOnline() bool {
	return p.Status == PrinterStatusOnline
}

// SupportsStatusBack reports whether the printer's dialect can push
// unsolicited status replies.
func (p *Printer) SupportsStatusBack() bool {
	return p.EscposDialect().HasStatusBack()
}

// ConnectionConfig structures for different connection types

type SerialConfig struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

type USBConfig struct {
	VendorID  string `json:"vendor_id"`
	ProductID string `json:"product_id"`
	Endpoint  int    `json:"endpoint"`
}

type TCPConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Status log sources
const (
	StatusSourcePoll = "POLL"
	StatusSourcePush = "PUSH"
)

// StatusLog represents one observed status snapshot for a printer
type StatusLog struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PrinterID  uuid.UUID `json:"printer_id" db:"printer_id"`
	Flags      JSONArray `json:"flags" db:"flags"`
	Raw        []byte    `json:"raw" db:"raw"`
	Source     string    `json:"source" db:"source"` // POLL or PUSH
	ObservedAt time.Time `json:"observed_at" db:"observed_at"`
}

// NewStatusLog builds a status snapshot from a decoded flag set.
func NewStatusLog(printerID uuid.UUID, status escpos.Status, raw []byte, source string) *StatusLog {
	flags := make(JSONArray, 0, 4)
	for _, f := range status.Flags() {
		flags = append(flags, f.String())
	}
	return &StatusLog{
		ID:         uuid.New(),
		PrinterID:  printerID,
		Flags:      flags,
		Raw:        raw,
		Source:     source,
		ObservedAt: time.Now(),
	}
}

// HasFlag checks if the snapshot contains a specific flag name
func (s *StatusLog) HasFlag(name string) bool {
	for _, f := range s.Flags {
		if f == name {
			return true
		}
	}
	return false
}
