// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of printer event
type EventType string

const (
	EventPrinterConnected    EventType = "PRINTER_CONNECTED"
	EventPrinterDisconnected EventType = "PRINTER_DISCONNECTED"
	EventPrinterError        EventType = "PRINTER_ERROR"
	EventStatusChanged       EventType = "STATUS_CHANGED"
	EventJobQueued           EventType = "JOB_QUEUED"
	EventJobStarted          EventType = "JOB_STARTED"
	EventJobCompleted        EventType = "JOB_COMPLETED"
	EventJobFailed           EventType = "JOB_FAILED"
	EventPaperNearEnd        EventType = "PAPER_NEAR_END"
	EventPaperEnd            EventType = "PAPER_END"
	EventDoorOpen            EventType = "DOOR_OPEN"
)

// EventSeverity levels for printer events
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "INFO"
	SeverityWarning  EventSeverity = "WARNING"
	SeverityError    EventSeverity = "ERROR"
	SeverityCritical EventSeverity = "CRITICAL"
)

// PrinterEvent represents something that happened to a printer
type PrinterEvent struct {
	ID        uuid.UUID     `json:"id"`
	EventType EventType     `json:"event_type"`
	PrinterID uuid.UUID     `json:"printer_id"`
	Data      JSONObject    `json:"data,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Source    string        `json:"source"`
	Severity  EventSeverity `json:"severity"`
}

// NewPrinterEvent creates an event with a fresh ID and timestamp
func NewPrinterEvent(eventType EventType, printerID uuid.UUID, severity EventSeverity, data JSONObject) *PrinterEvent {
	return &PrinterEvent{
		ID:        uuid.New(),
		EventType: eventType,
		PrinterID: printerID,
		Data:      data,
		Timestamp: time.Now(),
		Source:    "printer-service",
		Severity:  severity,
	}
}

// StatusChangeData describes a status transition
type StatusChangeData struct {
	OldStatus string   `json:"old_status"`
	NewStatus string   `json:"new_status"`
	Flags     []string `json:"flags,omitempty"`
}

// JobEventData describes a job lifecycle event
type JobEventData struct {
	JobID        uuid.UUID `json:"job_id"`
	Kind         string    `json:"kind"`
	BytesWritten int       `json:"bytes_written,omitempty"`
	Error        string    `json:"error,omitempty"`
}
