// internal/model/job.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JobKind represents the type of print job
type JobKind string

const (
	JobKindReceipt JobKind = "RECEIPT"
	JobKindRaw     JobKind = "RAW"
	JobKindBarcode JobKind = "BARCODE"
	JobKindImage   JobKind = "IMAGE"
	JobKindTest    JobKind = "TEST"
)

// JobStatus represents the lifecycle state of a print job
type JobStatus string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusPrinting JobStatus = "PRINTING"
	JobStatusDone     JobStatus = "DONE"
	JobStatusFailed   JobStatus = "FAILED"
)

// PrintJob represents a unit of work sent to a printer
type PrintJob struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	PrinterID    uuid.UUID  `json:"printer_id" db:"printer_id"`
	Kind         JobKind    `json:"kind" db:"kind"`
	Payload      JSONObject `json:"payload" db:"payload"`
	Status       JobStatus  `json:"status" db:"status"`
	BytesWritten int        `json:"bytes_written" db:"bytes_written"`
	ErrorMessage *string    `json:"error_message" db:"error_message"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	StartedAt    *time.Time `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at" db:"completed_at"`
}

// IsCompleted checks if the job has reached a terminal state
func (j *PrintJob) IsCompleted() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}

// Duration returns how long the job ran, or zero when it never started.
func (j *PrintJob) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}

// ReceiptItem is one line item on a receipt
type ReceiptItem struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Total returns quantity times unit price for this line.
func (i ReceiptItem) Total() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// ReceiptPayload describes a structured receipt print job
type ReceiptPayload struct {
	StoreName  string        `json:"store_name"`
	Header     []string      `json:"header,omitempty"`
	Items      []ReceiptItem `json:"items"`
	Footer     []string      `json:"footer,omitempty"`
	Barcode    string        `json:"barcode,omitempty"`
	Cut        bool          `json:"cut"`
	OpenDrawer bool          `json:"open_drawer"`
}

// Total sums all line totals on the receipt.
func (r *ReceiptPayload) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.Total())
	}
	return total
}

// RawPayload carries pre-encoded bytes to write verbatim
type RawPayload struct {
	Data []byte `json:"data"`
	Cut  bool   `json:"cut"`
}

// BarcodePayload describes a standalone barcode print job
type BarcodePayload struct {
	Text      string `json:"text"`
	Symbology string `json:"symbology"`
	Digits    bool   `json:"digits"`
	Cut       bool   `json:"cut"`
}

// ImagePayload describes a bitmap print job
type ImagePayload struct {
	// PNG or JPEG bytes, base64-encoded in JSON.
	Image     []byte `json:"image"`
	Threshold uint8  `json:"threshold,omitempty"`
	Density   string `json:"density,omitempty"`
	Raster    bool   `json:"raster"`
	Cut       bool   `json:"cut"`
}

// NewPrintJob creates a queued job for a printer
func NewPrintJob(printerID uuid.UUID, kind JobKind, payload JSONObject) *PrintJob {
	return &PrintJob{
		ID:        uuid.New(),
		PrinterID: printerID,
		Kind:      kind,
		Payload:   payload,
		Status:    JobStatusQueued,
		CreatedAt: time.Now(),
	}
}
