// internal/repository/interfaces.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"printer-service/internal/model"
)

// ErrNotFound marks lookups that matched no row. Wrapped by every
// repository so callers can map it with errors.Is.
var ErrNotFound = errors.New("not found")

// PrinterRepository defines printer data access operations
type PrinterRepository interface {
	// CRUD operations
	Create(ctx context.Context, printer *model.Printer) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Printer, error)
	GetByName(ctx context.Context, name string) (*model.Printer, error)
	Update(ctx context.Context, printer *model.Printer) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.PrinterStatus) error
	UpdateLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Listing and filtering
	List(ctx context.Context, filter *PrinterFilter) ([]*model.Printer, int, error)
	ListByStatus(ctx context.Context, status model.PrinterStatus) ([]*model.Printer, error)

	// Reporting
	GetStats(ctx context.Context) (*PrinterStats, error)
}

// JobRepository defines print job data access operations
type JobRepository interface {
	Create(ctx context.Context, job *model.PrintJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error)
	Update(ctx context.Context, job *model.PrintJob) error

	List(ctx context.Context, filter *JobFilter) ([]*model.PrintJob, int, error)
	ListByPrinter(ctx context.Context, printerID uuid.UUID, limit int) ([]*model.PrintJob, error)

	DeleteOld(ctx context.Context, olderThan time.Time) (int64, error)
}

// StatusLogRepository defines status snapshot data access operations
type StatusLogRepository interface {
	Create(ctx context.Context, log *model.StatusLog) error
	ListByPrinter(ctx context.Context, printerID uuid.UUID, limit int) ([]*model.StatusLog, error)
	Latest(ctx context.Context, printerID uuid.UUID) (*model.StatusLog, error)
	DeleteOld(ctx context.Context, olderThan time.Time) (int64, error)
}

// Filter structures

// PrinterFilter represents printer listing filters
type PrinterFilter struct {
	Dialect        *string               `json:"dialect,omitempty"`
	ConnectionType *model.ConnectionType `json:"connection_type,omitempty"`
	Status         *model.PrinterStatus  `json:"status,omitempty"`
	SearchTerm     *string               `json:"search_term,omitempty"`
	Page           int                   `json:"page"`
	PerPage        int                   `json:"per_page"`
	SortBy         string                `json:"sort_by"`
	SortOrder      string                `json:"sort_order"`
}

// JobFilter represents job listing filters
type JobFilter struct {
	PrinterID *uuid.UUID       `json:"printer_id,omitempty"`
	Kind      *model.JobKind   `json:"kind,omitempty"`
	Status    *model.JobStatus `json:"status,omitempty"`
	StartDate *time.Time       `json:"start_date,omitempty"`
	EndDate   *time.Time       `json:"end_date,omitempty"`
	Page      int              `json:"page"`
	PerPage   int              `json:"per_page"`
	SortBy    string           `json:"sort_by"`
	SortOrder string           `json:"sort_order"`
}

// PrinterStats represents fleet statistics
type PrinterStats struct {
	TotalPrinters   int                          `json:"total_printers"`
	OnlinePrinters  int                          `json:"online_printers"`
	OfflinePrinters int                          `json:"offline_printers"`
	ErrorPrinters   int                          `json:"error_printers"`
	ByDialect       map[string]int               `json:"by_dialect"`
	ByConnection    map[model.ConnectionType]int `json:"by_connection"`
}
