// internal/service/job_service.go
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/imaging"
	"printer-service/internal/model"
	"printer-service/internal/repository"
	"printer-service/internal/utils"
	"printer-service/pkg/escpos"
)

// JobService handles print job submission and history
type JobService struct {
	jobRepo     repository.JobRepository
	printerRepo repository.PrinterRepository
	sessions    *SessionManager
	renderer    *ReceiptRenderer
	events      EventPublisher
	config      *config.Config
	logger      *utils.ServiceLogger
}

// NewJobService creates a new job service instance
func NewJobService(
	jobRepo repository.JobRepository,
	printerRepo repository.PrinterRepository,
	sessions *SessionManager,
	events EventPublisher,
	config *config.Config,
	logger *zap.Logger,
) *JobService {
	return &JobService{
		jobRepo:     jobRepo,
		printerRepo: printerRepo,
		sessions:    sessions,
		renderer:    NewReceiptRenderer(DefaultReceiptWidth),
		events:      events,
		config:      config,
		logger:      utils.NewServiceLogger(logger, "job-service"),
	}
}

// SubmitJob persists and executes a print job. Execution is synchronous;
// the returned job carries the final outcome. Failed jobs are not
// retried, resubmission is an explicit new job.
func (js *JobService) SubmitJob(ctx context.Context, req *SubmitJobRequest) (*model.PrintJob, error) {
	if err := js.validateSubmitRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	printer, err := js.printerRepo.GetByID(ctx, req.PrinterID)
	if err != nil {
		return nil, fmt.Errorf("printer not found: %w", err)
	}

	job := model.NewPrintJob(printer.ID, req.Kind, req.Payload)
	if err := js.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create print job: %w", err)
	}

	publishEvent(js.events, model.NewPrinterEvent(
		model.EventJobQueued, printer.ID, model.SeverityInfo,
		model.JSONObject{"job_id": job.ID.String(), "kind": string(job.Kind)},
	))

	session, open := js.sessions.Get(printer.ID)
	if !open {
		js.failJob(ctx, job, fmt.Errorf("printer %q is %w", printer.Name, ErrNotConnected))
		return job, nil
	}

	printerLogger := utils.NewPrinterLogger(js.logger.Logger, printer.ID.String(), printer.Dialect)

	now := time.Now()
	job.Status = model.JobStatusPrinting
	job.StartedAt = &now
	if err := js.jobRepo.Update(ctx, job); err != nil {
		js.logger.Error("Failed to update job status", zap.Error(err))
	}

	publishEvent(js.events, model.NewPrinterEvent(
		model.EventJobStarted, printer.ID, model.SeverityInfo,
		model.JSONObject{"job_id": job.ID.String(), "kind": string(job.Kind)},
	))

	startTime := time.Now()
	var bytesWritten int
	err = session.Do(func(p *escpos.Printer) error {
		var execErr error
		bytesWritten, execErr = js.executeJob(p, job.Kind, job.Payload)
		return execErr
	})
	duration := time.Since(startTime)

	job.BytesWritten = bytesWritten
	printerLogger.LogJob(job.ID.String(), string(job.Kind), bytesWritten, duration, err)

	if err != nil {
		js.failJob(ctx, job, err)
		return job, nil
	}

	completedAt := time.Now()
	job.Status = model.JobStatusDone
	job.CompletedAt = &completedAt
	if err := js.jobRepo.Update(ctx, job); err != nil {
		js.logger.Error("Failed to update completed job", zap.Error(err))
	}

	if err := js.printerRepo.UpdateLastSeen(ctx, printer.ID, completedAt); err != nil {
		js.logger.Error("Failed to update last seen", zap.Error(err))
	}

	publishEvent(js.events, model.NewPrinterEvent(
		model.EventJobCompleted, printer.ID, model.SeverityInfo,
		model.JSONObject{
			"job_id":        job.ID.String(),
			"kind":          string(job.Kind),
			"bytes_written": bytesWritten,
		},
	))

	return job, nil
}

// GetJob retrieves job details
func (js *JobService) GetJob(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	job, err := js.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("print job not found: %w", err)
	}
	return job, nil
}

// ListJobs lists jobs with filtering
func (js *JobService) ListJobs(ctx context.Context, filter *JobFilter) ([]*model.PrintJob, *PaginationResult, error) {
	jobs, total, err := js.jobRepo.List(ctx, filter.toRepoFilter())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list print jobs: %w", err)
	}

	return jobs, newPaginationResult(total, filter.Page, filter.PerPage), nil
}

// ListPrinterJobs lists the most recent jobs of one printer
func (js *JobService) ListPrinterJobs(ctx context.Context, printerID uuid.UUID, limit int) ([]*model.PrintJob, error) {
	if limit < 1 {
		limit = js.config.Printer.JobHistoryLimit
	}

	jobs, err := js.jobRepo.ListByPrinter(ctx, printerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list printer jobs: %w", err)
	}
	return jobs, nil
}

// executeJob renders one job through the printer
func (js *JobService) executeJob(p *escpos.Printer, kind model.JobKind, raw model.JSONObject) (int, error) {
	switch kind {
	case model.JobKindReceipt:
		var payload model.ReceiptPayload
		if err := decodePayload(raw, &payload); err != nil {
			return 0, err
		}
		return js.renderer.Render(p, &payload)

	case model.JobKindRaw:
		var payload model.RawPayload
		if err := decodePayload(raw, &payload); err != nil {
			return 0, err
		}
		return js.printRaw(p, &payload)

	case model.JobKindBarcode:
		var payload model.BarcodePayload
		if err := decodePayload(raw, &payload); err != nil {
			return 0, err
		}
		return js.printBarcode(p, &payload)

	case model.JobKindImage:
		var payload model.ImagePayload
		if err := decodePayload(raw, &payload); err != nil {
			return 0, err
		}
		return js.printImage(p, &payload)

	case model.JobKindTest:
		c := p.Chain().
			Init().
			Align("ct").
			Println("TEST PAGE").
			Println(time.Now().Format("2006-01-02 15:04:05")).
			Align("lt").
			Feed(2).
			PartialCut()
		return c.BytesWritten(), c.Err()

	default:
		return 0, fmt.Errorf("unsupported job kind: %s", kind)
	}
}

// printRaw sends pre-built command bytes unchanged
func (js *JobService) printRaw(p *escpos.Printer, payload *model.RawPayload) (int, error) {
	if len(payload.Data) == 0 {
		return 0, fmt.Errorf("raw payload has no data")
	}

	n, err := p.Write(payload.Data)
	if err != nil {
		return n, err
	}

	if payload.Cut {
		m, err := p.PartialCut()
		n += m
		if err != nil {
			return n, err
		}
	}

	return n, nil
}

// printBarcode prints one barcode with the dialect defaults
func (js *JobService) printBarcode(p *escpos.Printer, payload *model.BarcodePayload) (int, error) {
	if payload.Text == "" {
		return 0, fmt.Errorf("barcode payload has no text")
	}

	symbology := escpos.Code128
	if payload.Symbology != "" {
		parsed, ok := escpos.ParseSymbology(payload.Symbology)
		if !ok {
			return 0, fmt.Errorf("unsupported symbology: %s", payload.Symbology)
		}
		symbology = parsed
	}

	// Digits promises numeric content that packs into codeset C. The
	// packing itself is automatic; the promise just fails loudly instead
	// of silently printing the longer codeset B symbol.
	if payload.Digits {
		if _, err := escpos.CodesetC(payload.Text); err != nil {
			return 0, fmt.Errorf("barcode text %q: %w", payload.Text, err)
		}
	}

	c := p.Chain().
		Init().
		Align("ct").
		Barcode(payload.Text, escpos.BarcodeSpec{
			Width:     2,
			Height:    80,
			Font:      escpos.BarcodeFontStandard,
			HRI:       escpos.HRIBelow,
			Symbology: symbology,
		}).
		Align("lt").
		Feed(1)

	if payload.Cut {
		c.PartialCut()
	}

	return c.BytesWritten(), c.Err()
}

// printImage decodes and prints an image payload
func (js *JobService) printImage(p *escpos.Printer, payload *model.ImagePayload) (int, error) {
	if len(payload.Image) == 0 {
		return 0, fmt.Errorf("image payload has no data")
	}

	img, _, err := image.Decode(bytes.NewReader(payload.Image))
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}

	threshold := payload.Threshold
	if threshold == 0 {
		threshold = imaging.DefaultThreshold
	}
	bitmap := imaging.FromImage(img, threshold)

	var n int
	if payload.Raster {
		n, err = p.Raster(bitmap, payload.Density)
	} else {
		n, err = p.BitImage(bitmap, payload.Density)
	}
	if err != nil {
		return n, err
	}

	m, err := p.Feed(1)
	n += m
	if err != nil {
		return n, err
	}

	if payload.Cut {
		m, err := p.PartialCut()
		n += m
		if err != nil {
			return n, err
		}
	}

	return n, nil
}

// failJob records a failed outcome
func (js *JobService) failJob(ctx context.Context, job *model.PrintJob, err error) {
	completedAt := time.Now()
	job.Status = model.JobStatusFailed
	job.CompletedAt = &completedAt
	errorMsg := err.Error()
	job.ErrorMessage = &errorMsg

	if updateErr := js.jobRepo.Update(ctx, job); updateErr != nil {
		js.logger.Error("Failed to update failed job", zap.Error(updateErr))
	}

	publishEvent(js.events, model.NewPrinterEvent(
		model.EventJobFailed, job.PrinterID, model.SeverityError,
		model.JSONObject{
			"job_id": job.ID.String(),
			"kind":   string(job.Kind),
			"error":  errorMsg,
		},
	))
}

// validateSubmitRequest validates a job submission
func (js *JobService) validateSubmitRequest(req *SubmitJobRequest) error {
	if req.PrinterID == uuid.Nil {
		return fmt.Errorf("printer_id is required")
	}
	switch req.Kind {
	case model.JobKindReceipt, model.JobKindRaw, model.JobKindBarcode,
		model.JobKindImage, model.JobKindTest:
	default:
		return fmt.Errorf("unsupported job kind: %s", req.Kind)
	}
	if req.Payload == nil && req.Kind != model.JobKindTest {
		return fmt.Errorf("payload is required")
	}
	return nil
}

// decodePayload converts the stored JSON object into a typed payload
func decodePayload(raw model.JSONObject, out interface{}) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// DTOs for Job Service

// SubmitJobRequest represents a job submission
type SubmitJobRequest struct {
	PrinterID uuid.UUID        `json:"printer_id"`
	Kind      model.JobKind    `json:"kind" binding:"required"`
	Payload   model.JSONObject `json:"payload"`
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

// toRepoFilter converts to repository filter
func (jf *JobFilter) toRepoFilter() *repository.JobFilter {
	return &repository.JobFilter{
		PrinterID: jf.PrinterID,
		Kind:      jf.Kind,
		Status:    jf.Status,
		StartDate: jf.StartDate,
		EndDate:   jf.EndDate,
		Page:      jf.Page,
		PerPage:   jf.PerPage,
		SortBy:    jf.SortBy,
		SortOrder: jf.SortOrder,
	}
}
