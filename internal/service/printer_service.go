// internal/service/printer_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/model"
	"printer-service/internal/repository"
	"printer-service/internal/textenc"
	"printer-service/internal/transport"
	"printer-service/internal/utils"
	"printer-service/pkg/escpos"
)

// transportFactory builds a transport for a stored connection config.
// Swappable so session tests can run against an in-memory channel.
type transportFactory func(model.ConnectionType, model.JSONObject, *zap.Logger) (transport.Transport, error)

// PrinterService handles printer registration and session lifecycle
type PrinterService struct {
	printerRepo  repository.PrinterRepository
	statusRepo   repository.StatusLogRepository
	sessions     *SessionManager
	events       EventPublisher
	config       *config.Config
	logger       *utils.ServiceLogger
	newTransport transportFactory
}

// NewPrinterService creates a new printer service instance
func NewPrinterService(
	printerRepo repository.PrinterRepository,
	statusRepo repository.StatusLogRepository,
	sessions *SessionManager,
	events EventPublisher,
	config *config.Config,
	logger *zap.Logger,
) *PrinterService {
	return &PrinterService{
		printerRepo:  printerRepo,
		statusRepo:   statusRepo,
		sessions:     sessions,
		events:       events,
		config:       config,
		logger:       utils.NewServiceLogger(logger, "printer-service"),
		newTransport: transport.New,
	}
}

// RegisterPrinter registers a new printer in the system
func (ps *PrinterService) RegisterPrinter(ctx context.Context, req *RegisterPrinterRequest) (*model.Printer, error) {
	if err := ps.validateRegisterRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	existing, err := ps.printerRepo.GetByName(ctx, req.Name)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("printer with name %q %w", req.Name, ErrAlreadyExists)
	}

	encoding := req.Encoding
	if encoding == "" {
		encoding = ps.config.Printer.DefaultEncoding
	}

	printer := &model.Printer{
		ID:               uuid.New(),
		Name:             req.Name,
		Dialect:          escpos.ParseDialect(req.Dialect).String(),
		Model:            req.Model,
		SerialNumber:     req.SerialNumber,
		ConnectionType:   req.ConnectionType,
		ConnectionConfig: req.ConnectionConfig,
		Encoding:         encoding,
		Status:           model.PrinterStatusOffline,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := ps.printerRepo.Create(ctx, printer); err != nil {
		ps.logger.Error("Failed to create printer", zap.Error(err))
		return nil, fmt.Errorf("failed to create printer: %w", err)
	}

	ps.logger.Info("Printer registered successfully",
		zap.String("printer_id", printer.ID.String()),
		zap.String("name", printer.Name),
		zap.String("dialect", printer.Dialect),
	)

	return printer, nil
}

// ConnectPrinter opens a session to the printer
func (ps *PrinterService) ConnectPrinter(ctx context.Context, id uuid.UUID) error {
	printer, err := ps.printerRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("printer not found: %w", err)
	}

	if _, open := ps.sessions.Get(id); open {
		return fmt.Errorf("printer %q is already %w", printer.Name, ErrConnected)
	}

	printerLogger := utils.NewPrinterLogger(ps.logger.Logger, printer.ID.String(), printer.Dialect)

	if err := ps.printerRepo.UpdateStatus(ctx, id, model.PrinterStatusConnecting); err != nil {
		printerLogger.Error("Failed to update printer status", zap.Error(err))
	}

	session, err := ps.openSession(printer)
	if err != nil {
		printerLogger.LogConnection("connect", err)
		ps.updatePrinterError(ctx, printer, err)
		publishEvent(ps.events, model.NewPrinterEvent(
			model.EventPrinterError, id, model.SeverityError,
			model.JSONObject{"error": err.Error(), "name": printer.Name},
		))
		return fmt.Errorf("failed to connect printer: %w", err)
	}

	now := time.Now()
	printer.Status = model.PrinterStatusOnline
	printer.LastSeen = &now
	printer.ErrorInfo = nil
	if err := ps.printerRepo.Update(ctx, printer); err != nil {
		printerLogger.Error("Failed to update printer after connect", zap.Error(err))
	}

	printerLogger.LogConnection("connect", nil)
	publishEvent(ps.events, model.NewPrinterEvent(
		model.EventPrinterConnected, id, model.SeverityInfo,
		model.JSONObject{"name": printer.Name, "dialect": session.Dialect().String()},
	))

	return nil
}

// DisconnectPrinter closes the printer's session
func (ps *PrinterService) DisconnectPrinter(ctx context.Context, id uuid.UUID) error {
	printer, err := ps.printerRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("printer not found: %w", err)
	}

	printerLogger := utils.NewPrinterLogger(ps.logger.Logger, printer.ID.String(), printer.Dialect)

	if err := ps.sessions.Close(id); err != nil {
		return fmt.Errorf("printer %q is %w", printer.Name, ErrNotConnected)
	}

	if err := ps.printerRepo.UpdateStatus(ctx, id, model.PrinterStatusOffline); err != nil {
		printerLogger.Error("Failed to update printer status", zap.Error(err))
	}

	printerLogger.LogConnection("disconnect", nil)
	publishEvent(ps.events, model.NewPrinterEvent(
		model.EventPrinterDisconnected, id, model.SeverityInfo,
		model.JSONObject{"name": printer.Name},
	))

	return nil
}

// GetPrinter retrieves printer information
func (ps *PrinterService) GetPrinter(ctx context.Context, id uuid.UUID) (*model.Printer, error) {
	printer, err := ps.printerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("printer not found: %w", err)
	}
	return printer, nil
}

// ListPrinters retrieves printers with filtering
func (ps *PrinterService) ListPrinters(ctx context.Context, filter *PrinterFilter) ([]*model.Printer, *PaginationResult, error) {
	printers, total, err := ps.printerRepo.List(ctx, filter.toRepoFilter())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list printers: %w", err)
	}

	return printers, newPaginationResult(total, filter.Page, filter.PerPage), nil
}

// UpdatePrinter updates printer settings. Connection settings only
// change while the printer is disconnected.
func (ps *PrinterService) UpdatePrinter(ctx context.Context, id uuid.UUID, req *UpdatePrinterRequest) (*model.Printer, error) {
	printer, err := ps.printerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("printer not found: %w", err)
	}

	if req.ConnectionConfig != nil || req.ConnectionType != nil {
		if _, open := ps.sessions.Get(id); open {
			return nil, fmt.Errorf("cannot change connection settings while printer %q is %w", printer.Name, ErrConnected)
		}
	}

	if req.Name != nil {
		printer.Name = *req.Name
	}
	if req.Dialect != nil {
		printer.Dialect = escpos.ParseDialect(*req.Dialect).String()
	}
	if req.Model != nil {
		printer.Model = req.Model
	}
	if req.ConnectionType != nil {
		printer.ConnectionType = *req.ConnectionType
	}
	if req.ConnectionConfig != nil {
		if err := transport.Validate(printer.ConnectionType, req.ConnectionConfig); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		printer.ConnectionConfig = req.ConnectionConfig
	}
	if req.Encoding != nil {
		if err := validateEncoding(*req.Encoding); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		printer.Encoding = *req.Encoding
	}
	printer.UpdatedAt = time.Now()

	if err := ps.printerRepo.Update(ctx, printer); err != nil {
		return nil, fmt.Errorf("failed to update printer: %w", err)
	}

	ps.logger.Info("Printer updated", zap.String("printer_id", id.String()))
	return printer, nil
}

// DeletePrinter removes a printer from the system
func (ps *PrinterService) DeletePrinter(ctx context.Context, id uuid.UUID) error {
	printer, err := ps.printerRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("printer not found: %w", err)
	}

	if _, open := ps.sessions.Get(id); open {
		return fmt.Errorf("cannot delete %w printer %q, disconnect first", ErrConnected, printer.Name)
	}

	if err := ps.printerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete printer: %w", err)
	}

	ps.logger.Info("Printer deleted",
		zap.String("printer_id", id.String()),
		zap.String("name", printer.Name),
	)

	return nil
}

// QueryStatus polls the printer for its hardware status and records the
// observation
func (ps *PrinterService) QueryStatus(ctx context.Context, id uuid.UUID) (*StatusResult, error) {
	printer, err := ps.printerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("printer not found: %w", err)
	}

	session, open := ps.sessions.Get(id)
	if !open {
		return nil, fmt.Errorf("printer %q is %w", printer.Name, ErrNotConnected)
	}

	status, err := querySessionStatus(session)
	if err != nil {
		return nil, fmt.Errorf("status query failed: %w", err)
	}

	printerLogger := utils.NewPrinterLogger(ps.logger.Logger, printer.ID.String(), printer.Dialect)
	printerLogger.LogStatus(status, model.StatusSourcePoll)

	entry := model.NewStatusLog(id, status, nil, model.StatusSourcePoll)
	if err := ps.statusRepo.Create(ctx, entry); err != nil {
		printerLogger.Error("Failed to record status log", zap.Error(err))
	}

	if !status.Has(escpos.StatusCommunication) {
		if err := ps.printerRepo.UpdateLastSeen(ctx, id, time.Now()); err != nil {
			printerLogger.Error("Failed to update last seen", zap.Error(err))
		}
	}

	return newStatusResult(printer, status), nil
}

// StatusHistory retrieves recorded status snapshots, newest first
func (ps *PrinterService) StatusHistory(ctx context.Context, id uuid.UUID, limit int) ([]*model.StatusLog, error) {
	if _, err := ps.printerRepo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("printer not found: %w", err)
	}

	if limit < 1 {
		limit = ps.config.Printer.JobHistoryLimit
	}

	logs, err := ps.statusRepo.ListByPrinter(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list status history: %w", err)
	}

	return logs, nil
}

// TestPrint prints a short connectivity test page
func (ps *PrinterService) TestPrint(ctx context.Context, id uuid.UUID) (*TestResult, error) {
	printer, err := ps.printerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("printer not found: %w", err)
	}

	session, open := ps.sessions.Get(id)
	if !open {
		return nil, fmt.Errorf("printer %q is %w", printer.Name, ErrNotConnected)
	}

	printerLogger := utils.NewPrinterLogger(ps.logger.Logger, printer.ID.String(), printer.Dialect)
	startTime := time.Now()

	var bytesWritten int
	err = session.Do(func(p *escpos.Printer) error {
		c := p.Chain().
			Init().
			Align("ct").
			Style("b").
			Println(printer.Name).
			Style("").
			Println(time.Now().Format("2006-01-02 15:04:05")).
			Align("lt").
			Feed(2).
			PartialCut()
		bytesWritten = c.BytesWritten()
		return c.Err()
	})

	duration := time.Since(startTime)
	printerLogger.LogJob("test", string(model.JobKindTest), bytesWritten, duration, err)

	if err != nil {
		return &TestResult{
			Success:      false,
			Duration:     duration.String(),
			BytesWritten: bytesWritten,
			ErrorMessage: err.Error(),
		}, nil
	}

	return &TestResult{
		Success:      true,
		Duration:     duration.String(),
		BytesWritten: bytesWritten,
	}, nil
}

// GetStats retrieves fleet statistics
func (ps *PrinterService) GetStats(ctx context.Context) (*repository.PrinterStats, error) {
	stats, err := ps.printerRepo.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get printer stats: %w", err)
	}
	return stats, nil
}

// Helper methods

// openSession dials the transport and brings the printer to a known
// state
func (ps *PrinterService) openSession(printer *model.Printer) (*Session, error) {
	tr, err := ps.newTransport(printer.ConnectionType, printer.ConnectionConfig, ps.logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	if err := tr.Open(); err != nil {
		return nil, fmt.Errorf("failed to open transport: %w", err)
	}

	dialect := printer.EscposDialect()
	opts := []escpos.PrinterOption{}
	if encoder, err := encoderFor(printer.Encoding); err != nil {
		tr.Close()
		return nil, err
	} else if encoder != nil {
		opts = append(opts, escpos.WithTextEncoder(encoder))
	}

	p := escpos.NewPrinter(tr, dialect, opts...)

	if err := p.Chain().Init().Err(); err != nil {
		tr.Close()
		return nil, fmt.Errorf("failed to initialize printer: %w", err)
	}
	// Not every dialect has an enable command
	if _, err := p.Enable(); err != nil && !errors.Is(err, escpos.ErrUnsupported) {
		tr.Close()
		return nil, fmt.Errorf("failed to enable printer: %w", err)
	}
	if dialect.HasStatusBack() {
		if _, err := p.EnableStatusBack(); err != nil {
			tr.Close()
			return nil, fmt.Errorf("failed to enable status back: %w", err)
		}
	}

	session, err := ps.sessions.Open(printer.ID, printer.Name, dialect, tr, p)
	if err != nil {
		tr.Close()
		return nil, err
	}

	return session, nil
}

// updatePrinterError marks the printer errored with diagnostic info
func (ps *PrinterService) updatePrinterError(ctx context.Context, printer *model.Printer, err error) {
	printer.Status = model.PrinterStatusError
	printer.ErrorInfo = model.JSONObject{
		"last_error": err.Error(),
		"error_time": time.Now(),
	}

	if updateErr := ps.printerRepo.Update(ctx, printer); updateErr != nil {
		ps.logger.Error("Failed to update printer error", zap.Error(updateErr))
	}
}

// validateRegisterRequest validates printer registration request
func (ps *PrinterService) validateRegisterRequest(req *RegisterPrinterRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.Dialect == "" {
		return fmt.Errorf("dialect is required")
	}
	if req.ConnectionType == "" {
		return fmt.Errorf("connection_type is required")
	}
	if req.ConnectionConfig == nil {
		return fmt.Errorf("connection_config is required")
	}
	if err := transport.Validate(req.ConnectionType, req.ConnectionConfig); err != nil {
		return err
	}
	if req.Encoding != "" {
		return validateEncoding(req.Encoding)
	}
	return nil
}

// querySessionStatus runs a status poll through the session. A
// StatusError is the report itself, not a query failure.
func querySessionStatus(session *Session) (escpos.Status, error) {
	var status escpos.Status
	err := session.Do(func(p *escpos.Printer) error {
		var err error
		status, err = p.Status()
		return err
	})
	if err != nil {
		if statusErr, ok := asStatusError(err); ok {
			return statusErr.Status, nil
		}
		return 0, err
	}
	return status, nil
}

// asStatusError unwraps a hardware condition report from an error chain
func asStatusError(err error) (*escpos.StatusError, bool) {
	var statusErr *escpos.StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}

// encoderFor resolves a stored encoding name to a text encoder. UTF-8
// passthrough is the core default and needs none.
func encoderFor(name string) (escpos.TextEncoder, error) {
	if name == "" || name == "utf8" || name == "utf-8" {
		return nil, nil
	}
	encoder, err := textenc.New(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	if encoder == nil {
		// Spellings like "UTF-8" normalize to passthrough.
		return nil, nil
	}
	return encoder, nil
}

// validateEncoding rejects encodings the service cannot render
func validateEncoding(name string) error {
	_, err := encoderFor(name)
	return err
}

// Data Transfer Objects

// RegisterPrinterRequest represents printer registration request
type RegisterPrinterRequest struct {
	Name             string               `json:"name" binding:"required"`
	Dialect          string               `json:"dialect" binding:"required"`
	Model            *string              `json:"model,omitempty"`
	SerialNumber     *string              `json:"serial_number,omitempty"`
	ConnectionType   model.ConnectionType `json:"connection_type" binding:"required"`
	ConnectionConfig model.JSONObject     `json:"connection_config" binding:"required"`
	Encoding         string               `json:"encoding,omitempty"`
}

// UpdatePrinterRequest represents a partial printer update
type UpdatePrinterRequest struct {
	Name             *string               `json:"name,omitempty"`
	Dialect          *string               `json:"dialect,omitempty"`
	Model            *string               `json:"model,omitempty"`
	ConnectionType   *model.ConnectionType `json:"connection_type,omitempty"`
	ConnectionConfig model.JSONObject      `json:"connection_config,omitempty"`
	Encoding         *string               `json:"encoding,omitempty"`
}

// PrinterFilter represents printer listing filters
type PrinterFilter struct {
	Dialect        *string               `json:"dialect,omitempty"`
	ConnectionType *model.ConnectionType `json:"connection_type,omitempty"`
	Status         *model.PrinterStatus  `json:"status,omitempty"`
	SearchTerm     *string               `json:"search,omitempty"`
	Page           int                   `json:"page"`
	PerPage        int                   `json:"per_page"`
	SortBy         string                `json:"sort_by"`
	SortOrder      string                `json:"sort_order"`
}

// toRepoFilter converts to repository filter
func (pf *PrinterFilter) toRepoFilter() *repository.PrinterFilter {
	return &repository.PrinterFilter{
		Dialect:        pf.Dialect,
		ConnectionType: pf.ConnectionType,
		Status:         pf.Status,
		SearchTerm:     pf.SearchTerm,
		Page:           pf.Page,
		PerPage:        pf.PerPage,
		SortBy:         pf.SortBy,
		SortOrder:      pf.SortOrder,
	}
}

// PaginationResult represents pagination information
type PaginationResult struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

func newPaginationResult(total, page, perPage int) *PaginationResult {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	return &PaginationResult{
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}
}

// StatusResult represents a printer status observation
type StatusResult struct {
	PrinterID  uuid.UUID `json:"printer_id"`
	Name       string    `json:"name"`
	Dialect    string    `json:"dialect"`
	Flags      []string  `json:"flags"`
	Healthy    bool      `json:"healthy"`
	ObservedAt time.Time `json:"observed_at"`
}

func newStatusResult(printer *model.Printer, status escpos.Status) *StatusResult {
	flags := []string{}
	for _, f := range status.Flags() {
		flags = append(flags, f.String())
	}

	return &StatusResult{
		PrinterID:  printer.ID,
		Name:       printer.Name,
		Dialect:    printer.Dialect,
		Flags:      flags,
		Healthy:    isHealthy(status),
		ObservedAt: time.Now(),
	}
}

// isHealthy reports whether the flag set describes a printer ready to
// print
func isHealthy(status escpos.Status) bool {
	if status.Empty() {
		return true
	}
	fault := escpos.StatusCommunication | escpos.StatusOffline |
		escpos.StatusDoorOpen | escpos.StatusPaperEnd |
		escpos.StatusRecoverable | escpos.StatusAutomaticallyRecoverable
	return status&fault == 0
}

// TestResult represents printer test result
type TestResult struct {
	Success      bool   `json:"success"`
	Duration     string `json:"duration"`
	BytesWritten int    `json:"bytes_written"`
	ErrorMessage string `json:"error_message,omitempty"`
}
