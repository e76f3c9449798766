// internal/service/status_monitor.go
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/model"
	"printer-service/internal/repository"
	"printer-service/internal/utils"
	"printer-service/pkg/escpos"
)

// StatusMonitor watches every open session and turns printer condition
// changes into status log rows and events. Dialects with Automatic
// Status Back are drained for pushed replies; silence from those means
// no change, not a failure, because the device only pushes on change.
// Everything else is actively polled.
type StatusMonitor struct {
	statusRepo  repository.StatusLogRepository
	printerRepo repository.PrinterRepository
	sessions    *SessionManager
	events      EventPublisher
	config      *config.Config
	logger      *utils.ServiceLogger

	mu         sync.Mutex
	lastStatus map[uuid.UUID]escpos.Status
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewStatusMonitor creates a new status monitor instance
func NewStatusMonitor(
	statusRepo repository.StatusLogRepository,
	printerRepo repository.PrinterRepository,
	sessions *SessionManager,
	events EventPublisher,
	config *config.Config,
	logger *zap.Logger,
) *StatusMonitor {
	return &StatusMonitor{
		statusRepo:  statusRepo,
		printerRepo: printerRepo,
		sessions:    sessions,
		events:      events,
		config:      config,
		logger:      utils.NewServiceLogger(logger, "status-monitor"),
		lastStatus:  make(map[uuid.UUID]escpos.Status),
	}
}

// Start begins the poll loop. Stop or the context ends it.
func (m *StatusMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	interval := m.config.Printer.StatusPollInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	m.logger.Info("Status monitor started", zap.Duration("interval", interval))

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(ctx)
			}
		}
	}()
}

// Stop ends the poll loop and waits for the current sweep to finish
func (m *StatusMonitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.logger.Info("Status monitor stopped")
}

// sweep samples every open session once. Conditions remembered for
// printers whose session has closed are dropped, so a reconnect reports
// its first sample as a change again.
func (m *StatusMonitor) sweep(ctx context.Context) {
	sessions := m.sessions.Sessions()

	live := make(map[uuid.UUID]bool, len(sessions))
	for _, session := range sessions {
		live[session.PrinterID()] = true
	}
	m.mu.Lock()
	for id := range m.lastStatus {
		if !live[id] {
			delete(m.lastStatus, id)
		}
	}
	m.mu.Unlock()

	for _, session := range sessions {
		if ctx.Err() != nil {
			return
		}
		m.sample(ctx, session)
	}
}

// sample takes one status reading from a session
func (m *StatusMonitor) sample(ctx context.Context, session *Session) {
	if session.Dialect().HasStatusBack() {
		status, raw, ok := m.readPush(session)
		if ok {
			m.handleStatus(ctx, session, status, raw, model.StatusSourcePush)
		}
		return
	}

	status, err := querySessionStatus(session)
	if err != nil {
		m.logger.Warn("Status poll failed",
			zap.String("printer_id", session.PrinterID().String()),
			zap.Error(err),
		)
		return
	}
	m.handleStatus(ctx, session, status, nil, model.StatusSourcePoll)
}

// readPush attempts to read one pushed status reply
func (m *StatusMonitor) readPush(session *Session) (escpos.Status, []byte, bool) {
	var status escpos.Status
	var raw []byte
	got := false

	err := session.Do(func(p *escpos.Printer) error {
		buf := make([]byte, escpos.StatusReplyLen)
		n, err := p.Read(buf)
		if err != nil || n != escpos.StatusReplyLen {
			return nil
		}
		raw = buf[:n]
		status = escpos.DecodeStatus(session.Dialect(), raw)
		got = true
		return nil
	})
	if err != nil {
		m.logger.Warn("Status read failed",
			zap.String("printer_id", session.PrinterID().String()),
			zap.Error(err),
		)
		return 0, nil, false
	}

	return status, raw, got
}

// handleStatus records a sample and reacts to changes
func (m *StatusMonitor) handleStatus(ctx context.Context, session *Session, status escpos.Status, raw []byte, source string) {
	printerID := session.PrinterID()

	m.mu.Lock()
	last, seen := m.lastStatus[printerID]
	changed := !seen || last != status
	m.lastStatus[printerID] = status
	m.mu.Unlock()

	if !status.Has(escpos.StatusCommunication) {
		if err := m.printerRepo.UpdateLastSeen(ctx, printerID, time.Now()); err != nil {
			m.logger.Error("Failed to update last seen", zap.Error(err))
		}
	}

	if !changed {
		return
	}

	printerLogger := utils.NewPrinterLogger(m.logger.Logger, printerID.String(), session.Dialect().String())
	printerLogger.LogStatus(status, source)

	if err := m.statusRepo.Create(ctx, model.NewStatusLog(printerID, status, raw, source)); err != nil {
		m.logger.Error("Failed to record status log", zap.Error(err))
	}

	m.updatePrinterState(ctx, printerID, status, last)
	m.publishChangeEvents(session, status, last, source)
}

// updatePrinterState mirrors the sampled condition into the printer row
func (m *StatusMonitor) updatePrinterState(ctx context.Context, printerID uuid.UUID, status, last escpos.Status) {
	var next model.PrinterStatus
	switch {
	case status.Has(escpos.StatusCommunication):
		next = model.PrinterStatusError
	case last.Has(escpos.StatusCommunication):
		next = model.PrinterStatusOnline
	default:
		return
	}

	if err := m.printerRepo.UpdateStatus(ctx, printerID, next); err != nil {
		m.logger.Error("Failed to update printer status", zap.Error(err))
	}
}

// publishChangeEvents emits the change event plus alerts for conditions
// that just appeared
func (m *StatusMonitor) publishChangeEvents(session *Session, status, last escpos.Status, source string) {
	printerID := session.PrinterID()

	severity := model.SeverityInfo
	if !isHealthy(status) {
		severity = model.SeverityWarning
	}

	flags := make([]string, 0, 4)
	for _, f := range status.Flags() {
		flags = append(flags, f.String())
	}

	publishEvent(m.events, model.NewPrinterEvent(
		model.EventStatusChanged, printerID, severity,
		model.JSONObject{
			"printer_name": session.Name(),
			"flags":        flags,
			"source":       source,
		},
	))

	type alert struct {
		flag      escpos.Status
		eventType model.EventType
		severity  model.EventSeverity
	}
	alerts := []alert{
		{escpos.StatusPaperEnd, model.EventPaperEnd, model.SeverityCritical},
		{escpos.StatusPaperNearEnd, model.EventPaperNearEnd, model.SeverityWarning},
		{escpos.StatusDoorOpen, model.EventDoorOpen, model.SeverityWarning},
	}
	for _, a := range alerts {
		if status.Has(a.flag) && !last.Has(a.flag) {
			publishEvent(m.events, model.NewPrinterEvent(
				a.eventType, printerID, a.severity,
				model.JSONObject{"printer_name": session.Name(), "source": source},
			))
		}
	}
}
