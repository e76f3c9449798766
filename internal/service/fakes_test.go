// internal/service/fakes_test.go
package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/model"
	"printer-service/internal/repository"
	"printer-service/internal/transport"
	"printer-service/pkg/escpos"
)

// In-memory stand-ins for the repositories and the transport. They clone
// on the way in and out like a real database round trip would.

type fakePrinterRepo struct {
	mu       sync.Mutex
	printers map[uuid.UUID]*model.Printer

	createErr error
	updateErr error
}

func newFakePrinterRepo() *fakePrinterRepo {
	return &fakePrinterRepo{printers: make(map[uuid.UUID]*model.Printer)}
}

func (r *fakePrinterRepo) Create(ctx context.Context, printer *model.Printer) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *printer
	r.printers[printer.ID] = &cp
	return nil
}

func (r *fakePrinterRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Printer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	printer, ok := r.printers[id]
	if !ok {
		return nil, fmt.Errorf("printer %s: %w", id, repository.ErrNotFound)
	}
	cp := *printer
	return &cp, nil
}

func (r *fakePrinterRepo) GetByName(ctx context.Context, name string) (*model.Printer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, printer := range r.printers {
		if printer.Name == name {
			cp := *printer
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("printer %s: %w", name, repository.ErrNotFound)
}

func (r *fakePrinterRepo) Update(ctx context.Context, printer *model.Printer) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.printers[printer.ID]; !ok {
		return fmt.Errorf("printer %s: %w", printer.ID, repository.ErrNotFound)
	}
	cp := *printer
	r.printers[printer.ID] = &cp
	return nil
}

func (r *fakePrinterRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PrinterStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	printer, ok := r.printers[id]
	if !ok {
		return fmt.Errorf("printer %s: %w", id, repository.ErrNotFound)
	}
	printer.Status = status
	return nil
}

func (r *fakePrinterRepo) UpdateLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	printer, ok := r.printers[id]
	if !ok {
		return fmt.Errorf("printer %s: %w", id, repository.ErrNotFound)
	}
	printer.LastSeen = &seenAt
	return nil
}

func (r *fakePrinterRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.printers[id]; !ok {
		return fmt.Errorf("printer %s: %w", id, repository.ErrNotFound)
	}
	delete(r.printers, id)
	return nil
}

func (r *fakePrinterRepo) List(ctx context.Context, filter *repository.PrinterFilter) ([]*model.Printer, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*model.Printer, 0, len(r.printers))
	for _, printer := range r.printers {
		if filter.Status != nil && printer.Status != *filter.Status {
			continue
		}
		if filter.Dialect != nil && printer.Dialect != *filter.Dialect {
			continue
		}
		if filter.SearchTerm != nil && !strings.Contains(printer.Name, *filter.SearchTerm) {
			continue
		}
		cp := *printer
		result = append(result, &cp)
	}
	return result, len(result), nil
}

func (r *fakePrinterRepo) ListByStatus(ctx context.Context, status model.PrinterStatus) ([]*model.Printer, error) {
	list, _, err := r.List(ctx, &repository.PrinterFilter{Status: &status})
	return list, err
}

func (r *fakePrinterRepo) GetStats(ctx context.Context) (*repository.PrinterStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.PrinterStats{
		ByDialect:    make(map[string]int),
		ByConnection: make(map[model.ConnectionType]int),
	}
	for _, printer := range r.printers {
		stats.TotalPrinters++
		switch printer.Status {
		case model.PrinterStatusOnline:
			stats.OnlinePrinters++
		case model.PrinterStatusError:
			stats.ErrorPrinters++
		default:
			stats.OfflinePrinters++
		}
		stats.ByDialect[printer.Dialect]++
		stats.ByConnection[printer.ConnectionType]++
	}
	return stats, nil
}

func (r *fakePrinterRepo) status(id uuid.UUID) model.PrinterStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	printer, ok := r.printers[id]
	if !ok {
		return ""
	}
	return printer.Status
}

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*model.PrintJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*model.PrintJob)}
}

func (r *fakeJobRepo) Create(ctx context.Context, job *model.PrintJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("print job %s: %w", id, repository.ErrNotFound)
	}
	cp := *job
	return &cp, nil
}

func (r *fakeJobRepo) Update(ctx context.Context, job *model.PrintJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return fmt.Errorf("print job %s: %w", job.ID, repository.ErrNotFound)
	}
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *fakeJobRepo) List(ctx context.Context, filter *repository.JobFilter) ([]*model.PrintJob, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*model.PrintJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		if filter.PrinterID != nil && job.PrinterID != *filter.PrinterID {
			continue
		}
		if filter.Status != nil && job.Status != *filter.Status {
			continue
		}
		if filter.Kind != nil && job.Kind != *filter.Kind {
			continue
		}
		cp := *job
		result = append(result, &cp)
	}
	return result, len(result), nil
}

func (r *fakeJobRepo) ListByPrinter(ctx context.Context, printerID uuid.UUID, limit int) ([]*model.PrintJob, error) {
	list, _, err := r.List(ctx, &repository.JobFilter{PrinterID: &printerID})
	if err != nil {
		return nil, err
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *fakeJobRepo) DeleteOld(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, job := range r.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(olderThan) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed, nil
}

type fakeStatusRepo struct {
	mu   sync.Mutex
	logs []*model.StatusLog
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{}
}

func (r *fakeStatusRepo) Create(ctx context.Context, log *model.StatusLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *log
	r.logs = append(r.logs, &cp)
	return nil
}

func (r *fakeStatusRepo) ListByPrinter(ctx context.Context, printerID uuid.UUID, limit int) ([]*model.StatusLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*model.StatusLog, 0, limit)
	for i := len(r.logs) - 1; i >= 0 && len(result) < limit; i-- {
		if r.logs[i].PrinterID == printerID {
			cp := *r.logs[i]
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *fakeStatusRepo) Latest(ctx context.Context, printerID uuid.UUID) (*model.StatusLog, error) {
	logs, err := r.ListByPrinter(ctx, printerID, 1)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("status for printer %s: %w", printerID, repository.ErrNotFound)
	}
	return logs[0], nil
}

func (r *fakeStatusRepo) DeleteOld(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.logs[:0]
	var removed int64
	for _, log := range r.logs {
		if log.ObservedAt.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, log)
	}
	r.logs = kept
	return removed, nil
}

func (r *fakeStatusRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []*model.PrinterEvent
}

func (e *fakeEvents) Publish(event *model.PrinterEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *fakeEvents) types() []model.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	types := make([]model.EventType, 0, len(e.events))
	for _, event := range e.events {
		types = append(types, event.EventType)
	}
	return types
}

func (e *fakeEvents) has(t model.EventType) bool {
	for _, got := range e.types() {
		if got == t {
			return true
		}
	}
	return false
}

// fakeTransport is an in-memory byte channel. Writes accumulate, reads
// pop pre-queued replies and time out once the queue is empty.
type fakeTransport struct {
	mu       sync.Mutex
	wr       bytes.Buffer
	reads    [][]byte
	open     bool
	closed   bool
	openErr  error
	writeErr error
}

func (t *fakeTransport) Open() error {
	if t.openErr != nil {
		return t.openErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = true
	return nil
}

func (t *fakeTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *fakeTransport) Write(p []byte) (int, error) {
	if t.writeErr != nil {
		return 0, t.writeErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wr.Write(p)
}

func (t *fakeTransport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.reads) == 0 {
		return 0, escpos.ErrTimeout
	}
	next := t.reads[0]
	t.reads = t.reads[1:]
	return copy(p, next), nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = false
	t.closed = true
	return nil
}

func (t *fakeTransport) Type() model.ConnectionType {
	return model.ConnectionTypeUSB
}

func (t *fakeTransport) Stats() transport.Stats {
	return transport.Stats{IsConnected: t.IsOpen()}
}

func (t *fakeTransport) queueRead(reply []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reads = append(t.reads, reply)
}

func (t *fakeTransport) written() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.wr.Bytes()...)
}

// Wiring helpers

func testConfig() *config.Config {
	return &config.Config{
		Printer: config.PrinterConfig{
			StatusPollInterval: 20 * time.Millisecond,
			DiscoveryTimeout:   time.Second,
			TCPProbeTimeout:    100 * time.Millisecond,
			JobHistoryLimit:    50,
			DefaultEncoding:    "cp437",
		},
	}
}

func usbConnectionConfig() model.JSONObject {
	return model.JSONObject{
		"vendor_id":  "0x154f",
		"product_id": "0x154f",
		"endpoint":   1,
	}
}

func testPrinter(name, dialect string) *model.Printer {
	return &model.Printer{
		ID:               uuid.New(),
		Name:             name,
		Dialect:          dialect,
		ConnectionType:   model.ConnectionTypeUSB,
		ConnectionConfig: usbConnectionConfig(),
		Status:           model.PrinterStatusOffline,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

// testRig bundles one fully wired service stack around fakes
type testRig struct {
	printerRepo *fakePrinterRepo
	jobRepo     *fakeJobRepo
	statusRepo  *fakeStatusRepo
	events      *fakeEvents
	sessions    *SessionManager
	transport   *fakeTransport
	printers    *PrinterService
	jobs        *JobService
}

func newTestRig() *testRig {
	logger := zap.NewNop()
	rig := &testRig{
		printerRepo: newFakePrinterRepo(),
		jobRepo:     newFakeJobRepo(),
		statusRepo:  newFakeStatusRepo(),
		events:      &fakeEvents{},
		sessions:    NewSessionManager(logger),
		transport:   &fakeTransport{},
	}
	cfg := testConfig()
	rig.printers = NewPrinterService(rig.printerRepo, rig.statusRepo, rig.sessions, rig.events, cfg, logger)
	rig.printers.newTransport = func(model.ConnectionType, model.JSONObject, *zap.Logger) (transport.Transport, error) {
		return rig.transport, nil
	}
	rig.jobs = NewJobService(rig.jobRepo, rig.printerRepo, rig.sessions, rig.events, cfg, logger)
	return rig
}

// addPrinter seeds a registered printer
func (rig *testRig) addPrinter(name, dialect string) *model.Printer {
	printer := testPrinter(name, dialect)
	if err := rig.printerRepo.Create(context.Background(), printer); err != nil {
		panic(err)
	}
	return printer
}

// connect seeds and connects a printer in one step
func (rig *testRig) connect(name, dialect string) *model.Printer {
	printer := rig.addPrinter(name, dialect)
	if err := rig.printers.ConnectPrinter(context.Background(), printer.ID); err != nil {
		panic(err)
	}
	return printer
}
