// internal/discovery/scanner.go - Main Scanner Interface
package discovery

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"printer-service/internal/model"
)

// Scanner probes one connection medium for attached printers.
type Scanner interface {
	Scan(ctx context.Context) ([]*Candidate, error)
	GetScannerType() string
	IsAvailable() bool
}

// Candidate is a printer found during a scan. ConnectionConfig is shaped
// for the transport factory, so a candidate can be registered as-is.
type Candidate struct {
	ConnectionType   model.ConnectionType `json:"connection_type"`
	ConnectionConfig model.JSONObject     `json:"connection_config"`
	Dialect          string               `json:"dialect"`
	Model            string               `json:"model,omitempty"`
	SerialNumber     string               `json:"serial_number,omitempty"`
	Location         string               `json:"location,omitempty"`
	Confidence       float64              `json:"confidence"` // 0.0-1.0
}

// ScannerManager fans a scan request out over the registered scanners.
type ScannerManager struct {
	scanners map[string]Scanner
	logger   *zap.Logger
}

// NewScannerManager creates a new scanner manager
func NewScannerManager(logger *zap.Logger) *ScannerManager {
	return &ScannerManager{
		scanners: make(map[string]Scanner),
		logger:   logger,
	}
}

// RegisterScanner registers a scanner under its type name
func (sm *ScannerManager) RegisterScanner(scanner Scanner) {
	scannerType := scanner.GetScannerType()
	sm.scanners[scannerType] = scanner
	sm.logger.Info("Scanner registered", zap.String("type", scannerType))
}

// ScanAll runs every available scanner and merges the results, highest
// confidence first. A scanner failure is logged and skipped so one dead
// medium does not hide the others.
func (sm *ScannerManager) ScanAll(ctx context.Context) ([]*Candidate, error) {
	var all []*Candidate

	for scannerType, scanner := range sm.scanners {
		if !scanner.IsAvailable() {
			sm.logger.Debug("Scanner not available, skipping", zap.String("type", scannerType))
			continue
		}

		candidates, err := scanner.Scan(ctx)
		if err != nil {
			sm.logger.Error("Scanner failed", zap.String("type", scannerType), zap.Error(err))
			continue
		}

		all = append(all, candidates...)
		sm.logger.Info("Scanner completed",
			zap.String("type", scannerType),
			zap.Int("candidates_found", len(candidates)),
		)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Confidence > all[j].Confidence
	})

	return all, nil
}

// ScanByType runs a single scanner
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType string) ([]*Candidate, error) {
	scanner, exists := sm.scanners[scannerType]
	if !exists {
		return nil, fmt.Errorf("scanner type not found: %s", scannerType)
	}

	if !scanner.IsAvailable() {
		return nil, fmt.Errorf("scanner not available: %s", scannerType)
	}

	return scanner.Scan(ctx)
}

// GetAvailableScanners returns list of available scanner types
func (sm *ScannerManager) GetAvailableScanners() []string {
	var available []string
	for scannerType, scanner := range sm.scanners {
		if scanner.IsAvailable() {
			available = append(available, scannerType)
		}
	}
	sort.Strings(available)
	return available
}
