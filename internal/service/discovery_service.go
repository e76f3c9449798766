// internal/service/discovery_service.go
package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/discovery"
	"printer-service/internal/discovery/serial"
	"printer-service/internal/discovery/tcp"
	"printer-service/internal/discovery/usb"
	"printer-service/internal/utils"
)

// DiscoveryService finds attached printers across all bus types. It
// only reports candidates; registration stays an explicit call so an
// operator can name the printer and pick the dialect before first use.
type DiscoveryService struct {
	scannerManager *discovery.ScannerManager
	config         *config.Config
	logger         *utils.ServiceLogger
}

// NewDiscoveryService creates a new discovery service instance
func NewDiscoveryService(config *config.Config, logger *zap.Logger) *DiscoveryService {
	serviceLogger := utils.NewServiceLogger(logger, "discovery-service")

	ds := &DiscoveryService{
		scannerManager: discovery.NewScannerManager(logger),
		config:         config,
		logger:         serviceLogger,
	}

	ds.initializeScanners()

	return ds
}

// initializeScanners registers all bus scanners. The TCP scanner is not
// registered here: raw port 9100 printers do not announce themselves, so
// TCP scans only run against the targets named in a scan request.
func (ds *DiscoveryService) initializeScanners() {
	if usbScanner := usb.NewScanner(ds.logger.Logger, nil); usbScanner.IsAvailable() {
		ds.scannerManager.RegisterScanner(usbScanner)
	}

	if serialScanner := serial.NewScanner(ds.logger.Logger, nil); serialScanner.IsAvailable() {
		ds.scannerManager.RegisterScanner(serialScanner)
	}

	ds.logger.Info("Discovery scanners initialized",
		zap.Strings("available_scanners", ds.scannerManager.GetAvailableScanners()),
	)
}

// Scan scans for candidate printers
func (ds *DiscoveryService) Scan(ctx context.Context, req *ScanRequest) ([]*discovery.Candidate, error) {
	scanType := req.ScanType
	if scanType == "" {
		scanType = "all"
	}

	ds.logger.Info("Starting printer scan", zap.String("type", scanType))

	if ds.config.Printer.DiscoveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ds.config.Printer.DiscoveryTimeout)
		defer cancel()
	}

	var candidates []*discovery.Candidate
	var err error

	switch scanType {
	case "all":
		candidates, err = ds.scannerManager.ScanAll(ctx)
		if err == nil && len(req.TCPTargets) > 0 {
			var tcpCandidates []*discovery.Candidate
			tcpCandidates, err = ds.scanTCPTargets(ctx, req.TCPTargets)
			candidates = append(candidates, tcpCandidates...)
			sort.SliceStable(candidates, func(i, j int) bool {
				return candidates[i].Confidence > candidates[j].Confidence
			})
		}
	case "usb", "serial":
		candidates, err = ds.scannerManager.ScanByType(ctx, scanType)
	case "tcp":
		if len(req.TCPTargets) == 0 {
			return nil, fmt.Errorf("%w: tcp scan requires at least one target", ErrValidation)
		}
		candidates, err = ds.scanTCPTargets(ctx, req.TCPTargets)
	default:
		return nil, fmt.Errorf("%w: unsupported scan type %q", ErrValidation, scanType)
	}

	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	ds.logger.Info("Printer scan completed",
		zap.Int("candidates_found", len(candidates)),
		zap.String("scan_type", scanType),
	)

	return candidates, nil
}

// AvailableScanners lists the registered scanner types
func (ds *DiscoveryService) AvailableScanners() []string {
	return ds.scannerManager.GetAvailableScanners()
}

// scanTCPTargets probes the requested host:port targets
func (ds *DiscoveryService) scanTCPTargets(ctx context.Context, targets []string) ([]*discovery.Candidate, error) {
	scanner := tcp.NewScanner(ds.logger.Logger, &tcp.Config{
		Targets:     targets,
		ConnTimeout: ds.config.Printer.TCPProbeTimeout,
	})
	return scanner.Scan(ctx)
}

// ScanRequest represents a discovery scan request
type ScanRequest struct {
	ScanType   string   `json:"scan_type"`
	TCPTargets []string `json:"tcp_targets,omitempty"`
}
