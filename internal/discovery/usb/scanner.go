// internal/discovery/usb/scanner.go - USB Scanner Implementation
package usb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"printer-service/internal/discovery"
	"printer-service/internal/model"
	"printer-service/pkg/escpos"
)

// Scanner enumerates USB devices and resolves the ones that speak a
// known command set. A device identifies either by vendor/product ID or
// by its manufacturer string; some printers in API mode carry no string
// descriptors at all, so every descriptor read degrades instead of
// failing the device.
type Scanner struct {
	logger *zap.Logger
	config *Config
}

// Config for USB scanner
type Config struct {
	ScanTimeout time.Duration `json:"scan_timeout"`
	// IncludeUnknown also reports printer-class devices whose command
	// set could not be resolved.
	IncludeUnknown bool `json:"include_unknown"`
}

// NewScanner creates a new USB scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{
			ScanTimeout:    10 * time.Second,
			IncludeUnknown: true,
		}
	}

	return &Scanner{
		logger: logger.With(zap.String("scanner", "usb")),
		config: config,
	}
}

// GetScannerType returns scanner type identifier
func (s *Scanner) GetScannerType() string {
	return "usb"
}

// IsAvailable checks if USB scanning is available on this system
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan opens every USB device and keeps the ones that resolve to a
// printer. Opening everything mirrors how identification works: the
// manufacturer string is only readable through an open handle.
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.Candidate, error) {
	startTime := time.Now()
	s.logger.Info("Starting USB scan")

	scanCtx, cancel := context.WithTimeout(ctx, s.config.ScanTimeout)
	defer cancel()

	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil {
			s.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()

	devices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true
	})
	defer s.closeAllDevices(devices)
	if err != nil {
		// OpenDevices returns the devices it could open alongside the
		// errors for the ones it could not.
		if len(devices) == 0 {
			return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
		}
		s.logger.Warn("Some USB devices could not be opened", zap.Error(err))
	}

	s.logger.Debug("Examining USB devices", zap.Int("device_count", len(devices)))

	var candidates []*discovery.Candidate
	for _, device := range devices {
		select {
		case <-scanCtx.Done():
			return s.postProcess(candidates), scanCtx.Err()
		default:
		}

		if candidate := s.examine(device); candidate != nil {
			candidates = append(candidates, candidate)
		}
	}

	processed := s.postProcess(candidates)

	s.logger.Info("USB scan completed",
		zap.Int("candidates_found", len(processed)),
		zap.Duration("scan_duration", time.Since(startTime)),
	)

	return processed, nil
}

// examine resolves one device to a candidate, or nil when it is not a
// printer we can drive.
func (s *Scanner) examine(device *gousb.Device) *discovery.Candidate {
	desc := device.Desc
	if desc == nil {
		return nil
	}

	dialect, confidence := s.resolveDialect(device, desc)
	if dialect == escpos.Unknown {
		if !s.config.IncludeUnknown || !isPrinterClass(desc) {
			return nil
		}
		confidence = 0.4
	}

	candidate := &discovery.Candidate{
		ConnectionType:   model.ConnectionTypeUSB,
		ConnectionConfig: s.connectionConfig(desc),
		Dialect:          dialect.String(),
		Model:            s.stringDescriptor(device.Product),
		SerialNumber:     s.stringDescriptor(device.SerialNumber),
		Location:         fmt.Sprintf("usb-bus%d-addr%d", desc.Bus, desc.Address),
		Confidence:       confidence,
	}

	s.logger.Debug("USB device identified",
		zap.String("vendor_id", fmt.Sprintf("0x%04x", uint16(desc.Vendor))),
		zap.String("product_id", fmt.Sprintf("0x%04x", uint16(desc.Product))),
		zap.String("dialect", candidate.Dialect),
		zap.Float64("confidence", confidence),
	)

	return candidate
}

// resolveDialect identifies the command set. ID pairs outrank the
// manufacturer string because the known pairs cover devices that report
// no strings.
func (s *Scanner) resolveDialect(device *gousb.Device, desc *gousb.DeviceDesc) (escpos.Dialect, float64) {
	if dialect, ok := escpos.DialectFromIDs(uint16(desc.Vendor), uint16(desc.Product)); ok {
		return dialect, 0.95
	}

	manufacturer := s.stringDescriptor(device.Manufacturer)
	if dialect := escpos.DialectFromVendor(manufacturer); dialect != escpos.Unknown {
		return dialect, 0.9
	}

	return escpos.Unknown, 0
}

// stringDescriptor reads one descriptor, treating absence as empty.
func (s *Scanner) stringDescriptor(read func() (string, error)) string {
	value, err := read()
	if err != nil {
		return ""
	}
	return value
}

// connectionConfig shapes the transport factory config for the device
func (s *Scanner) connectionConfig(desc *gousb.DeviceDesc) model.JSONObject {
	return model.JSONObject{
		"vendor_id":  fmt.Sprintf("0x%04x", uint16(desc.Vendor)),
		"product_id": fmt.Sprintf("0x%04x", uint16(desc.Product)),
		"endpoint":   1,
	}
}

// isPrinterClass reports whether the device claims the USB printer class
// on the device descriptor or any interface.
func isPrinterClass(desc *gousb.DeviceDesc) bool {
	if desc.Class == gousb.ClassPrinter {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

// closeAllDevices safely closes all opened USB devices
func (s *Scanner) closeAllDevices(devices []*gousb.Device) {
	for _, device := range devices {
		if device == nil {
			continue
		}
		if err := device.Close(); err != nil {
			s.logger.Warn("Failed to close USB device", zap.Error(err))
		}
	}
}

// postProcess deduplicates by vendor/product/serial and orders by
// confidence
func (s *Scanner) postProcess(candidates []*discovery.Candidate) []*discovery.Candidate {
	seen := make(map[string]bool)
	unique := []*discovery.Candidate{}

	for _, candidate := range candidates {
		key := fmt.Sprintf("%v:%v:%s",
			candidate.ConnectionConfig["vendor_id"],
			candidate.ConnectionConfig["product_id"],
			candidate.SerialNumber,
		)
		if seen[key] {
			s.logger.Debug("Removing duplicate candidate", zap.String("key", key))
			continue
		}
		seen[key] = true
		unique = append(unique, candidate)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Confidence > unique[j].Confidence
	})

	return unique
}
