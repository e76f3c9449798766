// internal/discovery/serial/scanner.go - Serial Scanner Implementation
package serial

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"printer-service/internal/discovery"
	"printer-service/internal/model"
)

// Scanner lists serial ports that could carry a printer. Ports are
// reported with the unknown dialect and low confidence: identifying the
// command set would mean writing probe bytes to a device that may not
// be a printer at all, so resolution is left to registration.
type Scanner struct {
	logger *zap.Logger
	config *Config
}

// Config for serial scanner
type Config struct {
	PortPatterns []string `json:"port_patterns"`
}

// NewScanner creates a new serial scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{
			PortPatterns: defaultPortPatterns(),
		}
	}

	return &Scanner{
		logger: logger.With(zap.String("scanner", "serial")),
		config: config,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "serial"
}

// IsAvailable checks if serial scanning is available
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan lists and filters the serial ports on this host
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.Candidate, error) {
	s.logger.Info("Starting serial port scan")

	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	if len(ports) == 0 {
		s.logger.Info("No serial ports found")
		return []*discovery.Candidate{}, nil
	}

	s.logger.Debug("Found serial ports", zap.Strings("ports", ports))

	candidates := []*discovery.Candidate{}
	for _, port := range s.filterPorts(ports) {
		select {
		case <-ctx.Done():
			return candidates, ctx.Err()
		default:
		}

		candidates = append(candidates, &discovery.Candidate{
			ConnectionType: model.ConnectionTypeSerial,
			ConnectionConfig: model.JSONObject{
				"port":      port,
				"baud_rate": 9600,
			},
			Dialect:    "unknown",
			Location:   port,
			Confidence: 0.3,
		})
	}

	s.logger.Info("Serial scan completed", zap.Int("candidates_found", len(candidates)))
	return candidates, nil
}

// filterPorts keeps ports matching the configured name patterns
func (s *Scanner) filterPorts(ports []string) []string {
	if len(s.config.PortPatterns) == 0 {
		return ports
	}

	var filtered []string
	for _, port := range ports {
		for _, pattern := range s.config.PortPatterns {
			if strings.HasPrefix(port, pattern) {
				filtered = append(filtered, port)
				break
			}
		}
	}
	return filtered
}

// defaultPortPatterns returns the port name prefixes printers show up
// under per platform
func defaultPortPatterns() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"COM"}
	case "darwin":
		return []string{"/dev/cu."}
	default:
		return []string{"/dev/ttyUSB", "/dev/ttyACM", "/dev/ttyS"}
	}
}
