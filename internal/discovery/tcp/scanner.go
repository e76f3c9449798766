// internal/discovery/tcp/scanner.go - TCP Probe Scanner Implementation
package tcp

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/discovery"
	"printer-service/internal/model"
)

// DefaultPort is the raw printing port probed when a target carries no
// explicit port.
const DefaultPort = 9100

// Scanner probes a configured list of hosts for an open raw printing
// port. There is no broadcast discovery for these printers, so the
// target list comes from the scan request or service configuration.
type Scanner struct {
	logger *zap.Logger
	config *Config
}

// Config for TCP scanner
type Config struct {
	// Targets are host or host:port entries to probe.
	Targets     []string      `json:"targets"`
	ConnTimeout time.Duration `json:"connection_timeout"`
}

// NewScanner creates a new TCP scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{}
	}
	if config.ConnTimeout <= 0 {
		config.ConnTimeout = 2 * time.Second
	}

	return &Scanner{
		logger: logger.With(zap.String("scanner", "tcp")),
		config: config,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "tcp"
}

// IsAvailable reports whether there is anything to probe
func (s *Scanner) IsAvailable() bool {
	return len(s.config.Targets) > 0
}

// Scan connects to each target and reports the ones that accept
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.Candidate, error) {
	s.logger.Info("Starting TCP probe", zap.Int("target_count", len(s.config.Targets)))

	dialer := &net.Dialer{Timeout: s.config.ConnTimeout}
	candidates := []*discovery.Candidate{}

	for _, target := range s.config.Targets {
		select {
		case <-ctx.Done():
			return candidates, ctx.Err()
		default:
		}

		host, port, err := splitTarget(target)
		if err != nil {
			s.logger.Warn("Skipping malformed target", zap.String("target", target), zap.Error(err))
			continue
		}

		addr := net.JoinHostPort(host, strconv.Itoa(port))
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			s.logger.Debug("Target not reachable", zap.String("addr", addr), zap.Error(err))
			continue
		}
		conn.Close()

		candidates = append(candidates, &discovery.Candidate{
			ConnectionType: model.ConnectionTypeTCP,
			ConnectionConfig: model.JSONObject{
				"host": host,
				"port": port,
			},
			Dialect:    "unknown",
			Location:   addr,
			Confidence: 0.5,
		})
	}

	s.logger.Info("TCP probe completed", zap.Int("candidates_found", len(candidates)))
	return candidates, nil
}

// splitTarget accepts "host" or "host:port" entries
func splitTarget(target string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return target, DefaultPort, nil
	}
	if host == "" {
		return "", 0, fmt.Errorf("target %q has no host", target)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("target %q has an invalid port", target)
	}

	return host, port, nil
}
