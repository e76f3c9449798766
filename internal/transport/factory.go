// internal/transport/factory.go
package transport

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/pkg/escpos"
)

var validBaudRates = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

// New creates a transport for the given connection type from a stored
// connection configuration.
func New(connectionType model.ConnectionType, config model.JSONObject, logger *zap.Logger) (Transport, error) {
	switch connectionType {
	case model.ConnectionTypeSerial:
		return newSerialFromConfig(config, logger)
	case model.ConnectionTypeUSB:
		return newUSBFromConfig(config, logger)
	case model.ConnectionTypeTCP:
		return newTCPFromConfig(config, logger)
	default:
		return nil, fmt.Errorf("unsupported connection type: %s", connectionType)
	}
}

// Validate checks a stored connection configuration without opening
// anything. Used when registering a printer.
func Validate(connectionType model.ConnectionType, config model.JSONObject) error {
	switch connectionType {
	case model.ConnectionTypeSerial:
		return validateSerialConfig(config)
	case model.ConnectionTypeUSB:
		return validateUSBConfig(config)
	case model.ConnectionTypeTCP:
		return validateTCPConfig(config)
	default:
		return fmt.Errorf("unsupported connection type: %s", connectionType)
	}
}

func newSerialFromConfig(config model.JSONObject, logger *zap.Logger) (Transport, error) {
	serialConfig := &SerialConfig{
		BaudRate:    9600,
		DataBits:    8,
		StopBits:    1,
		Parity:      "none",
		ReadTimeout: escpos.DefaultTimeout,
	}

	port, ok := stringValue(config, "port")
	if !ok {
		return nil, fmt.Errorf("serial port is required")
	}
	serialConfig.Port = port

	if v, ok := intValue(config, "baud_rate"); ok {
		serialConfig.BaudRate = v
	}
	if v, ok := intValue(config, "data_bits"); ok {
		serialConfig.DataBits = v
	}
	if v, ok := intValue(config, "stop_bits"); ok {
		serialConfig.StopBits = v
	}
	if v, ok := stringValue(config, "parity"); ok {
		serialConfig.Parity = v
	}
	if v, ok := durationValue(config, "read_timeout"); ok {
		serialConfig.ReadTimeout = v
	}

	logger.Info("Creating serial transport",
		zap.String("port", serialConfig.Port),
		zap.Int("baud_rate", serialConfig.BaudRate),
	)

	return NewSerial(serialConfig, logger), nil
}

func newUSBFromConfig(config model.JSONObject, logger *zap.Logger) (Transport, error) {
	usbConfig := &USBConfig{
		Endpoint:    1,
		ReadTimeout: escpos.DefaultTimeout,
	}

	vendorID, ok := stringValue(config, "vendor_id")
	if !ok {
		return nil, fmt.Errorf("USB vendor_id is required")
	}
	usbConfig.VendorID = vendorID

	productID, ok := stringValue(config, "product_id")
	if !ok {
		return nil, fmt.Errorf("USB product_id is required")
	}
	usbConfig.ProductID = productID

	if v, ok := intValue(config, "endpoint"); ok {
		usbConfig.Endpoint = v
	}
	if v, ok := durationValue(config, "read_timeout"); ok {
		usbConfig.ReadTimeout = v
	}

	logger.Info("Creating USB transport",
		zap.String("vendor_id", usbConfig.VendorID),
		zap.String("product_id", usbConfig.ProductID),
		zap.Int("endpoint", usbConfig.Endpoint),
	)

	return NewUSB(usbConfig, logger), nil
}

func newTCPFromConfig(config model.JSONObject, logger *zap.Logger) (Transport, error) {
	tcpConfig := &TCPConfig{
		Port:         9100, // Default raw printing port
		SSL:          false,
		KeepAlive:    true,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  escpos.DefaultTimeout,
		WriteTimeout: 10 * time.Second,
	}

	host, ok := stringValue(config, "host")
	if !ok {
		return nil, fmt.Errorf("TCP host is required")
	}
	tcpConfig.Host = host

	if v, ok := intValue(config, "port"); ok {
		tcpConfig.Port = v
	}
	if v, ok := boolValue(config, "ssl"); ok {
		tcpConfig.SSL = v
	}
	if v, ok := boolValue(config, "keep_alive"); ok {
		tcpConfig.KeepAlive = v
	}
	if v, ok := durationValue(config, "dial_timeout"); ok {
		tcpConfig.DialTimeout = v
	}
	if v, ok := durationValue(config, "read_timeout"); ok {
		tcpConfig.ReadTimeout = v
	}
	if v, ok := durationValue(config, "write_timeout"); ok {
		tcpConfig.WriteTimeout = v
	}

	logger.Info("Creating TCP transport",
		zap.String("host", tcpConfig.Host),
		zap.Int("port", tcpConfig.Port),
		zap.Bool("ssl", tcpConfig.SSL),
	)

	return NewTCP(tcpConfig, logger), nil
}

func validateSerialConfig(config model.JSONObject) error {
	if _, ok := stringValue(config, "port"); !ok {
		return fmt.Errorf("serial port is required")
	}

	if rate, ok := intValue(config, "baud_rate"); ok {
		valid := false
		for _, validRate := range validBaudRates {
			if rate == validRate {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid baud rate: %d", rate)
		}
	}

	return nil
}

func validateUSBConfig(config model.JSONObject) error {
	vendorID, ok := stringValue(config, "vendor_id")
	if !ok {
		return fmt.Errorf("USB vendor_id is required")
	}
	if _, err := ParseHexID(vendorID); err != nil {
		return fmt.Errorf("invalid USB vendor_id: %w", err)
	}

	productID, ok := stringValue(config, "product_id")
	if !ok {
		return fmt.Errorf("USB product_id is required")
	}
	if _, err := ParseHexID(productID); err != nil {
		return fmt.Errorf("invalid USB product_id: %w", err)
	}

	return nil
}

func validateTCPConfig(config model.JSONObject) error {
	if _, ok := stringValue(config, "host"); !ok {
		return fmt.Errorf("TCP host is required")
	}

	if port, ok := intValue(config, "port"); ok {
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d", port)
		}
	}

	return nil
}

// Config value helpers. Values arrive either from JSON decoding, where
// numbers are float64, or from Go callers, where they are int.

func stringValue(config model.JSONObject, key string) (string, bool) {
	v, ok := config[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func intValue(config model.JSONObject, key string) (int, bool) {
	switch v := config[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func boolValue(config model.JSONObject, key string) (bool, bool) {
	v, ok := config[key].(bool)
	return v, ok
}

func durationValue(config model.JSONObject, key string) (time.Duration, bool) {
	s, ok := config[key].(string)
	if !ok {
		return 0, false
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return dur, true
}
