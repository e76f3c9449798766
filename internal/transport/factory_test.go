// internal/transport/factory_test.go
package transport

import (
	"testing"
	"time"

	"github.com/google/gousb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/pkg/escpos"
)

func TestNewSerialTransportDefaults(t *testing.T) {
	tr, err := New(model.ConnectionTypeSerial, model.JSONObject{"port": "/dev/ttyUSB0"}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, model.ConnectionTypeSerial, tr.Type())

	serial, ok := tr.(*Serial)
	require.True(t, ok)
	assert.Equal(t, "/dev/ttyUSB0", serial.config.Port)
	assert.Equal(t, 9600, serial.config.BaudRate)
	assert.Equal(t, 8, serial.config.DataBits)
	assert.Equal(t, 1, serial.config.StopBits)
	assert.Equal(t, "none", serial.config.Parity)
	assert.Equal(t, escpos.DefaultTimeout, serial.config.ReadTimeout)
}

func TestNewSerialTransportOverrides(t *testing.T) {
	// Numbers decoded from JSONB arrive as float64.
	config := model.JSONObject{
		"port":         "/dev/ttyS1",
		"baud_rate":    float64(115200),
		"stop_bits":    float64(2),
		"parity":       "even",
		"read_timeout": "250ms",
	}

	tr, err := New(model.ConnectionTypeSerial, config, zap.NewNop())
	require.NoError(t, err)

	serial := tr.(*Serial)
	assert.Equal(t, 115200, serial.config.BaudRate)
	assert.Equal(t, 2, serial.config.StopBits)
	assert.Equal(t, "even", serial.config.Parity)
	assert.Equal(t, 250*time.Millisecond, serial.config.ReadTimeout)
}

func TestNewSerialTransportMissingPort(t *testing.T) {
	_, err := New(model.ConnectionTypeSerial, model.JSONObject{}, zap.NewNop())
	assert.ErrorContains(t, err, "port is required")
}

func TestNewUSBTransportDefaults(t *testing.T) {
	config := model.JSONObject{"vendor_id": "0x154f", "product_id": "0x1105"}

	tr, err := New(model.ConnectionTypeUSB, config, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, model.ConnectionTypeUSB, tr.Type())

	usb := tr.(*USB)
	assert.Equal(t, "0x154f", usb.config.VendorID)
	assert.Equal(t, 1, usb.config.Endpoint)
	assert.Equal(t, escpos.DefaultTimeout, usb.config.ReadTimeout)
}

func TestNewUSBTransportMissingIDs(t *testing.T) {
	_, err := New(model.ConnectionTypeUSB, model.JSONObject{"product_id": "0x1105"}, zap.NewNop())
	assert.ErrorContains(t, err, "vendor_id is required")

	_, err = New(model.ConnectionTypeUSB, model.JSONObject{"vendor_id": "0x154f"}, zap.NewNop())
	assert.ErrorContains(t, err, "product_id is required")
}

func TestNewTCPTransportDefaults(t *testing.T) {
	tr, err := New(model.ConnectionTypeTCP, model.JSONObject{"host": "10.0.0.12"}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, model.ConnectionTypeTCP, tr.Type())

	tcp := tr.(*TCP)
	assert.Equal(t, "10.0.0.12", tcp.config.Host)
	assert.Equal(t, 9100, tcp.config.Port)
	assert.False(t, tcp.config.SSL)
	assert.True(t, tcp.config.KeepAlive)
	assert.Equal(t, escpos.DefaultTimeout, tcp.config.ReadTimeout)
}

func TestNewTCPTransportMissingHost(t *testing.T) {
	_, err := New(model.ConnectionTypeTCP, model.JSONObject{"port": float64(9100)}, zap.NewNop())
	assert.ErrorContains(t, err, "host is required")
}

func TestNewUnsupportedConnectionType(t *testing.T) {
	_, err := New(model.ConnectionType("BLUETOOTH"), model.JSONObject{}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported connection type")
}

func TestValidateSerialConfig(t *testing.T) {
	err := Validate(model.ConnectionTypeSerial, model.JSONObject{"port": "/dev/ttyUSB0", "baud_rate": float64(19200)})
	assert.NoError(t, err)

	err = Validate(model.ConnectionTypeSerial, model.JSONObject{"port": "/dev/ttyUSB0", "baud_rate": float64(12345)})
	assert.ErrorContains(t, err, "invalid baud rate")

	err = Validate(model.ConnectionTypeSerial, model.JSONObject{})
	assert.ErrorContains(t, err, "port is required")
}

func TestValidateUSBConfig(t *testing.T) {
	err := Validate(model.ConnectionTypeUSB, model.JSONObject{"vendor_id": "0x154f", "product_id": "1105"})
	assert.NoError(t, err)

	err = Validate(model.ConnectionTypeUSB, model.JSONObject{"vendor_id": "printer", "product_id": "0x1105"})
	assert.ErrorContains(t, err, "invalid USB vendor_id")
}

func TestValidateTCPConfig(t *testing.T) {
	err := Validate(model.ConnectionTypeTCP, model.JSONObject{"host": "10.0.0.12", "port": float64(9100)})
	assert.NoError(t, err)

	err = Validate(model.ConnectionTypeTCP, model.JSONObject{"host": "10.0.0.12", "port": float64(70000)})
	assert.ErrorContains(t, err, "invalid port number")
}

func TestParseHexID(t *testing.T) {
	tests := []struct {
		input   string
		want    gousb.ID
		wantErr bool
	}{
		{"0x154f", gousb.ID(0x154f), false},
		{"154f", gousb.ID(0x154f), false},
		{"0dd4", gousb.ID(0x0dd4), false},
		{"printer", 0, true},
		{"0x123456", 0, true},
	}

	for _, tc := range tests {
		id, err := ParseHexID(tc.input)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.input)
		} else {
			require.NoError(t, err, "input %q", tc.input)
			assert.Equal(t, tc.want, id)
		}
	}
}

func TestUpdateAverageLatency(t *testing.T) {
	stats := &Stats{}

	updateAverageLatency(stats, 100*time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, stats.AverageLatency)

	updateAverageLatency(stats, 50*time.Millisecond)
	assert.Equal(t, 75*time.Millisecond, stats.AverageLatency)
}
