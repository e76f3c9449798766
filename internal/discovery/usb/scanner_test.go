package usb

import (
	"testing"

	"github.com/google/gousb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printer-service/internal/discovery"
	"printer-service/internal/model"
)

func TestConnectionConfigShape(t *testing.T) {
	scanner := NewScanner(zap.NewNop(), nil)

	config := scanner.connectionConfig(&gousb.DeviceDesc{
		Vendor:  gousb.ID(0x154f),
		Product: gousb.ID(0x154f),
	})

	assert.Equal(t, "0x154f", config["vendor_id"])
	assert.Equal(t, "0x154f", config["product_id"])
	assert.Equal(t, 1, config["endpoint"])
}

func TestIsPrinterClass(t *testing.T) {
	assert.True(t, isPrinterClass(&gousb.DeviceDesc{Class: gousb.ClassPrinter}))

	assert.True(t, isPrinterClass(&gousb.DeviceDesc{
		Class: gousb.ClassPerInterface,
		Configs: map[int]gousb.ConfigDesc{
			1: {
				Interfaces: []gousb.InterfaceDesc{
					{AltSettings: []gousb.InterfaceSetting{{Class: gousb.ClassPrinter}}},
				},
			},
		},
	}))

	assert.False(t, isPrinterClass(&gousb.DeviceDesc{Class: gousb.ClassHID}))
}

func TestPostProcessDeduplicatesAndOrders(t *testing.T) {
	scanner := NewScanner(zap.NewNop(), nil)

	snbc := &discovery.Candidate{
		ConnectionType: model.ConnectionTypeUSB,
		ConnectionConfig: model.JSONObject{
			"vendor_id":  "0x154f",
			"product_id": "0x154f",
		},
		Dialect:    "snbc",
		Confidence: 0.95,
	}
	generic := &discovery.Candidate{
		ConnectionType: model.ConnectionTypeUSB,
		ConnectionConfig: model.JSONObject{
			"vendor_id":  "0x0dd4",
			"product_id": "0x0205",
		},
		Dialect:    "unknown",
		Confidence: 0.4,
	}

	processed := scanner.postProcess([]*discovery.Candidate{generic, snbc, snbc})

	require.Len(t, processed, 2)
	assert.Equal(t, "snbc", processed[0].Dialect)
	assert.Equal(t, "unknown", processed[1].Dialect)
}
