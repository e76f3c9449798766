// internal/service/printer_service_test.go
package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printer-service/internal/model"
	"printer-service/pkg/escpos"
)

func TestRegisterPrinter(t *testing.T) {
	rig := newTestRig()

	printer, err := rig.printers.RegisterPrinter(context.Background(), &RegisterPrinterRequest{
		Name:             "front-desk",
		Dialect:          "SNBC",
		ConnectionType:   model.ConnectionTypeUSB,
		ConnectionConfig: usbConnectionConfig(),
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, printer.ID)
	assert.Equal(t, "snbc", printer.Dialect)
	assert.Equal(t, "cp437", printer.Encoding)
	assert.Equal(t, model.PrinterStatusOffline, printer.Status)

	stored, err := rig.printerRepo.GetByID(context.Background(), printer.ID)
	require.NoError(t, err)
	assert.Equal(t, "front-desk", stored.Name)
}

func TestRegisterPrinterDuplicateName(t *testing.T) {
	rig := newTestRig()
	rig.addPrinter("front-desk", "snbc")

	_, err := rig.printers.RegisterPrinter(context.Background(), &RegisterPrinterRequest{
		Name:             "front-desk",
		Dialect:          "snbc",
		ConnectionType:   model.ConnectionTypeUSB,
		ConnectionConfig: usbConnectionConfig(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRegisterPrinterValidation(t *testing.T) {
	rig := newTestRig()

	tests := []struct {
		name    string
		req     *RegisterPrinterRequest
		wantErr string
	}{
		{
			name:    "missing name",
			req:     &RegisterPrinterRequest{Dialect: "snbc", ConnectionType: model.ConnectionTypeUSB, ConnectionConfig: usbConnectionConfig()},
			wantErr: "name is required",
		},
		{
			name:    "missing dialect",
			req:     &RegisterPrinterRequest{Name: "p", ConnectionType: model.ConnectionTypeUSB, ConnectionConfig: usbConnectionConfig()},
			wantErr: "dialect is required",
		},
		{
			name:    "missing connection config",
			req:     &RegisterPrinterRequest{Name: "p", Dialect: "snbc", ConnectionType: model.ConnectionTypeUSB},
			wantErr: "connection_config is required",
		},
		{
			name: "bad usb ids",
			req: &RegisterPrinterRequest{
				Name: "p", Dialect: "snbc", ConnectionType: model.ConnectionTypeUSB,
				ConnectionConfig: model.JSONObject{"vendor_id": "xyz", "product_id": "0x154f"},
			},
			wantErr: "vendor_id",
		},
		{
			name: "bad encoding",
			req: &RegisterPrinterRequest{
				Name: "p", Dialect: "snbc", ConnectionType: model.ConnectionTypeUSB,
				ConnectionConfig: usbConnectionConfig(), Encoding: "ebcdic",
			},
			wantErr: "encoding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rig.printers.RegisterPrinter(context.Background(), tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConnectPrinter(t *testing.T) {
	rig := newTestRig()
	printer := rig.addPrinter("front-desk", "snbc")

	require.NoError(t, rig.printers.ConnectPrinter(context.Background(), printer.ID))

	session, open := rig.sessions.Get(printer.ID)
	require.True(t, open)
	assert.Equal(t, escpos.SNBC, session.Dialect())

	assert.Equal(t, model.PrinterStatusOnline, rig.printerRepo.status(printer.ID))
	assert.True(t, rig.events.has(model.EventPrinterConnected))

	// Initialize, enable and status back all reach the wire
	written := rig.transport.written()
	assert.Contains(t, string(written), string([]byte{0x1b, 0x40}))
	assert.Contains(t, string(written), string([]byte{0x1b, 0x3d, 0x01}))
	assert.Contains(t, string(written), string([]byte{0x1d, 0x61, 0x01}))
}

func TestConnectPrinterAlreadyConnected(t *testing.T) {
	rig := newTestRig()
	printer := rig.connect("front-desk", "snbc")

	err := rig.printers.ConnectPrinter(context.Background(), printer.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already connected")
}

func TestConnectPrinterTransportFailure(t *testing.T) {
	rig := newTestRig()
	printer := rig.addPrinter("front-desk", "snbc")
	rig.transport.openErr = errors.New("no such device")

	err := rig.printers.ConnectPrinter(context.Background(), printer.ID)
	require.Error(t, err)

	assert.Equal(t, model.PrinterStatusError, rig.printerRepo.status(printer.ID))
	assert.True(t, rig.events.has(model.EventPrinterError))

	_, open := rig.sessions.Get(printer.ID)
	assert.False(t, open)
}

func TestConnectPrinterInitFailure(t *testing.T) {
	rig := newTestRig()
	printer := rig.addPrinter("front-desk", "snbc")
	rig.transport.writeErr = escpos.ErrTimeout

	err := rig.printers.ConnectPrinter(context.Background(), printer.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, escpos.ErrTimeout)
	assert.True(t, rig.transport.closed)
}

func TestDisconnectPrinter(t *testing.T) {
	rig := newTestRig()
	printer := rig.connect("front-desk", "snbc")

	require.NoError(t, rig.printers.DisconnectPrinter(context.Background(), printer.ID))

	_, open := rig.sessions.Get(printer.ID)
	assert.False(t, open)
	assert.True(t, rig.transport.closed)
	assert.Equal(t, model.PrinterStatusOffline, rig.printerRepo.status(printer.ID))
	assert.True(t, rig.events.has(model.EventPrinterDisconnected))
}

func TestDisconnectPrinterNotConnected(t *testing.T) {
	rig := newTestRig()
	printer := rig.addPrinter("front-desk", "snbc")

	err := rig.printers.DisconnectPrinter(context.Background(), printer.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestQueryStatus(t *testing.T) {
	rig := newTestRig()
	printer := rig.connect("front-desk", "snbc")

	// Door open bit in byte 0
	reply := make([]byte, escpos.StatusReplyLen)
	reply[0] = 1 << 5
	rig.transport.queueRead(reply)

	result, err := rig.printers.QueryStatus(context.Background(), printer.ID)
	require.NoError(t, err)

	assert.Equal(t, printer.ID, result.PrinterID)
	assert.Contains(t, result.Flags, "door_open")
	assert.Contains(t, result.Flags, "online")
	assert.False(t, result.Healthy)

	require.Equal(t, 1, rig.statusRepo.count())
	entry, err := rig.statusRepo.Latest(context.Background(), printer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSourcePoll, entry.Source)
}

func TestQueryStatusHealthy(t *testing.T) {
	rig := newTestRig()
	printer := rig.connect("front-desk", "snbc")

	rig.transport.queueRead(make([]byte, escpos.StatusReplyLen))

	result, err := rig.printers.QueryStatus(context.Background(), printer.ID)
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	assert.Equal(t, []string{"online"}, result.Flags)
}

func TestQueryStatusCommunicationFailure(t *testing.T) {
	rig := newTestRig()
	printer := rig.connect("front-desk", "snbc")

	// No queued reply: the read times out
	result, err := rig.printers.QueryStatus(context.Background(), printer.ID)
	require.NoError(t, err)
	assert.Contains(t, result.Flags, "communication")
	assert.False(t, result.Healthy)
}

func TestQueryStatusNotConnected(t *testing.T) {
	rig := newTestRig()
	printer := rig.addPrinter("front-desk", "snbc")

	_, err := rig.printers.QueryStatus(context.Background(), printer.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestTestPrint(t *testing.T) {
	rig := newTestRig()
	printer := rig.connect("front-desk", "snbc")

	result, err := rig.printers.TestPrint(context.Background(), printer.ID)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Greater(t, result.BytesWritten, 0)
	assert.Contains(t, string(rig.transport.written()), "front-desk")
}

func TestUpdatePrinterConnectionWhileConnected(t *testing.T) {
	rig := newTestRig()
	printer := rig.connect("front-desk", "snbc")

	_, err := rig.printers.UpdatePrinter(context.Background(), printer.ID, &UpdatePrinterRequest{
		ConnectionConfig: model.JSONObject{"vendor_id": "0x04b8", "product_id": "0x0202"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "while printer")
}

func TestUpdatePrinterRename(t *testing.T) {
	rig := newTestRig()
	printer := rig.connect("front-desk", "snbc")

	name := "back-office"
	updated, err := rig.printers.UpdatePrinter(context.Background(), printer.ID, &UpdatePrinterRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "back-office", updated.Name)
}

func TestDeletePrinter(t *testing.T) {
	rig := newTestRig()
	printer := rig.addPrinter("front-desk", "snbc")

	require.NoError(t, rig.printers.DeletePrinter(context.Background(), printer.ID))

	_, err := rig.printerRepo.GetByID(context.Background(), printer.ID)
	require.Error(t, err)
}

func TestDeletePrinterWhileConnected(t *testing.T) {
	rig := newTestRig()
	printer := rig.connect("front-desk", "snbc")

	err := rig.printers.DeletePrinter(context.Background(), printer.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disconnect first")
}

func TestIsHealthy(t *testing.T) {
	assert.True(t, isHealthy(0))
	assert.True(t, isHealthy(escpos.StatusOnline))
	assert.True(t, isHealthy(escpos.StatusOnline|escpos.StatusPaperNearEnd))
	assert.False(t, isHealthy(escpos.StatusOffline))
	assert.False(t, isHealthy(escpos.StatusOnline|escpos.StatusDoorOpen))
	assert.False(t, isHealthy(escpos.StatusCommunication))
	assert.False(t, isHealthy(escpos.StatusOnline|escpos.StatusPaperEnd))
}
