// internal/transport/usb.go
package transport

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/pkg/escpos"
)

// USB implements Transport for USB-attached printers
type USB struct {
	config   *USBConfig
	usbCtx   *gousb.Context
	device   *gousb.Device
	intf     *gousb.Interface
	intfDone func()
	outEndpt *gousb.OutEndpoint
	inEndpt  *gousb.InEndpoint
	logger   *zap.Logger
	mutex    sync.RWMutex
	isOpen   bool
	stats    *Stats
}

// NewUSB creates a USB transport
func NewUSB(config *USBConfig, logger *zap.Logger) *USB {
	return &USB{
		config: config,
		logger: logger.With(
			zap.String("transport", "usb"),
			zap.String("vendor_id", config.VendorID),
			zap.String("product_id", config.ProductID),
		),
		stats: &Stats{
			IsConnected: false,
		},
	}
}

// Open claims the printer's USB interface and endpoints
func (u *USB) Open() error {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if u.isOpen {
		return nil
	}

	u.logger.Info("Opening USB connection",
		zap.String("vendor_id", u.config.VendorID),
		zap.String("product_id", u.config.ProductID),
		zap.Int("endpoint", u.config.Endpoint),
	)

	vendorID, err := ParseHexID(u.config.VendorID)
	if err != nil {
		return fmt.Errorf("invalid vendor ID: %w", err)
	}

	productID, err := ParseHexID(u.config.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product ID: %w", err)
	}

	u.usbCtx = gousb.NewContext()

	device, err := u.findAndOpenDevice(vendorID, productID)
	if err != nil {
		u.usbCtx.Close()
		u.usbCtx = nil
		return fmt.Errorf("failed to find USB device: %w", err)
	}

	// Detach any kernel driver that already claimed the printer.
	if err := device.SetAutoDetach(true); err != nil {
		u.logger.Warn("Failed to enable kernel driver auto-detach", zap.Error(err))
	}

	intf, done, err := device.DefaultInterface()
	if err != nil {
		device.Close()
		u.usbCtx.Close()
		u.usbCtx = nil
		return fmt.Errorf("failed to claim interface: %w", err)
	}

	outEndpt, err := intf.OutEndpoint(u.config.Endpoint)
	if err != nil {
		done()
		device.Close()
		u.usbCtx.Close()
		u.usbCtx = nil
		return fmt.Errorf("failed to get out endpoint: %w", err)
	}

	inEndpt, err := intf.InEndpoint(u.config.Endpoint)
	if err != nil {
		// Some printers expose no in endpoint; status reads will fail.
		u.logger.Warn("No in endpoint found", zap.Error(err))
	}

	u.device = device
	u.intf = intf
	u.intfDone = done
	u.outEndpt = outEndpt
	u.inEndpt = inEndpt
	u.isOpen = true
	u.stats.IsConnected = true
	u.stats.LastActivity = time.Now()

	u.logger.Info("USB connection opened successfully")
	return nil
}

// Close releases the interface and closes the device
func (u *USB) Close() error {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if !u.isOpen {
		return nil
	}

	if u.intfDone != nil {
		u.intfDone()
		u.intfDone = nil
	}
	u.intf = nil

	if u.device != nil {
		u.device.Close()
		u.device = nil
	}

	if u.usbCtx != nil {
		u.usbCtx.Close()
		u.usbCtx = nil
	}

	u.outEndpt = nil
	u.inEndpt = nil
	u.isOpen = false
	u.stats.IsConnected = false

	u.logger.Info("USB connection closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (u *USB) IsOpen() bool {
	u.mutex.RLock()
	defer u.mutex.RUnlock()
	return u.isOpen && u.device != nil && u.outEndpt != nil
}

// Write writes data to the out endpoint
func (u *USB) Write(data []byte) (int, error) {
	u.mutex.RLock()
	defer u.mutex.RUnlock()

	if !u.isOpen || u.outEndpt == nil {
		return 0, fmt.Errorf("usb connection not open")
	}

	startTime := time.Now()
	n, err := u.outEndpt.Write(data)
	if err != nil {
		u.stats.ErrorCount++
		u.logger.Error("USB write failed", zap.Error(err))
		return n, fmt.Errorf("failed to write to USB device: %w", err)
	}

	if n != len(data) {
		u.stats.ErrorCount++
		return n, fmt.Errorf("incomplete write: wrote %d of %d bytes: %w", n, len(data), escpos.ErrTimeout)
	}

	duration := time.Since(startTime)
	u.stats.BytesWritten += int64(n)
	u.stats.OperationCount++
	u.stats.LastActivity = time.Now()
	updateAverageLatency(u.stats, duration)

	u.logger.Debug("USB write completed", zap.Int("bytes", n))
	return n, nil
}

// Read fills buf from the in endpoint, waiting at most the configured
// read timeout for the device to answer.
func (u *USB) Read(buf []byte) (int, error) {
	u.mutex.RLock()
	defer u.mutex.RUnlock()

	if !u.isOpen || u.inEndpt == nil {
		return 0, fmt.Errorf("usb connection not open or no in endpoint")
	}

	ctx, cancel := context.WithTimeout(context.Background(), u.config.ReadTimeout)
	defer cancel()

	n, err := u.inEndpt.ReadContext(ctx, buf)
	if err != nil {
		u.stats.ErrorCount++
		if ctx.Err() != nil {
			return n, escpos.ErrTimeout
		}
		return n, fmt.Errorf("failed to read from USB device: %w", err)
	}

	u.stats.BytesRead += int64(n)
	u.stats.OperationCount++
	u.stats.LastActivity = time.Now()

	return n, nil
}

// Type returns the transport type
func (u *USB) Type() model.ConnectionType {
	return model.ConnectionTypeUSB
}

// Stats returns a snapshot of the transport statistics
func (u *USB) Stats() Stats {
	u.mutex.RLock()
	defer u.mutex.RUnlock()
	return *u.stats
}

// ParseHexID parses a USB vendor or product ID written as 0x1234 or 1234
func ParseHexID(hexStr string) (gousb.ID, error) {
	hexStr = strings.TrimPrefix(hexStr, "0x")

	id, err := strconv.ParseUint(hexStr, 16, 16)
	if err != nil {
		return 0, err
	}

	return gousb.ID(id), nil
}

// findAndOpenDevice opens the first device matching the configured IDs
func (u *USB) findAndOpenDevice(vendorID, productID gousb.ID) (*gousb.Device, error) {
	devices, err := u.usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorID && desc.Product == productID
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("USB device not found (VID: %04X, PID: %04X)", uint16(vendorID), uint16(productID))
	}

	if len(devices) > 1 {
		for i := 1; i < len(devices); i++ {
			devices[i].Close()
		}
		u.logger.Warn("Multiple matching USB devices found, using first one")
	}

	return devices[0], nil
}
