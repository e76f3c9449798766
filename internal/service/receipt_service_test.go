// internal/service/receipt_service_test.go
package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printer-service/internal/model"
	"printer-service/pkg/escpos"
)

func renderTo(t *testing.T, payload *model.ReceiptPayload) (int, []byte) {
	t.Helper()
	tr := &fakeTransport{}
	require.NoError(t, tr.Open())
	p := escpos.NewPrinter(tr, escpos.SNBC)

	n, err := NewReceiptRenderer(DefaultReceiptWidth).Render(p, payload)
	require.NoError(t, err)
	return n, tr.written()
}

func TestRenderReceipt(t *testing.T) {
	n, written := renderTo(t, receiptPayload())
	assert.Equal(t, len(written), n)

	out := string(written)
	assert.Contains(t, out, "CORNER CAFE")
	assert.Contains(t, out, "123 Main St")
	assert.Contains(t, out, "Thank you!")

	// Items right-align their totals on the 42-column grid
	assert.Contains(t, out, "Coffee"+strings.Repeat(" ", 42-len("Coffee")-len("7.00"))+"7.00")
	assert.Contains(t, out, "  2 x 3.50")
	assert.Contains(t, out, "Bagel"+strings.Repeat(" ", 42-len("Bagel")-len("2.25"))+"2.25")
	assert.Contains(t, out, "TOTAL"+strings.Repeat(" ", 42-len("TOTAL")-len("9.25"))+"9.25")

	// Separator rules span the paper width
	assert.Contains(t, out, strings.Repeat("\xc4", 42))

	// Single-quantity items carry no detail line
	assert.NotContains(t, out, "1 x 2.25")

	assert.True(t, bytes.HasSuffix(written, []byte{0x0a, 0x0a, 0x0a, 0x1d, 0x56, 0x01}))
}

func TestRenderReceiptDrawerAndBarcode(t *testing.T) {
	payload := receiptPayload()
	payload.Cut = false
	payload.OpenDrawer = true
	payload.Barcode = "RCPT-0042"

	_, written := renderTo(t, payload)
	out := string(written)

	assert.Contains(t, out, "RCPT-0042")
	assert.Contains(t, out, string([]byte{0x1b, 0x70, 0x00, 0x19, 0x19}))
	assert.False(t, bytes.HasSuffix(written, []byte{0x1d, 0x56, 0x01}))
}

func TestRenderMinimalReceipt(t *testing.T) {
	n, written := renderTo(t, &model.ReceiptPayload{StoreName: "KIOSK"})

	assert.Greater(t, n, 0)
	out := string(written)
	assert.Contains(t, out, "KIOSK")
	assert.NotContains(t, out, "TOTAL")
	assert.NotContains(t, out, "\xc4")
}

func TestReceiptTotal(t *testing.T) {
	payload := receiptPayload()
	assert.Equal(t, "9.25", payload.Total().StringFixed(2))

	// Decimal math keeps cents exact where floats would drift
	payload.Items = []model.ReceiptItem{
		{Name: "A", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("0.10")},
	}
	assert.Equal(t, "0.30", payload.Total().StringFixed(2))
}

func TestPadLine(t *testing.T) {
	rr := NewReceiptRenderer(20)

	tests := []struct {
		name  string
		left  string
		right string
		want  string
	}{
		{"short", "Coffee", "7.00", "Coffee          7.00"},
		{"fills width", "0123456789012345", "9.99", "012345678901234 9.99"},
		{"truncates long left", "a very long item name", "9.99", "a very long ite 9.99"},
		{"right crowds out left", "x", strings.Repeat("9", 19), strings.Repeat("9", 19)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rr.padLine(tt.left, tt.right)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), 20)
		})
	}
}

func TestPadLineCountsRunes(t *testing.T) {
	rr := NewReceiptRenderer(20)

	got := rr.padLine("Čaj zelený", "2.50")
	assert.Equal(t, 20, len([]rune(got)))
	assert.True(t, strings.HasPrefix(got, "Čaj zelený"))
	assert.True(t, strings.HasSuffix(got, "2.50"))
}

func TestNewReceiptRendererWidthFloor(t *testing.T) {
	assert.Equal(t, DefaultReceiptWidth, NewReceiptRenderer(0).width)
	assert.Equal(t, DefaultReceiptWidth, NewReceiptRenderer(19).width)
	assert.Equal(t, 32, NewReceiptRenderer(32).width)
}
