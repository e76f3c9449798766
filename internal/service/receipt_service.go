// internal/service/receipt_service.go
package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"printer-service/internal/model"
	"printer-service/pkg/escpos"
)

// DefaultReceiptWidth is the column count of font A on 80mm paper.
const DefaultReceiptWidth = 42

// ReceiptRenderer turns a receipt payload into printer commands. Money
// stays decimal all the way to the formatted string; nothing is ever
// summed as a float.
type ReceiptRenderer struct {
	width int
}

// NewReceiptRenderer creates a renderer for the given paper width in
// columns
func NewReceiptRenderer(width int) *ReceiptRenderer {
	if width < 20 {
		width = DefaultReceiptWidth
	}
	return &ReceiptRenderer{width: width}
}

// Render prints the receipt through the printer, returning the bytes
// written. The chain is fail-fast, so a mid-receipt transport error
// stops the sequence at the failing command.
func (rr *ReceiptRenderer) Render(p *escpos.Printer, payload *model.ReceiptPayload) (int, error) {
	c := p.Chain().Init()

	if payload.StoreName != "" {
		c.Align("ct").Style("b").Println(payload.StoreName).Style("")
	}

	if len(payload.Header) > 0 {
		c.Align("ct")
		for _, line := range payload.Header {
			c.Println(line)
		}
	}

	if len(payload.Items) > 0 {
		c.Align("lt").HR(rr.width)
		for _, item := range payload.Items {
			for _, line := range rr.itemLines(&item) {
				c.Println(line)
			}
		}
		c.HR(rr.width)
		c.Style("b").Println(rr.padLine("TOTAL", payload.Total().StringFixed(2))).Style("")
	}

	if len(payload.Footer) > 0 {
		c.Align("ct")
		for _, line := range payload.Footer {
			c.Println(line)
		}
	}

	if payload.Barcode != "" {
		c.Align("ct").Feed(1).Barcode(payload.Barcode, escpos.BarcodeSpec{
			Width:     2,
			Height:    80,
			Font:      escpos.BarcodeFontStandard,
			HRI:       escpos.HRIBelow,
			Symbology: escpos.Code128,
		})
	}

	c.Align("lt").Feed(2)

	if payload.OpenDrawer {
		c.Cashdraw(2)
	}
	if payload.Cut {
		c.PartialCut()
	}

	return c.BytesWritten(), c.Err()
}

// itemLines formats one line item. The amount always fits on the first
// line; a quantity other than one gets a detail line underneath.
func (rr *ReceiptRenderer) itemLines(item *model.ReceiptItem) []string {
	lines := []string{rr.padLine(item.Name, item.Total().StringFixed(2))}

	if !item.Quantity.Equal(decimal.NewFromInt(1)) {
		detail := fmt.Sprintf("  %s x %s", item.Quantity.String(), item.UnitPrice.StringFixed(2))
		lines = append(lines, detail)
	}

	return lines
}

// padLine joins a left and right column with padding to the paper
// width, truncating the left column when the two collide. Widths count
// runes: every rune lands on one code page cell after encoding.
func (rr *ReceiptRenderer) padLine(left, right string) string {
	available := rr.width - len(right) - 1
	if available < 1 {
		return right
	}
	leftRunes := []rune(left)
	if len(leftRunes) > available {
		leftRunes = leftRunes[:available]
	}
	padding := rr.width - len(leftRunes) - len(right)
	return string(leftRunes) + strings.Repeat(" ", padding) + right
}
