// Package escpos builds vendor-specific ESC/POS command sequences for
// receipt printers and decodes their raw status replies.
//
// The package speaks three printer dialects (SNBC BTP-R880NPV, Custom
// Engineering P3, TransAct Epic 880) behind a single Printer session that
// writes directly to a byte Transport. Device discovery, the transport
// itself, character encoding and image rasterization are collaborators
// supplied by the caller.
package escpos

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultTimeout bounds a single transport transfer. Transports created
// without an explicit timeout should use this value.
const DefaultTimeout = 400 * time.Millisecond

// Transport is the byte channel to a physical printer. Write must return
// ErrTimeout when fewer bytes than len(p) were accepted; a short transfer
// is never a valid partial result. Read blocks up to the transport's
// configured timeout.
type Transport interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	Close() error
}

// TextEncoder converts UTF-8 text into the byte encoding a printer's
// character table expects.
type TextEncoder interface {
	Encode(content string) ([]byte, error)
}

// Bitmap is a packed monochrome image. Raster returns the row-major
// 1-bit-per-pixel buffer used by raster mode; Bands slices the image into
// column-major band payloads of the given dot height (8 or 24) for
// bit-image mode. The printer session only reads bitmaps.
type Bitmap interface {
	Width() int
	Height() int
	Raster() []byte
	Bands(dots int) [][]byte
}

// utf8Encoder is the default TextEncoder: UTF-8 passthrough with invalid
// sequences replaced, mirroring a lossy encoder trap.
type utf8Encoder struct{}

func (utf8Encoder) Encode(content string) ([]byte, error) {
	return []byte(strings.ToValidUTF8(content, string(utf8.RuneError))), nil
}
