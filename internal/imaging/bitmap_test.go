package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printer-service/pkg/escpos"
)

var _ escpos.Bitmap = (*Bitmap)(nil)

func TestNew(t *testing.T) {
	b := New(10, 3)

	assert.Equal(t, 10, b.Width())
	assert.Equal(t, 3, b.Height())
	assert.Equal(t, 2, b.Stride())
	assert.Len(t, b.Raster(), 6)
}

func TestSetPixelPacking(t *testing.T) {
	b := New(10, 2)

	b.SetPixel(0, 0, true)
	b.SetPixel(9, 0, true)
	b.SetPixel(3, 1, true)

	raster := b.Raster()
	assert.Equal(t, byte(0x80), raster[0])
	assert.Equal(t, byte(0x40), raster[1]) // x=9 is bit 1 of the second byte
	assert.Equal(t, byte(0x10), raster[2])

	assert.True(t, b.Pixel(0, 0))
	assert.True(t, b.Pixel(9, 0))
	assert.False(t, b.Pixel(1, 0))

	b.SetPixel(0, 0, false)
	assert.False(t, b.Pixel(0, 0))
}

func TestPixelOutOfRange(t *testing.T) {
	b := New(4, 4)

	b.SetPixel(-1, 0, true)
	b.SetPixel(0, 17, true)

	assert.False(t, b.Pixel(-1, 0))
	assert.False(t, b.Pixel(0, 17))
	for _, v := range b.Raster() {
		assert.Zero(t, v)
	}
}

func TestBandsSplitsHeight(t *testing.T) {
	// 30 rows at 24-dot bands: one full band, one 6-row remainder.
	b := New(2, 30)

	bands := b.Bands(24)

	require.Len(t, bands, 2)
	assert.Len(t, bands[0], 2*3)
	assert.Len(t, bands[1], 2*3)
}

func TestBandsColumnMajorLayout(t *testing.T) {
	b := New(4, 8)
	b.SetPixel(2, 0, true)
	b.SetPixel(2, 7, true)

	bands := b.Bands(8)

	require.Len(t, bands, 1)
	// Column 2, single byte per column: top row is the high bit.
	assert.Equal(t, byte(0x81), bands[0][2])
	assert.Equal(t, byte(0x00), bands[0][0])
}

func TestBands24DotColumnBytes(t *testing.T) {
	b := New(1, 24)
	b.SetPixel(0, 0, true)  // first byte, high bit
	b.SetPixel(0, 8, true)  // second byte, high bit
	b.SetPixel(0, 23, true) // third byte, low bit

	bands := b.Bands(24)

	require.Len(t, bands, 1)
	assert.Equal(t, []byte{0x80, 0x80, 0x01}, bands[0])
}

func TestBandsPadsBelowImage(t *testing.T) {
	b := New(1, 30)
	b.SetPixel(0, 29, true)

	bands := b.Bands(24)

	require.Len(t, bands, 2)
	// Row 29 is row 5 of the second band: first column byte, bit 5.
	assert.Equal(t, []byte{0x04, 0x00, 0x00}, bands[1])
}

func TestFromImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(0, 0, color.Gray{Y: 0})   // black
	img.SetGray(1, 0, color.Gray{Y: 255}) // white
	img.SetGray(0, 1, color.Gray{Y: 100}) // dark gray
	img.SetGray(1, 1, color.Gray{Y: 200}) // light gray

	b := FromImage(img, DefaultThreshold)

	assert.True(t, b.Pixel(0, 0))
	assert.False(t, b.Pixel(1, 0))
	assert.True(t, b.Pixel(0, 1))
	assert.False(t, b.Pixel(1, 1))
}

func TestFromImageRespectsBoundsOffset(t *testing.T) {
	img := image.NewGray(image.Rect(5, 5, 7, 6))
	img.SetGray(5, 5, color.Gray{Y: 0})
	img.SetGray(6, 5, color.Gray{Y: 255})

	b := FromImage(img, DefaultThreshold)

	assert.Equal(t, 2, b.Width())
	assert.Equal(t, 1, b.Height())
	assert.True(t, b.Pixel(0, 0))
	assert.False(t, b.Pixel(1, 0))
}
