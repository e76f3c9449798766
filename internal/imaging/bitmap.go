// Package imaging packs monochrome images into the 1-bit-per-pixel
// buffers receipt printers consume. A Bitmap serves both graphic paths:
// the row-major packed buffer for raster mode and column-major band
// payloads for banded bit-image mode.
package imaging

import (
	"image"
	"image/color"
)

const bitsPerWord = 8

// DefaultThreshold is the luminance cutoff below which a pixel prints
// black when converting from a grayscale or color image.
const DefaultThreshold = 128

// Bitmap is a packed monochrome image, one bit per pixel, rows padded
// to whole bytes. A set bit prints black.
type Bitmap struct {
	data   []byte
	width  int
	height int
	stride int
}

// New creates an all-white bitmap of the given dimensions.
func New(width, height int) *Bitmap {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	stride := (width + bitsPerWord - 1) / bitsPerWord
	return &Bitmap{
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
	}
}

// FromImage converts any image to a packed bitmap. Pixels whose
// luminance is below threshold print black; alpha is ignored.
func FromImage(img image.Image, threshold uint8) *Bitmap {
	bounds := img.Bounds()
	b := New(bounds.Dx(), bounds.Dy())
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			gray := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			if gray.Y < threshold {
				b.SetPixel(x, y, true)
			}
		}
	}
	return b
}

// Width returns the image width in pixels.
func (b *Bitmap) Width() int {
	return b.width
}

// Height returns the image height in pixels.
func (b *Bitmap) Height() int {
	return b.height
}

// Stride returns the packed row length in bytes.
func (b *Bitmap) Stride() int {
	return b.stride
}

// SetPixel sets or clears the pixel at (x, y). Out-of-range coordinates
// are ignored.
func (b *Bitmap) SetPixel(x, y int, on bool) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	index := y*b.stride + x/bitsPerWord
	mask := byte(0x80) >> (x % bitsPerWord)
	if on {
		b.data[index] |= mask
	} else {
		b.data[index] &^= mask
	}
}

// Pixel reports whether the pixel at (x, y) prints black.
// Out-of-range coordinates read white.
func (b *Bitmap) Pixel(x, y int) bool {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return false
	}
	return b.data[y*b.stride+x/bitsPerWord]&(0x80>>(x%bitsPerWord)) != 0
}

// Raster returns the row-major packed buffer, most significant bit
// leftmost, exactly as raster mode transmits it.
func (b *Bitmap) Raster() []byte {
	return b.data
}

// Bands slices the image into horizontal bands of the given dot height
// and repacks each band column-major for bit-image mode: per column,
// dots/8 vertical bytes with the most significant bit on top. The last
// band is zero-padded below the image edge.
func (b *Bitmap) Bands(dots int) [][]byte {
	if dots < bitsPerWord {
		dots = bitsPerWord
	}
	n := dots / bitsPerWord
	bands := make([][]byte, 0, (b.height+dots-1)/dots)
	for top := 0; top < b.height; top += dots {
		band := make([]byte, b.width*n)
		for x := 0; x < b.width; x++ {
			for k := 0; k < dots && top+k < b.height; k++ {
				if b.Pixel(x, top+k) {
					band[x*n+k/bitsPerWord] |= 0x80 >> (k % bitsPerWord)
				}
			}
		}
		bands = append(bands, band)
	}
	return bands
}
