package escpos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockBitmap is a mock implementation of the Bitmap interface for testing
type MockBitmap struct {
	width     int
	height    int
	raster    []byte
	bands     [][]byte
	bandsDots int
}

func (m *MockBitmap) Width() int     { return m.width }
func (m *MockBitmap) Height() int    { return m.height }
func (m *MockBitmap) Raster() []byte { return m.raster }

func (m *MockBitmap) Bands(dots int) [][]byte {
	m.bandsDots = dots
	return m.bands
}

func TestRaster(t *testing.T) {
	mock := &MockTransport{}
	p := NewPrinter(mock, SNBC)

	img := &MockBitmap{
		width:  10,
		height: 3,
		raster: []byte{0xff, 0x80, 0x0f, 0x80, 0xaa, 0x80},
	}
	n, err := p.Raster(img, "normal")
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	assert.Equal(t, [][]byte{
		{0x1d, 0x76, 0x30, 0x00},
		{0x02, 0x00}, // byte width = ceil(10/8), little endian
		{0x03, 0x00}, // dot height, little endian
		img.raster,
	}, mock.writes)
}

func TestRasterScaleModes(t *testing.T) {
	testCases := []struct {
		mode string
		want byte
	}{
		{"normal", 0x00},
		{"dw", 0x01},
		{"dh", 0x02},
		{"qd", 0x03},
		{"garbage", 0x00},
	}

	for _, tc := range testCases {
		t.Run(tc.mode, func(t *testing.T) {
			mock := &MockTransport{}
			p := NewPrinter(mock, SNBC)

			img := &MockBitmap{width: 8, height: 1, raster: []byte{0xff}}
			_, err := p.Raster(img, tc.mode)
			require.NoError(t, err)
			assert.Equal(t, []byte{0x1d, 0x76, 0x30, tc.want}, mock.writes[0])
		})
	}
}

func TestBitImageBanding(t *testing.T) {
	mock := &MockTransport{}
	p := NewPrinter(mock, SNBC)

	// A 30 row image at 24-dot density splits into two bands, 24 rows
	// then the remaining 6; each column carries 3 bytes either way.
	img := &MockBitmap{
		width:  2,
		height: 30,
		bands: [][]byte{
			{0x01, 0x02, 0x03, 0x04, 0x05, 0x06},
			{0x11, 0x12, 0x13, 0x14, 0x15, 0x16},
		},
	}
	_, err := p.BitImage(img, "d24")
	require.NoError(t, err)

	assert.Equal(t, 24, img.bandsDots)
	assert.Equal(t, [][]byte{
		{0x1b, 0x33, 0x00}, // line spacing zero so bands abut
		{0x1b, 0x2a, 0x21},
		{0x02, 0x00}, // column count = band bytes / 3, little endian
		img.bands[0],
		{0x0a},
		{0x1b, 0x2a, 0x21},
		{0x02, 0x00},
		img.bands[1],
		{0x0a},
	}, mock.writes)
}

func TestBitImageExactlyOneFeedPerBand(t *testing.T) {
	mock := &MockTransport{}
	p := NewPrinter(mock, SNBC)

	img := &MockBitmap{
		width:  1,
		height: 30,
		bands:  [][]byte{{0x01, 0x02, 0x03}, {0x04, 0x05, 0x06}},
	}
	_, err := p.BitImage(img, "d24")
	require.NoError(t, err)

	feeds := 0
	for _, w := range mock.writes {
		if len(w) == 1 && w[0] == 0x0a {
			feeds++
		}
	}
	assert.Equal(t, len(img.bands), feeds)
}

func TestBitImageDensityHeaders(t *testing.T) {
	testCases := []struct {
		density string
		header  []byte
		dots    int
	}{
		{"s8", []byte{0x1b, 0x2a, 0x00}, 8},
		{"d8", []byte{0x1b, 0x2a, 0x01}, 8},
		{"s24", []byte{0x1b, 0x2a, 0x20}, 24},
		{"d24", []byte{0x1b, 0x2a, 0x21}, 24},
		{"anything else", []byte{0x1b, 0x2a, 0x21}, 24},
	}

	for _, tc := range testCases {
		t.Run(tc.density, func(t *testing.T) {
			mock := &MockTransport{}
			p := NewPrinter(mock, SNBC)

			img := &MockBitmap{
				width:  8,
				height: 8,
				bands:  [][]byte{make([]byte, tc.dots)},
			}
			_, err := p.BitImage(img, tc.density)
			require.NoError(t, err)

			assert.Equal(t, tc.dots, img.bandsDots)
			assert.Equal(t, tc.header, mock.writes[1])
		})
	}
}
