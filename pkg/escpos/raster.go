package escpos

import "strings"

// Raster prints a bitmap in raster mode (GS v 0): one header carrying the
// scale mode, the byte width and dot height, then the whole packed image
// as a single payload. Modes are "normal", "dw" (double wide), "dh"
// (double high) and "qd" (quadruple); anything else prints normal scale.
func (p *Printer) Raster(img Bitmap, mode string) (int, error) {
	var scale byte
	switch strings.ToUpper(mode) {
	case "DW":
		scale = 0x01
	case "DH":
		scale = 0x02
	case "QD":
		scale = 0x03
	default:
		scale = 0x00
	}
	n, err := p.Write(append(append([]byte{}, cmd.RasterMode...), scale))
	if err != nil {
		return n, err
	}
	m, err := p.writeU16LE(uint16((img.Width() + 7) / 8))
	n += m
	if err != nil {
		return n, err
	}
	m, err = p.writeU16LE(uint16(img.Height()))
	n += m
	if err != nil {
		return n, err
	}
	m, err = p.Write(img.Raster())
	return n + m, err
}

// BitImage prints a bitmap in banded bit-image mode (ESC *). The image is
// sliced into horizontal bands of 8 rows for the single densities ("s8",
// "d8") or 24 rows for the 24-dot densities ("s24", "d24", the default).
// Each band is its own command followed by exactly one line feed, so the
// bands stack into the full image across successive print lines. Line
// spacing is forced to zero first so adjacent bands abut without gaps.
func (p *Printer) BitImage(img Bitmap, density string) (int, error) {
	var header []byte
	bytesPerColumn := 3
	switch strings.ToUpper(density) {
	case "S8":
		header = cmd.BitImageS8
		bytesPerColumn = 1
	case "D8":
		header = cmd.BitImageD8
		bytesPerColumn = 1
	case "S24":
		header = cmd.BitImageS24
	default:
		header = cmd.BitImageD24
	}

	n, err := p.LineSpace(0)
	if err != nil {
		return n, err
	}
	for _, band := range img.Bands(bytesPerColumn * 8) {
		m, err := p.Write(header)
		n += m
		if err != nil {
			return n, err
		}
		m, err = p.writeU16LE(uint16(len(band) / bytesPerColumn))
		n += m
		if err != nil {
			return n, err
		}
		m, err = p.Write(band)
		n += m
		if err != nil {
			return n, err
		}
		m, err = p.Feed(1)
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
