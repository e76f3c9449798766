package escpos

import "strings"

// Symbology identifies a barcode symbology requested by the caller. Only
// symbologies with an explicit selector byte print as themselves; the
// rest fall back to the EAN13 selector as the closest known default.
type Symbology int

const (
	UPCA Symbology = iota
	UPCE
	EAN13
	EAN8
	Code39
	ITF
	Codabar
	Code93
	Code128
	PDF417
	QRCode
	Maxicode
	GS1
)

// ParseSymbology resolves a payload or configuration name to a
// Symbology. The second result is false for names outside the known set.
func ParseSymbology(name string) (Symbology, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "upca", "upc-a":
		return UPCA, true
	case "upce", "upc-e":
		return UPCE, true
	case "ean13", "ean-13":
		return EAN13, true
	case "ean8", "ean-8":
		return EAN8, true
	case "code39", "code-39":
		return Code39, true
	case "itf":
		return ITF, true
	case "codabar":
		return Codabar, true
	case "code93", "code-93":
		return Code93, true
	case "code128", "code-128":
		return Code128, true
	case "pdf417":
		return PDF417, true
	case "qr", "qrcode":
		return QRCode, true
	case "maxicode":
		return Maxicode, true
	case "gs1":
		return GS1, true
	default:
		return EAN13, false
	}
}

// HRIPosition selects where the human readable interpretation of a
// barcode is printed.
type HRIPosition byte

const (
	HRIOff   HRIPosition = 0x00
	HRIAbove HRIPosition = 0x01
	HRIBelow HRIPosition = 0x02
	HRIBoth  HRIPosition = 0x03
)

// BarcodeFont selects the HRI character font. The SNBC documentation
// calls the two fonts standard and compressed; the P3 documentation calls
// the same selector values font A and font B.
type BarcodeFont byte

const (
	BarcodeFontStandard   BarcodeFont = 0x00
	BarcodeFontCompressed BarcodeFont = 0x01
	BarcodeFontA          BarcodeFont = 0x00
	BarcodeFontB          BarcodeFont = 0x01
)

// BarcodeSpec describes one 1D barcode. Width and height are clamped to
// the active dialect's documented range before emission, never passed
// through raw.
type BarcodeSpec struct {
	Width     byte // module width, dialect-clamped
	Height    byte // dot height, 1..255
	Font      BarcodeFont
	HRI       HRIPosition
	Symbology Symbology
}

// widthBytes resolves the GS w selector for the dialect. The SNBC accepts
// 2..6 and defaults to 2 outside that range; the P3 accepts 1..6 and
// defaults to 3. The Epic ignores the request and always uses the fixed
// minimum module width.
func widthBytes(d Dialect, width byte) ([]byte, error) {
	prof := d.profile()
	if prof.fixedWidth != 0 {
		return append(append([]byte{}, cmd.BarWidth...), prof.fixedWidth), nil
	}
	if prof.widthDefault == 0 {
		return nil, ErrUnsupported
	}
	if width < prof.widthMin || width > prof.widthMax {
		width = prof.widthDefault
	}
	return append(append([]byte{}, cmd.BarWidth...), width), nil
}

func heightBytes(height byte) []byte {
	return append(append([]byte{}, cmd.BarHeight...), height)
}

func hriBytes(pos HRIPosition) []byte {
	return append(append([]byte{}, cmd.BarHRI...), byte(pos))
}

func fontBytes(font BarcodeFont) []byte {
	return append(append([]byte{}, cmd.BarFont...), byte(font))
}

// symbologyBytes resolves the GS k selector. Code 128 uses the function-B
// selector on the SNBC and the plain selector elsewhere; EAN13 has a
// dedicated code; everything else falls back to the EAN13 code.
func symbologyBytes(d Dialect, sym Symbology) []byte {
	var m byte
	switch sym {
	case EAN13:
		m = 0x02
	case Code128:
		if d == SNBC {
			m = 0x49
		} else {
			m = 0x08
		}
	default:
		m = 0x02
	}
	return append(append([]byte{}, cmd.BarType...), m)
}

// CodesetC packs an all-digit string into Code 128 codeset C bytes, one
// byte per two-digit group:
//
//	"00"   -> 0x00
//	"10"   -> 0x0a
//	"1234" -> 0x0c 0x22
//
// It fails with ErrNotANumber on any non-digit character and
// ErrInvalidLength when the length is odd.
func CodesetC(text string) ([]byte, error) {
	for _, c := range text {
		if c < '0' || c > '9' {
			return nil, ErrNotANumber
		}
	}
	if len(text)%2 != 0 {
		return nil, ErrInvalidLength
	}
	packed := make([]byte, 0, len(text)/2)
	for i := 0; i < len(text); i += 2 {
		packed = append(packed, (text[i]-'0')*10+(text[i+1]-'0'))
	}
	return packed, nil
}

// code128Payload builds the length-prefixed Code 128 data block the SNBC
// expects: total length, the 0x7b codeset introducer, the codeset letter,
// then the encoded text. Even-length all-digit text selects codeset C,
// which halves the printed symbol length; everything else passes through
// as codeset B.
func code128Payload(text string) []byte {
	block := []byte{0x7b}
	if encoded, err := CodesetC(text); err == nil {
		block = append(block, 'C')
		block = append(block, encoded...)
	} else {
		block = append(block, 'B')
		block = append(block, text...)
	}
	return append([]byte{byte(len(block))}, block...)
}

// encodeBarcode produces the complete command sequence for one barcode.
// The SNBC takes the full selector preamble and a codeset-framed payload
// and only does so for Code 128. The Epic takes a compact fixed header
// followed by the raw text and a NUL terminator; codeset framing is
// meaningless there because its firmware applies library defaults. The
// remaining dialects have no working barcode path.
func encodeBarcode(d Dialect, spec BarcodeSpec, text string) ([]byte, error) {
	switch {
	case d == SNBC && spec.Symbology == Code128:
		width, err := widthBytes(d, spec.Width)
		if err != nil {
			return nil, err
		}
		seq := append([]byte{}, width...)
		seq = append(seq, heightBytes(spec.Height)...)
		seq = append(seq, hriBytes(spec.HRI)...)
		seq = append(seq, fontBytes(spec.Font)...)
		seq = append(seq, symbologyBytes(d, spec.Symbology)...)
		return append(seq, code128Payload(text)...), nil

	case d == Epic:
		seq := append([]byte{}, cmd.BarEpicHead...)
		seq = append(seq, byte(len(text)))
		seq = append(seq, text...)
		return append(seq, 0x00), nil

	default:
		return nil, ErrUnsupported
	}
}

// Barcode prints one 1D barcode described by spec with the given text.
func (p *Printer) Barcode(text string, spec BarcodeSpec) (int, error) {
	seq, err := encodeBarcode(p.dialect, spec, text)
	if err != nil {
		return 0, err
	}
	return p.Write(seq)
}
