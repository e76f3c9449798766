package escpos

import (
	"bytes"
	"encoding/binary"
	"strings"
	"time"
)

// Printer is a synchronous command session against one printer. It owns
// its Transport exclusively for its lifetime and keeps no buffer: every
// operation resolves the dialect-specific bytes and writes them
// immediately, returning the byte count or the first error.
//
// A Printer is not safe for concurrent use. Two sessions against the same
// physical device are undefined; callers serialize access.
type Printer struct {
	dialect Dialect
	t       Transport
	enc     TextEncoder
	sleep   func(time.Duration)
}

// PrinterOption adjusts a Printer at construction time.
type PrinterOption func(*Printer)

// WithTextEncoder replaces the default lossy UTF-8 encoder.
func WithTextEncoder(enc TextEncoder) PrinterOption {
	return func(p *Printer) { p.enc = enc }
}

// WithSettleFunc replaces the blocking sleep used for post-cut hardware
// settle delays. Tests substitute a recorder here.
func WithSettleFunc(sleep func(time.Duration)) PrinterOption {
	return func(p *Printer) { p.sleep = sleep }
}

// NewPrinter wraps an open transport in a command session for the given
// dialect. The transport is owned by the session until Close.
func NewPrinter(t Transport, dialect Dialect, opts ...PrinterOption) *Printer {
	p := &Printer{
		dialect: dialect,
		t:       t,
		enc:     utf8Encoder{},
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dialect returns the resolved command-set variant of this session.
func (p *Printer) Dialect() Dialect {
	return p.dialect
}

// Close releases the underlying transport.
func (p *Printer) Close() error {
	return p.t.Close()
}

// Write sends raw bytes to the printer. A transfer that moves fewer bytes
// than requested fails with ErrTimeout.
func (p *Printer) Write(buf []byte) (int, error) {
	n, err := p.t.Write(buf)
	if err != nil {
		return n, err
	}
	if n != len(buf) {
		return n, ErrTimeout
	}
	return n, nil
}

func (p *Printer) writeByte(b byte) (int, error) {
	return p.Write([]byte{b})
}

func (p *Printer) writeU16LE(v uint16) (int, error) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return p.Write(buf[:])
}

// Init resets the printer to its power-on defaults (ESC @). The data in
// the device's receive buffer is not cleared.
func (p *Printer) Init() (int, error) {
	return p.Write(cmd.Initialize)
}

// Enable selects the printer as the active device (ESC = n). While
// disabled the device ignores everything except real-time commands.
func (p *Printer) Enable() (int, error) {
	prof := p.dialect.profile()
	if prof.enable == nil {
		return 0, ErrUnsupported
	}
	return p.Write(prof.enable)
}

// Disable deselects the printer. The P3 uses n=2 where the SNBC uses n=0.
func (p *Printer) Disable() (int, error) {
	prof := p.dialect.profile()
	if prof.disable == nil {
		return 0, ErrUnsupported
	}
	return p.Write(prof.disable)
}

// Print encodes content with the session's text encoder and writes it.
func (p *Printer) Print(content string) (int, error) {
	encoded, err := p.enc.Encode(content)
	if err != nil {
		return 0, err
	}
	return p.Write(encoded)
}

// Println prints content followed by a line feed.
func (p *Printer) Println(content string) (int, error) {
	return p.Print(content + "\n")
}

// Underline switches underline mode: "off", "on" or "thick". Anything
// else turns underlining off.
func (p *Printer) Underline(mode string) (int, error) {
	switch strings.ToUpper(mode) {
	case "ON":
		return p.Write(cmd.UnderlineOn)
	case "THICK":
		return p.Write(cmd.Underline2On)
	default:
		return p.Write(cmd.UnderlineOff)
	}
}

// HR prints a horizontal rule of the given width followed by a line feed.
func (p *Printer) HR(width int) (int, error) {
	if width < 1 {
		width = 1
	}
	n, err := p.Write(bytes.Repeat([]byte{cmd.HorizontalBar}, width))
	if err != nil {
		return n, err
	}
	fed, err := p.Write([]byte("\n"))
	return n + fed, err
}

// CharSize sets character magnification (GS ! n).
func (p *Printer) CharSize(height byte) (int, error) {
	return p.Write(append(append([]byte{}, cmd.CharSize...), height))
}

// LineSpace sets the line spacing to n vertical motion units (ESC 3 n).
// Values outside 0..255 select the default spacing instead (ESC 2).
func (p *Printer) LineSpace(n int) (int, error) {
	if n >= 0 && n <= 255 {
		return p.Write(append(append([]byte{}, cmd.LineSpaceSet...), byte(n)))
	}
	return p.Write(cmd.LineSpaceDef)
}

// Feed advances the paper n lines, at least one.
func (p *Printer) Feed(n int) (int, error) {
	if n < 1 {
		n = 1
	}
	return p.Write(bytes.Repeat(cmd.CtlLF, n))
}

// Control writes a single control character: "lf", "ff", "cr", "ht" or
// "vt".
func (p *Printer) Control(ctl string) (int, error) {
	var b []byte
	switch strings.ToUpper(ctl) {
	case "LF":
		b = cmd.CtlLF
	case "FF":
		b = cmd.CtlFF
	case "CR":
		b = cmd.CtlCR
	case "HT":
		b = cmd.CtlHT
	case "VT":
		b = cmd.CtlVT
	default:
		return 0, ErrUnsupported
	}
	return p.Write(b)
}

// Align sets text justification: "lt", "ct" or "rt".
func (p *Printer) Align(alignment string) (int, error) {
	var b []byte
	switch strings.ToUpper(alignment) {
	case "LT":
		b = cmd.AlignLeft
	case "CT":
		b = cmd.AlignCenter
	case "RT":
		b = cmd.AlignRight
	default:
		return 0, ErrInvalidArgument
	}
	return p.Write(b)
}

// Font selects the character font family "a", "b" or "c".
func (p *Printer) Font(family string) (int, error) {
	var b []byte
	switch strings.ToUpper(family) {
	case "A":
		b = cmd.FontA
	case "B":
		b = cmd.FontB
	case "C":
		b = cmd.FontC
	default:
		return 0, ErrInvalidArgument
	}
	return p.Write(b)
}

// Style applies a combined emphasis token: "b" bold, "u" underline, "u2"
// thick underline, "bu" and "bu2" for the combinations. Any other token
// resets both bold and underline. Bold bytes are written before underline
// bytes for the combined tokens.
func (p *Printer) Style(kind string) (int, error) {
	var first, second []byte
	switch strings.ToUpper(kind) {
	case "B":
		first, second = cmd.UnderlineOff, cmd.BoldOn
	case "U":
		first, second = cmd.BoldOff, cmd.UnderlineOn
	case "U2":
		first, second = cmd.BoldOff, cmd.Underline2On
	case "BU":
		first, second = cmd.BoldOn, cmd.UnderlineOn
	case "BU2":
		first, second = cmd.BoldOn, cmd.Underline2On
	default:
		first, second = cmd.BoldOff, cmd.UnderlineOff
	}
	n, err := p.Write(first)
	if err != nil {
		return n, err
	}
	m, err := p.Write(second)
	return n + m, err
}

// Size resets character size, then doubles width and/or height when the
// corresponding argument is 2.
func (p *Printer) Size(width, height int) (int, error) {
	n, err := p.Write(cmd.SizeNormal)
	if err != nil {
		return n, err
	}
	if width == 2 {
		m, err := p.Write(cmd.SizeDoubleW)
		n += m
		if err != nil {
			return n, err
		}
	}
	if height == 2 {
		m, err := p.Write(cmd.SizeDoubleH)
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Cashdraw pulses the drawer kick-out connector. Pin 5 is honored;
// anything else falls back to the common pin 2 pulse.
func (p *Printer) Cashdraw(pin int) (int, error) {
	if pin == 5 {
		return p.Write(cmd.DrawerKickPin5)
	}
	return p.Write(cmd.DrawerKickPin2)
}

// FullCut feeds three lines and cuts the paper completely. The P3 only
// implements partial cuts.
func (p *Printer) FullCut() (int, error) {
	if !p.dialect.HasFullCut() {
		return 0, ErrUnsupported
	}
	return p.Write(cmd.FullCut)
}

// PartialCut feeds three lines and performs a partial cut. On the Epic
// the call then blocks for the hardware settle delay before returning;
// the delay is not configurable at this layer.
func (p *Printer) PartialCut() (int, error) {
	prof := p.dialect.profile()
	if prof.partialCut == nil {
		return 0, ErrUnsupported
	}
	n, err := p.Write(prof.partialCut)
	if err != nil {
		return n, err
	}
	if prof.cutSettle > 0 {
		p.sleep(prof.cutSettle)
	}
	return n, nil
}

