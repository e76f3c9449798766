package escpos

import (
	"fmt"
	"strings"
)

// query writes a maintenance command and reads a fixed-size reply. The
// reply length is command-specific and documented per query; anything
// shorter is a timeout, never a valid partial.
func (p *Printer) query(command []byte, size int) ([]byte, error) {
	if _, err := p.Write(command); err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	n, err := p.t.Read(buf)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, ErrTimeout
	}
	return buf, nil
}

// Replies come NUL-padded to their fixed size.
func trimReply(raw []byte) string {
	return strings.TrimRight(string(raw), "\x00")
}

// SerialNumber reads the device serial number. Only the Custom P3
// exposes the query.
func (p *Printer) SerialNumber() (string, error) {
	if p.dialect != CustomP3 {
		return "", ErrUnsupported
	}
	raw, err := p.query(cmd.QuerySerial, 16)
	if err != nil {
		return "", fmt.Errorf("failed to read serial number: %w", err)
	}
	return trimReply(raw), nil
}

// CutCount reads the lifetime cutter activation counter.
func (p *Printer) CutCount() (string, error) {
	raw, err := p.query(cmd.QueryCutCount, 16)
	if err != nil {
		return "", fmt.Errorf("failed to read cut count: %w", err)
	}
	return trimReply(raw), nil
}

// RomVersion reads the firmware ROM version string.
func (p *Printer) RomVersion() (string, error) {
	raw, err := p.query(cmd.TransmitRom, 4)
	if err != nil {
		return "", fmt.Errorf("failed to read rom version: %w", err)
	}
	return trimReply(raw), nil
}

// PowerOnCount reads how many times the device has been powered on.
func (p *Printer) PowerOnCount() (string, error) {
	raw, err := p.query(cmd.QueryPowerCount, 8)
	if err != nil {
		return "", fmt.Errorf("failed to read power-on count: %w", err)
	}
	return trimReply(raw), nil
}

// PrintedLength reads the lifetime printed paper length.
func (p *Printer) PrintedLength() (string, error) {
	raw, err := p.query(cmd.QueryPrintedLen, 8)
	if err != nil {
		return "", fmt.Errorf("failed to read printed length: %w", err)
	}
	return trimReply(raw), nil
}

// RemainingPaper reads the estimated paper remaining on the roll.
func (p *Printer) RemainingPaper() (string, error) {
	raw, err := p.query(cmd.QueryPaperLeft, 8)
	if err != nil {
		return "", fmt.Errorf("failed to read remaining paper: %w", err)
	}
	return trimReply(raw), nil
}

// PaperLoaded reports whether the paper sensor sees paper. The reply is
// a single byte, zero when paper is present.
func (p *Printer) PaperLoaded() (bool, error) {
	raw, err := p.query(cmd.QueryPaperSensor, 1)
	if err != nil {
		return false, fmt.Errorf("failed to read paper sensor: %w", err)
	}
	return raw[0] == 0x00, nil
}

// SetPaperEndLimit configures the remaining-length threshold, in
// centimeters, at which the device starts reporting paper near end.
// The limit goes over the wire as a big-endian pair: nH = cm/256,
// nL = cm%256.
func (p *Printer) SetPaperEndLimit(cm uint16) (int, error) {
	seq := append(append([]byte{}, cmd.SetPaperEndLimit...), byte(cm/256), byte(cm%256))
	return p.Write(seq)
}

// FirmwareChecksum reads the Epic's computed firmware checksum.
func (p *Printer) FirmwareChecksum() (string, error) {
	if p.dialect != Epic {
		return "", ErrUnsupported
	}
	raw, err := p.query(cmd.FirmwareChecksum, 4)
	if err != nil {
		return "", fmt.Errorf("failed to read firmware checksum: %w", err)
	}
	return trimReply(raw), nil
}

// FirmwareID reads the Epic's firmware identification string.
func (p *Printer) FirmwareID() (string, error) {
	if p.dialect != Epic {
		return "", ErrUnsupported
	}
	raw, err := p.query(cmd.TransmitFirmware, 64)
	if err != nil {
		return "", fmt.Errorf("failed to read firmware id: %w", err)
	}
	return trimReply(raw), nil
}
