package escpos

import "strings"

// Status is a set of printer condition flags. A decode that finds nothing
// wrong yields the empty set; any non-empty set is reported as a
// *StatusError. Communication failures are collected into the set like
// hardware conditions, so one failed poll never hides the others.
type Status uint16

const (
	StatusCommunication Status = 1 << iota
	StatusOnline
	StatusOffline
	StatusDoorOpen
	StatusPaperFeed
	StatusAutoCutter
	StatusRecoverable
	StatusAutomaticallyRecoverable
	StatusPaperNearEnd
	StatusPaperEnd
)

// StatusReplyLen is the size of a full SNBC status reply, polled or
// pushed via Automatic Status Back.
const StatusReplyLen = 16

var statusNames = map[Status]string{
	StatusCommunication:            "communication",
	StatusOnline:                   "online",
	StatusOffline:                  "offline",
	StatusDoorOpen:                 "door_open",
	StatusPaperFeed:                "paper_feed",
	StatusAutoCutter:               "auto_cutter",
	StatusRecoverable:              "recoverable",
	StatusAutomaticallyRecoverable: "auto_recoverable",
	StatusPaperNearEnd:             "paper_near_end",
	StatusPaperEnd:                 "paper_end",
}

// Has reports whether every flag in f is present in the set.
func (s Status) Has(f Status) bool {
	return s&f == f
}

// Empty reports whether no flag is set.
func (s Status) Empty() bool {
	return s == 0
}

// Flags expands the set into its individual members in declaration order.
func (s Status) Flags() []Status {
	flags := make([]Status, 0, 4)
	for f := StatusCommunication; f <= StatusPaperEnd; f <<= 1 {
		if s.Has(f) {
			flags = append(flags, f)
		}
	}
	return flags
}

func (s Status) String() string {
	if s.Empty() {
		return "ok"
	}
	names := make([]string, 0, 4)
	for _, f := range s.Flags() {
		names = append(names, statusNames[f])
	}
	return strings.Join(names, ",")
}

// statusBit maps one reply bit to a flag. The test is masked: the flag is
// set when bit `bit` of the indexed byte is 1.
type statusBit struct {
	byteIndex int
	bit       uint
	flag      Status
}

// statusField maps a 2-bit reply field to a flag, set when the field
// reads 0b11. The SNBC paper sensors report through these fields; the
// exact hardware encoding is printer-documentation-dependent and the
// threshold form is the one verified against the BTP-R880NPV.
type statusField struct {
	byteIndex int
	shift     uint
	flag      Status
}

// SNBC reply layout: byte 0 carries the operator conditions, byte 1 the
// error conditions, byte 2 the paper sensors. Byte 3 is defined by the
// documentation but carries nothing we decode.
var snbcStatusBits = []statusBit{
	{0, 3, StatusOffline},
	{0, 5, StatusDoorOpen},
	{0, 6, StatusPaperFeed},
	{1, 3, StatusAutoCutter},
	{1, 5, StatusRecoverable},
	{1, 6, StatusAutomaticallyRecoverable},
}

var snbcPaperFields = []statusField{
	{2, 0, StatusPaperNearEnd},
	{2, 2, StatusPaperEnd},
}

// Epic layout: one bit per poll reply, four replies.
var epicStatusBits = []statusBit{
	{0, 3, StatusOffline},
	{1, 2, StatusDoorOpen},
	{1, 5, StatusPaperEnd},
	{2, 3, StatusAutoCutter},
}

func applyStatusBits(raw []byte, bits []statusBit, fields []statusField) Status {
	var s Status
	for _, b := range bits {
		if b.byteIndex < len(raw) && (raw[b.byteIndex]>>b.bit)&1 == 1 {
			s |= b.flag
		}
	}
	for _, f := range fields {
		if f.byteIndex < len(raw) && (raw[f.byteIndex]>>f.shift)&0b11 == 0b11 {
			s |= f.flag
		}
	}
	return s
}

// DecodeStatus decodes a raw status reply for the given dialect. It is a
// pure function so pushed Automatic Status Back bytes decode exactly like
// polled ones. The SNBC always records either Offline or Online, so its
// decoded set is never empty. Dialects without a decode table yield the
// empty set; that gap is deliberate, not an oversight.
func DecodeStatus(d Dialect, raw []byte) Status {
	switch d {
	case SNBC:
		s := applyStatusBits(raw, snbcStatusBits, snbcPaperFields)
		if !s.Has(StatusOffline) {
			s |= StatusOnline
		}
		return s
	case Epic:
		return applyStatusBits(raw, epicStatusBits, nil)
	default:
		return 0
	}
}

// Status queries the printer's condition. The SNBC answers with a single
// 16-byte reply. The Epic is polled four times with a sequence-numbered
// real-time command, one reply byte each; a failed poll records a
// Communication flag and polling continues. Other dialects get the status
// request issued but their replies are not decoded, so they always report
// success. A non-empty set is returned alongside a *StatusError carrying
// the same set.
func (p *Printer) Status() (Status, error) {
	var s Status
	switch p.dialect {
	case SNBC:
		buf := make([]byte, StatusReplyLen)
		if n, err := p.t.Read(buf); err != nil || n != StatusReplyLen {
			s = StatusCommunication
			return s, &StatusError{Status: s}
		}
		s = DecodeStatus(SNBC, buf)
	case Epic:
		var replies [4]byte
		for i := 0; i < 4; i++ {
			poll := append(append([]byte{}, cmd.EpicStatusPoll...), byte(i+1))
			if _, err := p.Write(poll); err != nil {
				s |= StatusCommunication
			}
			n, err := p.t.Read(replies[i : i+1])
			if err != nil || n != 1 {
				s |= StatusCommunication
			}
		}
		s |= DecodeStatus(Epic, replies[:])
	default:
		p.Write(cmd.StatusRequest)
		return 0, nil
	}
	if s.Empty() {
		return s, nil
	}
	return s, &StatusError{Status: s}
}

// Read fills buf with bytes from the printer's status channel, typically
// Automatic Status Back pushes. Callers detect fresh pushes by comparing
// the first reply byte against the previously observed value.
func (p *Printer) Read(buf []byte) (int, error) {
	return p.t.Read(buf)
}

// EnableStatusBack turns on Automatic Status Back so the device pushes a
// status reply whenever its state changes.
func (p *Printer) EnableStatusBack() (int, error) {
	if !p.dialect.HasStatusBack() {
		return 0, ErrUnsupported
	}
	return p.Write(cmd.StatusBackOn)
}

// DisableStatusBack turns Automatic Status Back off.
func (p *Printer) DisableStatusBack() (int, error) {
	if !p.dialect.HasStatusBack() {
		return 0, ErrUnsupported
	}
	return p.Write(cmd.StatusBackOff)
}
