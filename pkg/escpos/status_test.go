package escpos

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStatusSNBC(t *testing.T) {
	raw := make([]byte, StatusReplyLen)
	raw[0] = 0b00101000 // offline + door open

	s := DecodeStatus(SNBC, raw)

	assert.Equal(t, StatusOffline|StatusDoorOpen, s)
}

func TestDecodeStatusSNBCHealthy(t *testing.T) {
	raw := make([]byte, StatusReplyLen)

	s := DecodeStatus(SNBC, raw)

	// A clear offline bit always records Online, so an SNBC decode is
	// never empty.
	assert.Equal(t, StatusOnline, s)
}

func TestDecodeStatusSNBCPaperFields(t *testing.T) {
	raw := make([]byte, StatusReplyLen)
	raw[2] = 0b00000011 // near-end field only

	s := DecodeStatus(SNBC, raw)
	assert.True(t, s.Has(StatusPaperNearEnd))
	assert.False(t, s.Has(StatusPaperEnd))

	raw[2] = 0b00001111 // both 2-bit fields saturated
	s = DecodeStatus(SNBC, raw)
	assert.True(t, s.Has(StatusPaperNearEnd))
	assert.True(t, s.Has(StatusPaperEnd))

	// A partially set field does not trip the flag.
	raw[2] = 0b00000101
	s = DecodeStatus(SNBC, raw)
	assert.False(t, s.Has(StatusPaperNearEnd))
	assert.False(t, s.Has(StatusPaperEnd))
}

func TestDecodeStatusSNBCErrorByte(t *testing.T) {
	raw := make([]byte, StatusReplyLen)
	raw[1] = 0b01101000 // auto cutter + recoverable + auto recoverable

	s := DecodeStatus(SNBC, raw)

	assert.True(t, s.Has(StatusAutoCutter))
	assert.True(t, s.Has(StatusRecoverable))
	assert.True(t, s.Has(StatusAutomaticallyRecoverable))
}

func TestDecodeStatusEpic(t *testing.T) {
	s := DecodeStatus(Epic, []byte{0x08, 0x24, 0x08, 0x00})

	assert.Equal(t, StatusOffline|StatusDoorOpen|StatusPaperEnd|StatusAutoCutter, s)
}

func TestDecodeStatusEpicHealthy(t *testing.T) {
	s := DecodeStatus(Epic, []byte{0x00, 0x00, 0x00, 0x00})
	assert.True(t, s.Empty())
}

func TestDecodeStatusUndecodedDialects(t *testing.T) {
	raw := []byte{0xff, 0xff, 0xff, 0xff}
	assert.True(t, DecodeStatus(CustomP3, raw).Empty())
	assert.True(t, DecodeStatus(Unknown, raw).Empty())
}

func TestStatusSNBC(t *testing.T) {
	reply := make([]byte, StatusReplyLen)
	reply[0] = 0b00101000
	mock := &MockTransport{readData: reply}
	p := NewPrinter(mock, SNBC)

	s, err := p.Status()

	assert.Equal(t, StatusOffline|StatusDoorOpen, s)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, s, statusErr.Status)
}

func TestStatusSNBCReadFailure(t *testing.T) {
	mock := &MockTransport{readErr: errors.New("read stalled")}
	p := NewPrinter(mock, SNBC)

	s, err := p.Status()

	// A failed read reports Communication alone, no partial flags.
	assert.Equal(t, StatusCommunication, s)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
}

func TestStatusSNBCShortReply(t *testing.T) {
	// A truncated reply counts as a communication failure, not a decode
	// of whatever bytes arrived.
	mock := &MockTransport{readData: []byte{0x28, 0x00, 0x00}}
	p := NewPrinter(mock, SNBC)

	s, err := p.Status()

	assert.Equal(t, StatusCommunication, s)
	require.Error(t, err)
}

func TestStatusEpicPollsFourTimes(t *testing.T) {
	mock := &MockTransport{readData: []byte{0x00, 0x00, 0x00, 0x00}}
	p := NewPrinter(mock, Epic)

	s, err := p.Status()

	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.Equal(t, [][]byte{
		{0x1b, 0x40, 0x10, 0x04, 0x01},
		{0x1b, 0x40, 0x10, 0x04, 0x02},
		{0x1b, 0x40, 0x10, 0x04, 0x03},
		{0x1b, 0x40, 0x10, 0x04, 0x04},
	}, mock.writes)
}

func TestStatusEpicDecodesReplies(t *testing.T) {
	mock := &MockTransport{readData: []byte{0x08, 0x24, 0x08, 0x00}}
	p := NewPrinter(mock, Epic)

	s, err := p.Status()

	assert.Equal(t, StatusOffline|StatusDoorOpen|StatusPaperEnd|StatusAutoCutter, s)
	assert.Error(t, err)
}

func TestStatusEpicShortReadsKeepPolling(t *testing.T) {
	// Only the first poll gets a reply byte; the other three come up
	// empty but must still be attempted.
	mock := &MockTransport{readData: []byte{0x08}}
	p := NewPrinter(mock, Epic)

	s, err := p.Status()

	assert.True(t, s.Has(StatusCommunication))
	assert.True(t, s.Has(StatusOffline))
	assert.Len(t, mock.writes, 4)
	assert.Error(t, err)
}

func TestStatusUndecodedDialectsReportSuccess(t *testing.T) {
	for _, d := range []Dialect{CustomP3, Unknown} {
		t.Run(d.String(), func(t *testing.T) {
			mock := &MockTransport{}
			p := NewPrinter(mock, d)

			s, err := p.Status()

			require.NoError(t, err)
			assert.True(t, s.Empty())
			assert.Equal(t, [][]byte{{0x10, 0x04, 0x01}}, mock.writes)
		})
	}
}

func TestStatusBack(t *testing.T) {
	mock := &MockTransport{}
	p := NewPrinter(mock, SNBC)

	_, err := p.EnableStatusBack()
	require.NoError(t, err)
	_, err = p.DisableStatusBack()
	require.NoError(t, err)

	assert.Equal(t, [][]byte{
		{0x1d, 0x61, 0x01},
		{0x1d, 0x61, 0x00},
	}, mock.writes)
}

func TestStatusBackUnsupported(t *testing.T) {
	for _, d := range []Dialect{CustomP3, Epic, Unknown} {
		t.Run(d.String(), func(t *testing.T) {
			p := NewPrinter(&MockTransport{}, d)

			_, err := p.EnableStatusBack()
			assert.ErrorIs(t, err, ErrUnsupported)
			_, err = p.DisableStatusBack()
			assert.ErrorIs(t, err, ErrUnsupported)
		})
	}
}

func TestPrinterRead(t *testing.T) {
	// Pushed status bytes decode exactly like polled ones.
	pushed := make([]byte, StatusReplyLen)
	pushed[0] = 0b00101000
	mock := &MockTransport{readData: pushed}
	p := NewPrinter(mock, SNBC)

	buf := make([]byte, StatusReplyLen)
	n, err := p.Read(buf)

	require.NoError(t, err)
	assert.Equal(t, StatusReplyLen, n)
	assert.Equal(t, StatusOffline|StatusDoorOpen, DecodeStatus(SNBC, buf))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", Status(0).String())
	assert.Equal(t, "offline,door_open", (StatusOffline | StatusDoorOpen).String())
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Status: StatusOffline | StatusPaperEnd}
	assert.Equal(t, "printer status: offline, paper_end", err.Error())
}

func TestStatusFlags(t *testing.T) {
	s := StatusOffline | StatusDoorOpen | StatusPaperEnd
	assert.Equal(t, []Status{StatusOffline, StatusDoorOpen, StatusPaperEnd}, s.Flags())
}
