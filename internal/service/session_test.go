// internal/service/session_test.go
package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printer-service/pkg/escpos"
)

func newTestSession(t *testing.T, sm *SessionManager) (*Session, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	require.NoError(t, tr.Open())
	p := escpos.NewPrinter(tr, escpos.SNBC)
	session, err := sm.Open(uuid.New(), "counter-1", escpos.SNBC, tr, p)
	require.NoError(t, err)
	return session, tr
}

func TestSessionManagerOpenAndGet(t *testing.T) {
	sm := NewSessionManager(zap.NewNop())
	session, _ := newTestSession(t, sm)

	got, ok := sm.Get(session.PrinterID())
	require.True(t, ok)
	assert.Equal(t, session, got)
	assert.Equal(t, "counter-1", got.Name())
	assert.Equal(t, escpos.SNBC, got.Dialect())
	assert.Equal(t, 1, sm.Count())
}

func TestSessionManagerRejectsSecondSession(t *testing.T) {
	sm := NewSessionManager(zap.NewNop())
	session, _ := newTestSession(t, sm)

	tr := &fakeTransport{}
	p := escpos.NewPrinter(tr, escpos.SNBC)
	_, err := sm.Open(session.PrinterID(), "counter-1", escpos.SNBC, tr, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has an open session")
}

func TestSessionManagerClose(t *testing.T) {
	sm := NewSessionManager(zap.NewNop())
	session, tr := newTestSession(t, sm)

	require.NoError(t, sm.Close(session.PrinterID()))
	assert.True(t, tr.closed)
	assert.Equal(t, 0, sm.Count())

	_, ok := sm.Get(session.PrinterID())
	assert.False(t, ok)

	err := sm.Close(session.PrinterID())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no open session")
}

func TestSessionManagerCloseAll(t *testing.T) {
	sm := NewSessionManager(zap.NewNop())
	_, tr1 := newTestSession(t, sm)
	tr2 := &fakeTransport{}
	require.NoError(t, tr2.Open())
	_, err := sm.Open(uuid.New(), "counter-2", escpos.Epic, tr2, escpos.NewPrinter(tr2, escpos.Epic))
	require.NoError(t, err)

	sm.CloseAll()

	assert.Equal(t, 0, sm.Count())
	assert.True(t, tr1.closed)
	assert.True(t, tr2.closed)
}

func TestSessionDoSerializesAccess(t *testing.T) {
	sm := NewSessionManager(zap.NewNop())
	session, _ := newTestSession(t, sm)

	var inFlight, maxInFlight int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = session.Do(func(p *escpos.Printer) error {
				mu.Lock()
				inFlight++
				if inFlight > maxInFlight {
					maxInFlight = inFlight
				}
				mu.Unlock()

				_, err := p.Print("line")

				mu.Lock()
				inFlight--
				mu.Unlock()
				return err
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInFlight)
}

func TestSessionDoPropagatesError(t *testing.T) {
	sm := NewSessionManager(zap.NewNop())
	session, tr := newTestSession(t, sm)

	tr.writeErr = escpos.ErrTimeout
	err := session.Do(func(p *escpos.Printer) error {
		_, err := p.Init()
		return err
	})
	assert.ErrorIs(t, err, escpos.ErrTimeout)
}
