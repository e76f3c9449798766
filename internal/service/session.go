// internal/service/session.go
package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/transport"
	"printer-service/pkg/escpos"
)

// Session is one open connection to a printer. The command core has no
// locking of its own, so every operation goes through Do, which
// serializes access; a job and a status poll never interleave bytes on
// the wire.
type Session struct {
	printerID uuid.UUID
	name      string
	dialect   escpos.Dialect
	transport transport.Transport
	printer   *escpos.Printer
	openedAt  time.Time

	mu sync.Mutex
}

// PrinterID returns the owning printer's ID
func (s *Session) PrinterID() uuid.UUID {
	return s.printerID
}

// Name returns the owning printer's name
func (s *Session) Name() string {
	return s.name
}

// Dialect returns the command set the session speaks
func (s *Session) Dialect() escpos.Dialect {
	return s.dialect
}

// OpenedAt returns when the session was established
func (s *Session) OpenedAt() time.Time {
	return s.openedAt
}

// Stats returns transport counters for the session
func (s *Session) Stats() transport.Stats {
	return s.transport.Stats()
}

// Do runs fn with exclusive access to the printer
func (s *Session) Do(fn func(p *escpos.Printer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.printer)
}

// close shuts the underlying transport. Held operations finish first.
func (s *Session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.printer.Close()
}

// SessionManager owns the open sessions, one per printer at most.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	logger   *zap.Logger
}

// NewSessionManager creates an empty session manager
func NewSessionManager(logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[uuid.UUID]*Session),
		logger:   logger,
	}
}

// Open records a new session for the printer. The transport must
// already be open and the escpos printer constructed over it.
func (sm *SessionManager) Open(printerID uuid.UUID, name string, dialect escpos.Dialect, tr transport.Transport, printer *escpos.Printer) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[printerID]; exists {
		return nil, fmt.Errorf("printer %s already has an open session", name)
	}

	session := &Session{
		printerID: printerID,
		name:      name,
		dialect:   dialect,
		transport: tr,
		printer:   printer,
		openedAt:  time.Now(),
	}
	sm.sessions[printerID] = session

	sm.logger.Info("Session opened",
		zap.String("printer_id", printerID.String()),
		zap.String("name", name),
		zap.String("dialect", dialect.String()),
	)

	return session, nil
}

// Get returns the open session for the printer, if any
func (sm *SessionManager) Get(printerID uuid.UUID) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	session, ok := sm.sessions[printerID]
	return session, ok
}

// Close removes and closes the printer's session
func (sm *SessionManager) Close(printerID uuid.UUID) error {
	sm.mu.Lock()
	session, ok := sm.sessions[printerID]
	if ok {
		delete(sm.sessions, printerID)
	}
	sm.mu.Unlock()

	if !ok {
		return fmt.Errorf("printer %s has no open session", printerID)
	}

	err := session.close()
	sm.logger.Info("Session closed",
		zap.String("printer_id", printerID.String()),
		zap.String("name", session.name),
	)
	return err
}

// CloseAll closes every open session, used during shutdown
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		sessions = append(sessions, session)
	}
	sm.sessions = make(map[uuid.UUID]*Session)
	sm.mu.Unlock()

	for _, session := range sessions {
		if err := session.close(); err != nil {
			sm.logger.Warn("Failed to close session",
				zap.String("printer_id", session.printerID.String()),
				zap.Error(err),
			)
		}
	}
}

// Sessions returns a snapshot of the open sessions
func (sm *SessionManager) Sessions() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sessions := make([]*Session, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// Count returns the number of open sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
