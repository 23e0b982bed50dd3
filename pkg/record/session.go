package record

import (
	"fmt"
	"sync"
)

// Session is an identity cache: at most one Row instance per persisted
// identity, so repeated loads of the same record hand back the same
// object. It is safe for concurrent use; the Rows it holds are not.
type Session struct {
	mu   sync.RWMutex
	rows map[string]map[string]*Row
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{rows: make(map[string]map[string]*Row)}
}

// Get looks up the cached row for a table and identity.
func (s *Session) Get(table string, id any) (*Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[table][identityKey(id)]
	return row, ok
}

// Put caches a row under its table and identity.
func (s *Session) Put(table string, id any, row *Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.rows[table]
	if !ok {
		byID = make(map[string]*Row)
		s.rows[table] = byID
	}
	byID[identityKey(id)] = row
}

// Evict drops a cached row.
func (s *Session) Evict(table string, id any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows[table], identityKey(id))
}

// Reset empties the session.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = make(map[string]map[string]*Row)
}

// identityKey normalizes identity values so int64(3) from a driver and
// int(3) from user code address the same slot.
func identityKey(id any) string { return fmt.Sprint(id) }
