package wellness

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/mindscope/internal/models"
)

// Session carries one user's state between interactions: the primary emotion
// of the last analysis, which journaling and suggestions read.
type Session struct {
	ID string

	mu              sync.RWMutex
	primary         models.EmotionLabel
	awaitingJournal bool
	updatedAt       time.Time
}

func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{ID: id, updatedAt: time.Now()}
}

// SetPrimary is called by the service after every successful analysis.
func (s *Session) SetPrimary(emotion models.EmotionLabel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.primary = emotion
	s.updatedAt = time.Now()
}

func (s *Session) Primary() (models.EmotionLabel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.primary, s.primary != ""
}

// SetAwaitingJournal marks that the next free-text message is a journal entry.
func (s *Session) SetAwaitingJournal(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.awaitingJournal = v
	s.updatedAt = time.Now()
}

func (s *Session) AwaitingJournal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.awaitingJournal
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.updatedAt
}

// Sessions is a registry of sessions keyed by id.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*Session)}
}

// Get returns the session with id, creating it when absent. An empty id
// always creates a new session with a generated id.
func (s *Sessions) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok && id != "" {
		return sess
	}
	sess := NewSession(id)
	s.sessions[sess.ID] = sess
	return sess
}

func (s *Sessions) Lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	return sess, ok
}

// Prune drops sessions idle for longer than maxIdle and returns how many went.
func (s *Sessions) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	n := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt().Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}
