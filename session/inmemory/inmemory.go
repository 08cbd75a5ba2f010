package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/mohammad-safakhou/newsrag/models"
)

type entry struct {
	turns     []models.Turn
	expiresAt time.Time
}

// Store keeps sessions in process memory. It mirrors the Redis store's
// sliding expiry and is meant for local runs and tests.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

func New(ttl time.Duration) *Store {
	return &Store{sessions: make(map[string]*entry), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Append(_ context.Context, sessionID string, turn models.Turn) error {
	if sessionID == "" {
		return models.ErrSessionRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.sessions[sessionID]
	if !ok || !now.Before(e.expiresAt) {
		e = &entry{}
		s.sessions[sessionID] = e
	}
	e.turns = append(e.turns, turn)
	e.expiresAt = now.Add(s.ttl)
	return nil
}

func (s *Store) Read(_ context.Context, sessionID string) ([]models.Turn, error) {
	if sessionID == "" {
		return nil, models.ErrSessionRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sessionID]
	if !ok || !s.now().Before(e.expiresAt) {
		return []models.Turn{}, nil
	}
	out := make([]models.Turn, len(e.turns))
	copy(out, e.turns)
	return out, nil
}

func (s *Store) Clear(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return models.ErrSessionRequired
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired sessions and reports how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) Close() error { return nil }
