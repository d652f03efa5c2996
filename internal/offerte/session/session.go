// Package session keeps per-generation match state in memory. A session lives
// from the match pass until the offerte is exported; stale sessions are
// pruned opportunistically.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"offerte-service/internal/offerte/model"
)

// Session is one generation pass worth of matches.
type Session struct {
	ID        string
	Matches   []model.Match
	CreatedAt time.Time
}

// Store is a concurrency-safe in-memory session map.
type Store struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]*Session
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Create stores a new session holding the given matches and returns its id.
func (s *Store) Create(matches []model.Match) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.sessions[id] = &Session{
		ID:        id,
		Matches:   matches,
		CreatedAt: time.Now(),
	}
	return id
}

// Matches returns a copy of the session's matches.
func (s *Store) Matches(sessionID string) ([]model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := make([]model.Match, len(sess.Matches))
	copy(out, sess.Matches)
	return out, nil
}

// Match returns a copy of one match.
func (s *Store) Match(sessionID, matchID string) (model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return model.Match{}, model.ErrNotFound
	}
	for i := range sess.Matches {
		if sess.Matches[i].ID == matchID {
			return sess.Matches[i], nil
		}
	}
	return model.Match{}, model.ErrNotFound
}

// UpdateMatch mutates one match under the store lock. The callback's error
// aborts the update and is returned as-is.
func (s *Store) UpdateMatch(sessionID, matchID string, fn func(*model.Match) error) (model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return model.Match{}, model.ErrNotFound
	}
	for i := range sess.Matches {
		if sess.Matches[i].ID == matchID {
			if err := fn(&sess.Matches[i]); err != nil {
				return model.Match{}, err
			}
			return sess.Matches[i], nil
		}
	}
	return model.Match{}, model.ErrNotFound
}

// Exists reports whether the session is known.
func (s *Store) Exists(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[sessionID]
	return ok
}

func (s *Store) pruneLocked() {
	cutoff := time.Now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
