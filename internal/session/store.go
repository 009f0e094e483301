package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uncleisme/mobile-app/internal/models"
)

// Store is an in-memory session store keyed by an opaque id.
type Store struct {
	mu   sync.RWMutex
	data map[string]models.Session
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{data: make(map[string]models.Session), now: time.Now}
}

// Create stores the session and returns a new opaque id.
func (s *Store) Create(sess models.Session) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.data[id] = sess
	s.mu.Unlock()
	return id
}

// Get returns the session for id if present and not expired.
func (s *Store) Get(id string) (models.Session, bool) {
	s.mu.RLock()
	sess, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return models.Session{}, false
	}
	if expired(sess, s.now()) {
		// Expired; delete lazily
		s.mu.Lock()
		delete(s.data, id)
		s.mu.Unlock()
		return models.Session{}, false
	}
	return sess, true
}

// Update replaces a live session in place. It reports false if id is unknown.
func (s *Store) Update(id string, fn func(*models.Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.data[id]
	if !ok || expired(sess, s.now()) {
		return false
	}
	fn(&sess)
	s.data[id] = sess
	return true
}

// Delete removes a session by id.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
}

// DeleteUser drops every session belonging to uid and returns how many were removed.
func (s *Store) DeleteUser(uid uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, v := range s.data {
		if v.UserID == uid {
			delete(s.data, k)
			n++
		}
	}
	return n
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, v := range s.data {
		if expired(v, now) {
			delete(s.data, k)
			n++
		}
	}
	return n
}

// StartSweeper launches a background goroutine that periodically removes
// expired sessions from the store. It stops when ctx is done.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// SessionEntry is a snapshot of a single session in the store.
type SessionEntry struct {
	ID      string
	Session models.Session
}

// List returns a snapshot of all sessions.
func (s *Store) List() []SessionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SessionEntry, 0, len(s.data))
	for k, v := range s.data {
		out = append(out, SessionEntry{ID: k, Session: v})
	}
	return out
}

func expired(sess models.Session, now time.Time) bool {
	return !sess.Expiry.IsZero() && sess.Expiry.Before(now)
}
