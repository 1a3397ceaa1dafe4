package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"prosumer-sim/internal/simulation"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

// Session is one live environment. Env is not safe for concurrent use, so
// all access goes through Do.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu  sync.Mutex
	env *simulation.Env
}

func (s *Session) Do(fn func(env *simulation.Env) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.env)
}

type sessionEntry struct {
	session   *Session
	expiresAt time.Time
}

// SessionStore keeps sessions in memory. Each access pushes the expiry
// forward by the TTL; expired sessions are dropped by Sweep.
type SessionStore struct {
	mu    sync.RWMutex
	store map[string]*sessionEntry
	ttl   time.Duration
	max   int
	now   func() time.Time
}

func NewSessionStore(ttl time.Duration, maxSessions int) *SessionStore {
	return &SessionStore{
		store: make(map[string]*sessionEntry),
		ttl:   ttl,
		max:   maxSessions,
		now:   time.Now,
	}
}

// Add registers env under a new random id.
func (s *SessionStore) Add(env *simulation.Env) (*Session, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	if s.max > 0 && len(s.store) >= s.max {
		return nil, time.Time{}, ErrTooManySessions
	}
	sess := &Session{ID: uuid.NewString(), CreatedAt: now, env: env}
	exp := now.Add(s.ttl)
	s.store[sess.ID] = &sessionEntry{session: sess, expiresAt: exp}
	return sess, exp, nil
}

// Get returns a live session and refreshes its expiry.
func (s *SessionStore) Get(id string) (*Session, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.store[id]
	now := s.now()
	if !ok || now.After(e.expiresAt) {
		return nil, time.Time{}, ErrSessionNotFound
	}
	e.expiresAt = now.Add(s.ttl)
	return e.session, e.expiresAt, nil
}

func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.store, id)
	return nil
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.store)
}

// Sweep removes expired sessions and reports how many were dropped.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

func (s *SessionStore) sweepLocked(now time.Time) int {
	n := 0
	for id, e := range s.store {
		if now.After(e.expiresAt) {
			delete(s.store, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration, onSweep func(removed, remaining int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.Sweep()
			if onSweep != nil {
				onSweep(removed, s.Len())
			}
		}
	}
}
