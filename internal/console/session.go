package console

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session is one browser's console state.
type Session struct {
	ID string

	mu       sync.Mutex
	view     *View
	lastSeen time.Time
}

// Do runs fn with exclusive access to the session's view. Transitions of
// one session never interleave, so a slow response cannot overwrite a
// newer one.
func (s *Session) Do(fn func(v *View) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.view)
}

// Sessions keeps the views of active console sessions.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	newView  func() *View
	now      func() time.Time
}

// NewSessions creates a session store. Sessions idle for longer than ttl
// are evicted by Sweep; ttl <= 0 keeps sessions forever.
func NewSessions(ttl time.Duration, newView func() *View) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		newView:  newView,
		now:      time.Now,
	}
}

// Get returns the session with the given ID, creating a fresh one when the
// ID is unknown or expired. created reports whether a new session was made.
func (s *Sessions) Get(id string) (sess *Session, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sess, ok := s.sessions[id]; ok && !s.expired(sess, now) {
		sess.lastSeen = now
		return sess, false
	}
	delete(s.sessions, id)

	sess = &Session{
		ID:       newSessionID(now),
		view:     s.newView(),
		lastSeen: now,
	}
	s.sessions[sess.ID] = sess
	return sess, true
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts expired sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Sessions) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.lastSeen) > s.ttl
}

func newSessionID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}
