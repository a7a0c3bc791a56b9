package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hannes/irongate/src/backend/pii/generators"
)

// DefaultEvictionThreshold is the store size above which expired sessions are
// swept on insertion
const DefaultEvictionThreshold = 100

// Store maps session ids to sessions. Expired sessions are removed lazily:
// whenever an insertion takes the store above its threshold, every session
// past its expiry is dropped. There are no timers.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	generator *generators.Generator
	clock     Clock
	ttl       time.Duration
	threshold int
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock sets the time source used for creation and expiry
func WithClock(clock Clock) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithTTL sets the lifetime of new sessions
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithEvictionThreshold sets the size above which expired sessions are swept
func WithEvictionThreshold(n int) StoreOption {
	return func(s *Store) {
		if n >= 0 {
			s.threshold = n
		}
	}
}

// NewStore creates an empty store whose sessions use generator for pseudonyms
func NewStore(generator *generators.Generator, opts ...StoreOption) *Store {
	s := &Store{
		sessions:  make(map[string]*Session),
		generator: generator,
		clock:     time.Now,
		ttl:       DefaultTTL,
		threshold: DefaultEvictionThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire returns the session with the given id, creating it when the id is
// unknown. An empty id creates a session with a fresh random id. A known but
// expired session yields ErrSessionExpired. created reports whether a new
// session was made.
func (s *Store) Acquire(id, firmID string) (sess *Session, created bool, err error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}

	if existing, ok := s.sessions[id]; ok {
		if existing.State(now) == StateExpired {
			return nil, false, fmt.Errorf("%w: %s", ErrSessionExpired, id)
		}
		return existing, false, nil
	}

	sess = NewSession(id, firmID, s.generator, s.clock, s.ttl)
	s.sessions[id] = sess
	log.Printf("[SessionStore] Created session %s", id)

	if len(s.sessions) > s.threshold {
		s.evictExpired(now)
	}
	return sess, true, nil
}

// evictExpired removes every session whose expiry is before now. Caller holds mu.
func (s *Store) evictExpired(now time.Time) {
	evicted := 0
	for id, sess := range s.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("[SessionStore] Evicted %d expired sessions, %d remaining", evicted, len(s.sessions))
	}
}

// Get returns the session with the given id regardless of its state
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Len returns the number of sessions held, including expired ones not yet evicted
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Delete removes a session
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
