// Package session keeps per-conversation pseudonym mappings so that the same
// original value is replaced by the same pseudonym across calls, and can be
// restored afterwards.
package session

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hannes/irongate/src/backend/pii/detectors"
	"github.com/hannes/irongate/src/backend/pii/generators"
)

// DefaultTTL is how long a session accepts calls after creation
const DefaultTTL = time.Hour

// maxRederivations bounds the attempts to find a collision-free pseudonym
// before falling back to a numeric suffix
const maxRederivations = 8

// Clock returns the current time
type Clock func() time.Time

// State is the lifecycle state of a session
type State int

const (
	StateActive State = iota
	StateExpired
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "expired"
}

// Entry is one original value and its pseudonym
type Entry struct {
	Original  string `json:"original"`
	Type      string `json:"type"`
	Hash      string `json:"hash"`
	Pseudonym string `json:"pseudonym"`
}

type entryKey struct {
	label    string
	original string
}

// Session holds the pseudonym mappings of one conversation. All methods are
// safe for concurrent use.
type Session struct {
	ID        string
	FirmID    string
	CreatedAt time.Time
	ExpiresAt time.Time

	mu        sync.Mutex
	generator *generators.Generator
	clock     Clock
	mappings  map[entryKey]*Entry
	order     []entryKey
	reverse   map[string]string
}

// NewSession creates a session that expires ttl after the clock's current time.
// A nil clock uses time.Now; a nil generator gives deterministic pseudonyms.
func NewSession(id, firmID string, generator *generators.Generator, clock Clock, ttl time.Duration) *Session {
	if clock == nil {
		clock = time.Now
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := clock()
	return &Session{
		ID:        id,
		FirmID:    firmID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		generator: generator,
		clock:     clock,
		mappings:  make(map[entryKey]*Entry),
		reverse:   make(map[string]string),
	}
}

// State reports whether the session is active at now. The expiry instant
// itself is still active.
func (s *Session) State(now time.Time) State {
	if now.After(s.ExpiresAt) {
		return StateExpired
	}
	return StateActive
}

func (s *Session) checkActive() error {
	if s.State(s.clock()) == StateExpired {
		return fmt.Errorf("%w: %s", ErrSessionExpired, s.ID)
	}
	return nil
}

// Pseudonymize replaces every entity span in text with its pseudonym. It
// returns the masked text, a map from original to pseudonym for this call and
// the number of replacements. Entities must lie inside text and must not
// overlap; otherwise nothing is replaced and ErrInvalidSpan is returned.
func (s *Session) Pseudonymize(ctx context.Context, text string, entities []detectors.Entity) (string, map[string]string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkActive(); err != nil {
		return "", nil, 0, err
	}

	sorted := make([]detectors.Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartPos > sorted[j].StartPos
	})

	for i, e := range sorted {
		if !e.ValidIn(text) {
			return "", nil, 0, fmt.Errorf("%w: [%d:%d] in text of length %d", detectors.ErrInvalidSpan, e.StartPos, e.EndPos, len(text))
		}
		if i > 0 && e.EndPos > sorted[i-1].StartPos {
			return "", nil, 0, fmt.Errorf("%w: [%d:%d] overlaps [%d:%d]", detectors.ErrInvalidSpan, e.StartPos, e.EndPos, sorted[i-1].StartPos, sorted[i-1].EndPos)
		}
	}

	// right to left so earlier offsets stay valid
	masked := text
	pseudonymMap := make(map[string]string, len(sorted))
	for _, e := range sorted {
		original := text[e.StartPos:e.EndPos]
		entry := s.getOrCreate(ctx, original, e.Label)
		masked = masked[:e.StartPos] + entry.Pseudonym + masked[e.EndPos:]
		pseudonymMap[original] = entry.Pseudonym
	}

	return masked, pseudonymMap, len(sorted), nil
}

// Depseudonymize restores every known pseudonym in text to its original in a
// single left-to-right pass. The leftmost match wins, so a pseudonym that starts
// earlier beats a longer one it overlaps. At the same position the longer
// pseudonym wins. Restored text is never rescanned.
func (s *Session) Depseudonymize(text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkActive(); err != nil {
		return "", err
	}
	if len(s.reverse) == 0 {
		return text, nil
	}

	pseudonyms := make([]string, 0, len(s.reverse))
	for p := range s.reverse {
		pseudonyms = append(pseudonyms, p)
	}
	sort.Slice(pseudonyms, func(i, j int) bool {
		if len(pseudonyms[i]) != len(pseudonyms[j]) {
			return len(pseudonyms[i]) > len(pseudonyms[j])
		}
		return pseudonyms[i] < pseudonyms[j]
	})

	pairs := make([]string, 0, 2*len(pseudonyms))
	for _, p := range pseudonyms {
		pairs = append(pairs, p, s.reverse[p])
	}
	return strings.NewReplacer(pairs...).Replace(text), nil
}

// GetOrCreate returns the entry for original of the given type, creating it on
// first use. Repeated calls return the same pseudonym.
func (s *Session) GetOrCreate(ctx context.Context, original, label string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkActive(); err != nil {
		return Entry{}, err
	}
	return *s.getOrCreate(ctx, original, label), nil
}

func (s *Session) getOrCreate(ctx context.Context, original, label string) *Entry {
	key := entryKey{label: label, original: original}
	if existing, ok := s.mappings[key]; ok {
		return existing
	}

	hash := generators.Hash(original)
	pseudonym := s.generator.Generate(ctx, label, original, hash)

	// keep the reverse map a function: a pseudonym never maps to two originals
	if s.taken(pseudonym, original) {
		base := pseudonym
		for n := 1; n <= maxRederivations && s.taken(pseudonym, original); n++ {
			pseudonym = s.generator.Generate(ctx, label, original, generators.Hash(original+"#"+strconv.Itoa(n)))
		}
		for n := 2; s.taken(pseudonym, original); n++ {
			pseudonym = base + " (" + strconv.Itoa(n) + ")"
		}
	}

	entry := &Entry{
		Original:  original,
		Type:      label,
		Hash:      hash,
		Pseudonym: pseudonym,
	}
	s.mappings[key] = entry
	s.order = append(s.order, key)
	s.reverse[pseudonym] = original
	return entry
}

func (s *Session) taken(pseudonym, original string) bool {
	owner, ok := s.reverse[pseudonym]
	return ok && owner != original
}

// PseudonymMap returns a snapshot of original -> pseudonym for every entry.
// When one original was seen with several types the latest entry wins.
func (s *Session) PseudonymMap() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]string, len(s.order))
	for _, key := range s.order {
		entry := s.mappings[key]
		m[entry.Original] = entry.Pseudonym
	}
	return m
}

// Len returns the number of entries in the session
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mappings)
}
