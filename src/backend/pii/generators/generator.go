package generators

import (
	"context"
	"errors"
	"log"
	"time"
)

// DefaultRealisticTimeout bounds a single call to the realistic source
const DefaultRealisticTimeout = 50 * time.Millisecond

// Generator produces pseudonyms, preferring its Realistic source when one is
// configured and falling back to the deterministic formats.
type Generator struct {
	Realistic Realistic
	Timeout   time.Duration
}

// NewGenerator creates a generator. A nil realistic source gives purely
// deterministic output.
func NewGenerator(realistic Realistic, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = DefaultRealisticTimeout
	}
	return &Generator{Realistic: realistic, Timeout: timeout}
}

// Generate returns the pseudonym for original of the given type
func (g *Generator) Generate(ctx context.Context, label, original, hexHash string) string {
	kind := ParseKind(label)
	if g == nil || g.Realistic == nil {
		return deterministic(kind, label, original, hexHash)
	}

	switch kind {
	case KindClientMatterPair:
		return g.realistic(ctx, KindOrganization, label, original, hexHash) + " / " + MatterNumberGenerator(hexHash[min(8, len(hexHash)):])
	case KindOpposingCounsel:
		return g.realistic(ctx, KindPerson, label, original, hexHash) + ", " + LawFirmGenerator(hexHash)
	}
	return g.realistic(ctx, kind, label, original, hexHash)
}

type realisticResult struct {
	value string
	err   error
}

// realistic asks the realistic source for a value under the configured
// timeout; any error or timeout falls back to the deterministic value
func (g *Generator) realistic(ctx context.Context, kind Kind, label, original, hexHash string) string {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultRealisticTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan realisticResult, 1)
	go func() {
		value, err := g.Realistic.Value(ctx, kind, RealisticSeed(hexHash))
		done <- realisticResult{value: value, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && res.value != "" {
			return res.value
		}
		if !errors.Is(res.err, ErrNoRealisticValue) {
			log.Printf("[Generator] Realistic value for %s failed, using fallback: %v", kind, res.err)
		}
	case <-ctx.Done():
		log.Printf("[Generator] Realistic value for %s timed out, using fallback", kind)
	}
	return deterministic(kind, label, original, hexHash)
}
