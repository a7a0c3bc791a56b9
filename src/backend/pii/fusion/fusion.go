// Package fusion merges candidate entities from several producers into one
// non-overlapping, position-ordered list.
package fusion

import (
	"fmt"
	"log"
	"sort"

	"github.com/hannes/irongate/src/backend/pii/detectors"
)

const (
	// agreementTolerance is the maximum start/end distance, in bytes, for two
	// candidates to count as the same finding
	agreementTolerance = 2
	agreementSources   = 2
	agreementBoost     = 1.3
)

// Merge resolves overlaps in a single sweep over candidates sorted by start
// ascending then confidence descending. An overlapping candidate replaces the
// last accepted entity only if its confidence is strictly higher.
//
// Only the last accepted entity is compared, so a chain A-B-C where A and C do
// not overlap can keep A and C even though B overlapped both.
func Merge(candidates []detectors.Entity) []detectors.Entity {
	if len(candidates) == 0 {
		return []detectors.Entity{}
	}

	sorted := make([]detectors.Entity, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartPos != sorted[j].StartPos {
			return sorted[i].StartPos < sorted[j].StartPos
		}
		return sorted[i].Confidence > sorted[j].Confidence
	})

	merged := make([]detectors.Entity, 0, len(sorted))
	for _, candidate := range sorted {
		n := len(merged)
		if n == 0 || candidate.StartPos >= merged[n-1].EndPos {
			merged = append(merged, candidate)
			continue
		}
		if candidate.Confidence > merged[n-1].Confidence {
			merged[n-1] = candidate
		}
	}
	return merged
}

// Boost multiplies the confidence of a merged entity by 1.3, capped at 1.0,
// when at least two distinct producers reported roughly the same span with the
// same type. The inputs are not modified.
func Boost(merged, candidates []detectors.Entity) []detectors.Entity {
	boosted := make([]detectors.Entity, len(merged))
	copy(boosted, merged)

	for i, entity := range boosted {
		sources := make(map[string]struct{})
		for _, c := range candidates {
			if c.Label == entity.Label && abs(c.StartPos-entity.StartPos) <= agreementTolerance && abs(c.EndPos-entity.EndPos) <= agreementTolerance {
				sources[c.Source] = struct{}{}
			}
		}
		if len(sources) >= agreementSources {
			boosted[i].Confidence = min(1.0, entity.Confidence*agreementBoost)
		}
	}
	return boosted
}

// ValidSpan reports whether the entity's offsets lie inside text and are non-empty
func ValidSpan(e detectors.Entity, text string) error {
	if !e.ValidIn(text) {
		return fmt.Errorf("%w: [%d:%d] in text of length %d", detectors.ErrInvalidSpan, e.StartPos, e.EndPos, len(text))
	}
	return nil
}

// Validate splits candidates into those with a valid span and those without
func Validate(candidates []detectors.Entity, text string) (kept, dropped []detectors.Entity) {
	kept = make([]detectors.Entity, 0, len(candidates))
	for _, c := range candidates {
		if err := ValidSpan(c, text); err != nil {
			dropped = append(dropped, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, dropped
}

// Fuse drops invalid candidates, merges the rest and applies agreement boosting
func Fuse(text string, candidates []detectors.Entity) []detectors.Entity {
	kept, dropped := Validate(candidates, text)
	for _, d := range dropped {
		log.Printf("[Fusion] Dropping %s candidate from %s: %v", d.Label, d.Source, ValidSpan(d, text))
	}
	return Boost(Merge(kept), kept)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
