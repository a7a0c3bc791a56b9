package scoring

import (
	"strings"
	"testing"

	"github.com/hannes/irongate/src/backend/pii/detectors"
)

func ent(label string, start, end int, confidence float64) detectors.Entity {
	return detectors.Entity{Label: label, StartPos: start, EndPos: end, Confidence: confidence}
}

func repeat(label string, n int) []detectors.Entity {
	entities := make([]detectors.Entity, n)
	for i := range entities {
		entities[i] = ent(label, i, i+1, 1.0)
	}
	return entities
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  Level
	}{
		{0, LevelLow},
		{25, LevelLow},
		{26, LevelMedium},
		{60, LevelMedium},
		{61, LevelHigh},
		{85, LevelHigh},
		{86, LevelCritical},
		{100, LevelCritical},
	}

	for _, tt := range tests {
		if got := LevelFor(tt.score); got != tt.want {
			t.Errorf("LevelFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestScore(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name     string
		text     string
		entities []detectors.Entity
		want     int
		level    Level
	}{
		{
			name:  "empty",
			text:  strings.Repeat("x", 50),
			want:  0,
			level: LevelLow,
		},
		{
			name: "person email and ssn",
			text: "John Smith, john@example.com, SSN 123-45-6789",
			entities: []detectors.Entity{
				ent(detectors.LabelPerson, 0, 10, 0.85),
				ent(detectors.LabelEmail, 12, 28, 0.95),
				ent(detectors.LabelSSN, 34, 45, 0.85),
			},
			// (8.5 + 11.4 + 34) * 1.3 capped at 70
			want:  70,
			level: LevelHigh,
		},
		{
			name:     "unknown type uses default weight",
			text:     "opaque",
			entities: []detectors.Entity{ent("CUSTOM_THING", 0, 6, 1.0)},
			want:     5,
			level:    LevelLow,
		},
		{
			name:     "two types multiplier",
			text:     "Jane jane@example.com",
			entities: []detectors.Entity{ent(detectors.LabelPerson, 0, 4, 1.0), ent(detectors.LabelEmail, 5, 21, 1.0)},
			// (10 + 12) * 1.15 = 25.3
			want:  25,
			level: LevelLow,
		},
		{
			name:     "five entities multiplier",
			text:     "dates",
			entities: repeat(detectors.LabelDate, 5),
			want:     12,
			level:    LevelLow,
		},
		{
			name:     "ten entities multiplier",
			text:     "many dates here",
			entities: repeat(detectors.LabelDate, 10),
			want:     28,
			level:    LevelMedium,
		},
		{
			name:     "half rounds to even",
			text:     "Bob",
			entities: []detectors.Entity{ent(detectors.LabelPerson, 0, 3, 0.25)},
			// 2.5
			want:  2,
			level: LevelLow,
		},
		{
			name:     "half above odd rounds up",
			text:     "Bob Ann",
			entities: []detectors.Entity{ent("CUSTOM_THING", 0, 3, 0.5), ent("CUSTOM_THING", 4, 7, 0.2)},
			// 2.5 + 1.0 = 3.5
			want:  4,
			level: LevelLow,
		},
		{
			name: "half on the medium boundary stays medium",
			// entities sit far from the markers so no context score applies
			text: "abcd" + strings.Repeat(" ", 5000) + "Attorney-Client Privilege. Privileged and Confidential.",
			entities: []detectors.Entity{
				ent("CUSTOM_THING", 0, 1, 1.0),
				ent("CUSTOM_THING", 1, 2, 1.0),
				ent("CUSTOM_THING", 2, 3, 1.0),
				ent("CUSTOM_THING", 3, 4, 0.1),
			},
			// 15.5 + volume 20 + legal 25 = 60.5
			want:  60,
			level: LevelMedium,
		},
		{
			name:     "context keyword near entity",
			text:     "The settlement with Bob was signed",
			entities: []detectors.Entity{ent(detectors.LabelPerson, 20, 23, 1.0)},
			want:     15,
			level:    LevelLow,
		},
		{
			name:  "privilege markers without entities",
			text:  "Attorney-Client Privilege. Privileged and Confidential.",
			want:  25,
			level: LevelLow,
		},
		{
			name:  "volume only",
			text:  strings.Repeat("a", 5000),
			want:  20,
			level: LevelLow,
		},
		{
			name:     "clamped at 100",
			text:     "PRIVILEGED AND CONFIDENTIAL attorney work product settlement " + strings.Repeat("a", 5000),
			entities: append(repeat(detectors.LabelSSN, 5), repeat(detectors.LabelAPIKey, 5)...),
			want:     100,
			level:    LevelCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(tt.text, tt.entities, "")
			if result.Score != tt.want {
				t.Errorf("Expected score %d, got %d", tt.want, result.Score)
			}
			if result.Level != tt.level {
				t.Errorf("Expected level %s, got %s", tt.level, result.Level)
			}
			if result.EntityCount != len(tt.entities) {
				t.Errorf("Expected entity count %d, got %d", len(tt.entities), result.EntityCount)
			}
		})
	}
}

func TestScore_ContextScoreCapped(t *testing.T) {
	text := "settlement " + strings.Repeat("x", 100)
	entities := repeat("CUSTOM_THING", 10)
	for i := range entities {
		entities[i].Confidence = 0
	}

	result := NewScorer().Score(text, entities, "")

	// ten entities with a keyword in range would be 50, capped at 25
	if result.Score != 25 {
		t.Errorf("Expected score 25, got %d", result.Score)
	}
}

func TestScore_ContextWindowOutOfRange(t *testing.T) {
	text := "settlement" + strings.Repeat(" ", 300) + "Bob"
	entities := []detectors.Entity{ent(detectors.LabelPerson, 310, 313, 1.0)}

	result := NewScorer().Score(text, entities, "")

	if result.Score != 10 {
		t.Errorf("Expected keyword outside window to be ignored, got score %d", result.Score)
	}
}

func TestScore_TenantDoesNotChangeResult(t *testing.T) {
	scorer := NewScorer()
	text := "John Smith"
	entities := []detectors.Entity{ent(detectors.LabelPerson, 0, 10, 0.9)}

	a := scorer.Score(text, entities, "")
	b := scorer.Score(text, entities, "firm-42")

	if a != b {
		t.Errorf("Expected identical results, got %+v and %+v", a, b)
	}
}

func TestScore_VolumeCountsCharacters(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name string
		text string
		want int
	}{
		// 1000 characters, 2000 bytes
		{name: "two-byte characters", text: strings.Repeat("é", 1000), want: 5},
		// 1700 characters, 5100 bytes
		{name: "three-byte characters", text: strings.Repeat("漢", 1700), want: 5},
		{name: "below first threshold", text: strings.Repeat("ü", 499), want: 0},
		{name: "largest band", text: strings.Repeat("ß", 5000), want: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(tt.text, nil, "")
			if result.Score != tt.want {
				t.Errorf("Expected score %d, got %d", tt.want, result.Score)
			}
		})
	}
}

func TestExplanation(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name     string
		text     string
		entities []detectors.Entity
		want     string
	}{
		{
			name: "no entities",
			text: "hello",
			want: "No sensitive information detected.",
		},
		{
			name: "large text without entities",
			text: strings.Repeat("a", 5001),
			want: "Large text volume detected but no specific entities identified.",
		},
		{
			name: "counts and plurals",
			text: "Ann Bob ann@example.com",
			entities: []detectors.Entity{
				ent(detectors.LabelPerson, 0, 3, 0.9),
				ent(detectors.LabelPerson, 4, 7, 0.9),
				ent(detectors.LabelEmail, 8, 23, 0.9),
			},
			want: "Detected 2 persons, 1 email.",
		},
		{
			name: "top three with ties in first-occurrence order",
			text: "x",
			entities: []detectors.Entity{
				ent(detectors.LabelDate, 0, 1, 1),
				ent(detectors.LabelPhoneNumber, 0, 1, 1),
				ent(detectors.LabelIPAddress, 0, 1, 1),
				ent(detectors.LabelSSN, 0, 1, 1),
				ent(detectors.LabelSSN, 0, 1, 1),
			},
			want: "Detected 2 ssns, 1 date, 1 phone number.",
		},
		{
			name:     "privilege markers and large text",
			text:     "Attorney work product. " + strings.Repeat("a", 2000),
			entities: []detectors.Entity{ent(detectors.LabelMatterNumber, 0, 4, 0.8)},
			want:     "Detected 1 matter number. Contains privilege markers. Large text volume suggests pasted document.",
		},
		{
			name:     "multi-byte text under the character limit",
			text:     strings.Repeat("漢", 1700),
			entities: []detectors.Entity{ent(detectors.LabelPerson, 0, 3, 0.9)},
			want:     "Detected 1 person.",
		},
		{
			name: "multi-byte text without entities",
			text: strings.Repeat("é", 3000),
			want: "No sensitive information detected.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.text, tt.entities, "").Explanation
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNewScorerWithWeights(t *testing.T) {
	before := DefaultWeights[detectors.LabelPerson]

	s := NewScorerWithWeights(map[string]int{"PERSON": 30})
	if s.Weights[detectors.LabelPerson] != 30 {
		t.Errorf("expected override 30, got %d", s.Weights[detectors.LabelPerson])
	}
	if s.Weights[detectors.LabelSSN] != DefaultWeights[detectors.LabelSSN] {
		t.Error("non-overridden weights must keep their defaults")
	}
	if DefaultWeights[detectors.LabelPerson] != before {
		t.Error("DefaultWeights must not be modified")
	}

	if NewScorerWithWeights(nil).Weights[detectors.LabelPerson] != before {
		t.Error("nil overrides should use the defaults")
	}
}
