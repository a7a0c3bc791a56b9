// Package scoring computes a 0-100 sensitivity score for a text and its
// detected entities.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hannes/irongate/src/backend/pii/detectors"
)

// Level is the coarse band a score falls into
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

const (
	defaultWeight = 5

	maxEntityScore  = 70
	maxContextScore = 25
	maxLegalBoost   = 25

	contextWindow       = 200
	contextPerEntity    = 5
	legalBoostPerMarker = 15
)

// DefaultWeights is the per-type weight table
var DefaultWeights = map[string]int{
	detectors.LabelPerson:              10,
	detectors.LabelOrganization:        8,
	detectors.LabelLocation:            3,
	detectors.LabelDate:                2,
	detectors.LabelPhoneNumber:         15,
	detectors.LabelEmail:               12,
	detectors.LabelCreditCard:          30,
	detectors.LabelSSN:                 40,
	detectors.LabelMonetaryAmount:      12,
	detectors.LabelAccountNumber:       25,
	detectors.LabelIPAddress:           8,
	detectors.LabelMedicalRecord:       35,
	detectors.LabelPassportNumber:      35,
	detectors.LabelDriversLicense:      30,
	detectors.LabelMatterNumber:        20,
	detectors.LabelClientMatterPair:    25,
	detectors.LabelPrivilegeMarker:     30,
	detectors.LabelDealCodename:        20,
	detectors.LabelOpposingCounsel:     15,
	detectors.LabelAPIKey:              50,
	detectors.LabelDatabaseURI:         50,
	detectors.LabelAuthToken:           45,
	detectors.LabelPrivateKey:          50,
	detectors.LabelAWSCredential:       50,
	detectors.LabelGCPCredential:       45,
	detectors.LabelAzureCredential:     45,
	detectors.LabelFinancialInstrument: 30,
	detectors.LabelTradeSecret:         50,
	detectors.LabelLitigationStrategy:  45,
	detectors.LabelProprietaryFormula:  50,
	detectors.LabelMNPI:                50,
	detectors.LabelClinicalData:        40,
}

// DefaultLegalKeywords raise the context score when found near an entity
var DefaultLegalKeywords = []string{
	"privileged", "attorney-client", "work product", "without prejudice",
	"confidential", "under seal", "protective order", "settlement",
	"mediation", "arbitration", "deposition", "subpoena",
	"motion to compel", "discovery", "litigation hold",
}

// DefaultPrivilegeMarkers add a flat boost when present anywhere in the text
var DefaultPrivilegeMarkers = []string{
	"attorney-client privilege", "work product doctrine",
	"privileged and confidential", "attorney work product",
	"protected communication", "legal professional privilege",
}

// Result is the outcome of scoring one text
type Result struct {
	Score       int    `json:"score"`
	Level       Level  `json:"level"`
	Explanation string `json:"explanation"`
	EntityCount int    `json:"entity_count"`
}

// Scorer holds the static tables used by Score. It is safe for concurrent use
// as long as the tables are not modified.
type Scorer struct {
	Weights          map[string]int
	LegalKeywords    []string
	PrivilegeMarkers []string
}

// NewScorer returns a Scorer using the built-in tables
func NewScorer() *Scorer {
	return &Scorer{
		Weights:          DefaultWeights,
		LegalKeywords:    DefaultLegalKeywords,
		PrivilegeMarkers: DefaultPrivilegeMarkers,
	}
}

// NewScorerWithWeights returns a Scorer whose weight table is the built-in one
// with overrides applied. The built-in table is not modified.
func NewScorerWithWeights(overrides map[string]int) *Scorer {
	s := NewScorer()
	if len(overrides) == 0 {
		return s
	}
	weights := make(map[string]int, len(DefaultWeights)+len(overrides))
	for label, w := range DefaultWeights {
		weights[label] = w
	}
	for label, w := range overrides {
		weights[detectors.NormalizeLabel(label)] = w
	}
	s.Weights = weights
	return s
}

// Score computes the sensitivity score of text given its entities.
// tenantID is accepted for per-tenant tables and does not affect the result.
// Volume thresholds count characters, not bytes. Halves round to even.
func (s *Scorer) Score(text string, entities []detectors.Entity, tenantID string) Result {
	lowerText := strings.ToLower(text)
	chars := utf8.RuneCountInString(text)

	raw := s.entityScore(entities) + volumeScore(chars) + s.contextScore(text, entities) + s.legalBoost(lowerText)
	score := int(math.Max(0, math.Min(100, math.RoundToEven(raw))))

	return Result{
		Score:       score,
		Level:       LevelFor(score),
		Explanation: s.explain(chars, lowerText, entities),
		EntityCount: len(entities),
	}
}

// LevelFor maps a score onto its level
func LevelFor(score int) Level {
	switch {
	case score <= 25:
		return LevelLow
	case score <= 60:
		return LevelMedium
	case score <= 85:
		return LevelHigh
	default:
		return LevelCritical
	}
}

func (s *Scorer) weight(label string) int {
	if w, ok := s.Weights[label]; ok {
		return w
	}
	return defaultWeight
}

func (s *Scorer) entityScore(entities []detectors.Entity) float64 {
	var score float64
	types := make(map[string]struct{})
	for _, e := range entities {
		score += float64(s.weight(e.Label)) * e.Confidence
		types[e.Label] = struct{}{}
	}

	switch {
	case len(types) >= 3:
		score *= 1.3
	case len(types) >= 2:
		score *= 1.15
	}

	switch {
	case len(entities) >= 10:
		score *= 1.4
	case len(entities) >= 5:
		score *= 1.2
	}

	return math.Min(maxEntityScore, score)
}

func volumeScore(textLen int) float64 {
	switch {
	case textLen >= 5000:
		return 20
	case textLen >= 2000:
		return 10
	case textLen >= 500:
		return 5
	default:
		return 0
	}
}

// contextScore adds a fixed amount per entity whose surrounding window
// contains at least one legal keyword
func (s *Scorer) contextScore(text string, entities []detectors.Entity) float64 {
	var score float64
	for _, e := range entities {
		start := max(0, e.StartPos-contextWindow)
		end := min(len(text), e.EndPos+contextWindow)
		if start >= end {
			continue
		}
		surrounding := strings.ToLower(text[start:end])
		for _, keyword := range s.LegalKeywords {
			if strings.Contains(surrounding, keyword) {
				score += contextPerEntity
				break
			}
		}
	}
	return math.Min(maxContextScore, score)
}

func (s *Scorer) legalBoost(lowerText string) float64 {
	var boost float64
	for _, marker := range s.PrivilegeMarkers {
		if strings.Contains(lowerText, marker) {
			boost += legalBoostPerMarker
		}
	}
	return math.Min(maxLegalBoost, boost)
}

func (s *Scorer) hasPrivilegeMarker(lowerText string) bool {
	for _, marker := range s.PrivilegeMarkers {
		if strings.Contains(lowerText, marker) {
			return true
		}
	}
	return false
}

type typeCount struct {
	label string
	count int
}

func (s *Scorer) explain(chars int, lowerText string, entities []detectors.Entity) string {
	if len(entities) == 0 {
		if chars > 5000 {
			return "Large text volume detected but no specific entities identified."
		}
		return "No sensitive information detected."
	}

	// counts in first-occurrence order so the stable sort breaks ties by it
	var counts []typeCount
	index := make(map[string]int)
	for _, e := range entities {
		i, ok := index[e.Label]
		if !ok {
			i = len(counts)
			index[e.Label] = i
			counts = append(counts, typeCount{label: e.Label})
		}
		counts[i].count++
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})
	if len(counts) > 3 {
		counts = counts[:3]
	}

	descriptions := make([]string, len(counts))
	for i, tc := range counts {
		name := strings.ReplaceAll(strings.ToLower(tc.label), "_", " ")
		if tc.count > 1 {
			name += "s"
		}
		descriptions[i] = fmt.Sprintf("%d %s", tc.count, name)
	}

	parts := []string{"Detected " + strings.Join(descriptions, ", ")}
	if s.hasPrivilegeMarker(lowerText) {
		parts = append(parts, "Contains privilege markers")
	}
	if chars > 2000 {
		parts = append(parts, "Large text volume suggests pasted document")
	}
	return strings.Join(parts, ". ") + "."
}
