// Package report renders offline scan results for the command line.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/hannes/irongate/src/backend/pii"
	"github.com/hannes/irongate/src/backend/pii/scoring"
)

// Output formats
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// EntityRow is one detected entity as shown in a report. Matched text is never
// included; Pseudonym is set when the scan pseudonymized the input.
type EntityRow struct {
	Type       string  `json:"type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Pseudonym  string  `json:"pseudonym,omitempty"`
}

// ScanReport is the result of scanning one input
type ScanReport struct {
	Source      string                `json:"source"`
	ScannedAt   time.Time             `json:"scanned_at"`
	Score       int                   `json:"score"`
	Level       scoring.Level         `json:"level"`
	Explanation string                `json:"explanation"`
	EntityCount int                   `json:"entity_count"`
	Entities    []EntityRow           `json:"entities"`
	EnginesUsed []string              `json:"engines_used"`
	Failures    []pii.ProducerFailure `json:"failures,omitempty"`
	SessionID   string                `json:"session_id,omitempty"`
	MaskedText  string                `json:"masked_text,omitempty"`
}

// NewScanReport assembles a report. pseudonyms maps original text to its
// pseudonym and may be nil.
func NewScanReport(source, text string, detection pii.DetectionReport, result scoring.Result, pseudonyms map[string]string) *ScanReport {
	rows := make([]EntityRow, 0, len(detection.Entities))
	for _, e := range detection.Entities {
		row := EntityRow{
			Type:       e.Label,
			Start:      e.StartPos,
			End:        e.EndPos,
			Confidence: e.Confidence,
			Source:     e.Source,
		}
		if pseudonyms != nil && e.ValidIn(text) {
			row.Pseudonym = pseudonyms[text[e.StartPos:e.EndPos]]
		}
		rows = append(rows, row)
	}

	return &ScanReport{
		Source:      source,
		ScannedAt:   time.Now(),
		Score:       result.Score,
		Level:       result.Level,
		Explanation: result.Explanation,
		EntityCount: len(detection.Entities),
		Entities:    rows,
		EnginesUsed: detection.Contributors,
		Failures:    detection.Failures,
	}
}

// TypeCounts returns the number of entities per type, most frequent first,
// ties by type name
func (r *ScanReport) TypeCounts() []TypeCount {
	counts := make(map[string]int)
	for _, e := range r.Entities {
		counts[e.Type]++
	}
	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// TypeCount pairs an entity type with its number of occurrences
type TypeCount struct {
	Type  string
	Count int
}

// Writer renders a scan report
type Writer interface {
	Write(report *ScanReport) error
}

// NewWriter returns the writer for format
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return NewJSONWriter(output, true), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (use %s or %s)", format, FormatJSON, FormatMarkdown)
	}
}
