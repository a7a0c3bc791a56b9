package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hannes/irongate/src/backend/pii"
	"github.com/hannes/irongate/src/backend/pii/detectors"
	"github.com/hannes/irongate/src/backend/pii/scoring"
)

const scanText = "Email john@acme.com or jane@acme.com, SSN 123-45-6789"

func sampleReport(pseudonyms map[string]string) *ScanReport {
	detection := pii.DetectionReport{
		Entities: []detectors.Entity{
			{Text: "john@acme.com", Label: "EMAIL", StartPos: 6, EndPos: 19, Confidence: 0.95, Source: "pattern"},
			{Text: "jane@acme.com", Label: "EMAIL", StartPos: 23, EndPos: 36, Confidence: 0.95, Source: "pattern"},
			{Text: "123-45-6789", Label: "SSN", StartPos: 42, EndPos: 53, Confidence: 0.9, Source: "pattern"},
		},
		Contributors: []string{"pattern", "legal"},
		Failures: []pii.ProducerFailure{
			{Producer: "onnx_ner", Error: "detection engine unavailable", Err: errors.New("detection engine unavailable")},
		},
	}
	result := scoring.NewScorer().Score(scanText, detection.Entities, "")
	return NewScanReport("notes.txt", scanText, detection, result, pseudonyms)
}

func TestNewScanReport(t *testing.T) {
	r := sampleReport(map[string]string{"john@acme.com": "a@example.com"})

	if r.EntityCount != 3 || len(r.Entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", r.EntityCount)
	}
	if r.Entities[0].Pseudonym != "a@example.com" || r.Entities[1].Pseudonym != "" {
		t.Errorf("unexpected pseudonyms: %+v", r.Entities)
	}
	if r.Level != scoring.LevelFor(r.Score) {
		t.Errorf("level %s does not match score %d", r.Level, r.Score)
	}
}

func TestTypeCounts(t *testing.T) {
	counts := sampleReport(nil).TypeCounts()
	if len(counts) != 2 || counts[0].Type != "EMAIL" || counts[0].Count != 2 || counts[1].Type != "SSN" {
		t.Errorf("unexpected type counts: %+v", counts)
	}
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONWriter(&buf, true).Write(sampleReport(nil)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["source"] != "notes.txt" || decoded["entity_count"] != float64(3) {
		t.Errorf("unexpected JSON: %s", buf.String())
	}
	if strings.Contains(buf.String(), "john@acme.com") {
		t.Error("report must not contain matched values")
	}
}

func TestMarkdownWriter(t *testing.T) {
	r := sampleReport(map[string]string{"john@acme.com": "a@example.com"})
	r.MaskedText = "Email a@example.com"
	r.SessionID = "s-1"

	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf).Write(r); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Iron Gate Scan Report",
		"## Entities",
		"pie",
		"EMAIL",
		"Pseudonym",
		"a@example.com",
		"## Producer Failures",
		"onnx_ner",
		"## Masked Text",
		"`s-1`",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected markdown to contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "john@acme.com") {
		t.Error("report must not contain matched values")
	}
}

func TestMarkdownWriter_NoEntities(t *testing.T) {
	r := NewScanReport("empty.txt", "hello", pii.DetectionReport{}, scoring.NewScorer().Score("hello", nil, ""), nil)

	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf).Write(r); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No sensitive entities detected.") {
		t.Errorf("unexpected markdown:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "## Masked Text") {
		t.Error("masked text section should be omitted")
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"json", "*report.JSONWriter", false},
		{"", "*report.JSONWriter", false},
		{"Markdown", "*report.MarkdownWriter", false},
		{"md", "*report.MarkdownWriter", false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w, err := NewWriter(tt.format, &buf)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := typeName(w); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case *JSONWriter:
		return "*report.JSONWriter"
	case *MarkdownWriter:
		return "*report.MarkdownWriter"
	}
	return ""
}
