package detectors

import (
	"context"
	"fmt"
	"log"
	"regexp"
)

// PatternSpec describes one regular expression and the entity type it yields
type PatternSpec struct {
	Label      string
	Expr       string
	Confidence float64
	// Exclude lists exact matches that must not be reported
	Exclude []string
}

type compiledPattern struct {
	label      string
	re         *regexp.Regexp
	confidence float64
	exclude    map[string]struct{}
}

// RegexDetector implements Detector using an ordered table of regular expressions
type RegexDetector struct {
	name     string
	patterns []compiledPattern
	skipped  []error
}

// NewRegexDetector compiles the given specs. A spec that fails to compile is
// logged and skipped; the remaining patterns stay usable.
func NewRegexDetector(name string, specs []PatternSpec) *RegexDetector {
	d := &RegexDetector{name: name}
	for _, spec := range specs {
		cp, err := compilePattern(spec)
		if err != nil {
			log.Printf("[%s] Skipping pattern for %s: %v", name, spec.Label, err)
			d.skipped = append(d.skipped, err)
			continue
		}
		d.patterns = append(d.patterns, cp)
	}
	return d
}

func compilePattern(spec PatternSpec) (compiledPattern, error) {
	re, err := regexp.Compile(spec.Expr)
	if err != nil {
		return compiledPattern{}, fmt.Errorf("%w: %q: %v", ErrBadPattern, spec.Expr, err)
	}
	exclude := make(map[string]struct{}, len(spec.Exclude))
	for _, e := range spec.Exclude {
		exclude[e] = struct{}{}
	}
	return compiledPattern{
		label:      spec.Label,
		re:         re,
		confidence: spec.Confidence,
		exclude:    exclude,
	}, nil
}

// GetName returns the name of this detector
func (r *RegexDetector) GetName() string {
	return r.name
}

// Skipped returns the compile errors of patterns that were dropped
func (r *RegexDetector) Skipped() []error {
	return r.skipped
}

// Detect processes the input and returns detected entities
func (r *RegexDetector) Detect(ctx context.Context, input DetectorInput) (DetectorOutput, error) {
	entities := []Entity{}

	for _, p := range r.patterns {
		if err := ctx.Err(); err != nil {
			return DetectorOutput{}, err
		}
		entities = append(entities, p.find(input.Text, r.name)...)
	}

	return DetectorOutput{
		Text:     input.Text,
		Entities: entities,
	}, nil
}

func (p compiledPattern) find(text, source string) []Entity {
	var entities []Entity
	for _, match := range p.re.FindAllStringIndex(text, -1) {
		startPos, endPos := match[0], match[1]
		if startPos == endPos {
			continue
		}
		matchedText := text[startPos:endPos]
		if _, skip := p.exclude[matchedText]; skip {
			continue
		}
		entities = append(entities, Entity{
			Text:       matchedText,
			Label:      p.label,
			StartPos:   startPos,
			EndPos:     endPos,
			Confidence: p.confidence,
			Source:     source,
		})
	}
	return entities
}

// Close implements the Detector interface
func (r *RegexDetector) Close() error {
	// Regex detector doesn't need cleanup
	return nil
}

// NewPatternDetector returns the general PII pattern producer
func NewPatternDetector() *RegexDetector {
	return NewRegexDetector(DetectorNamePattern, PIIPatterns)
}

// NewLegalDetector returns the producer for legal-practice entities
func NewLegalDetector() *RegexDetector {
	return NewRegexDetector(DetectorNameLegal, LegalPatterns)
}

// NewSecretScanner returns the producer for credentials and secrets
func NewSecretScanner() *RegexDetector {
	return NewRegexDetector(DetectorNameSecrets, SecretPatterns)
}
