package pii

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/hannes/irongate/src/backend/pii/detectors"
	"github.com/hannes/irongate/src/backend/pii/fusion"
	"golang.org/x/sync/errgroup"
)

// Request defaults
const (
	DefaultLanguage       = "en"
	DefaultScoreThreshold = 0.3
)

// ProducerSource supplies the producers to run on each request
type ProducerSource interface {
	Producers() []detectors.Detector
}

// DetectRequest is the input of a detection run. A nil ScoreThreshold means
// DefaultScoreThreshold; an empty EntityTypes means every type.
type DetectRequest struct {
	Text           string   `json:"text"`
	EntityTypes    []string `json:"entity_types,omitempty"`
	Language       string   `json:"language,omitempty"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty"`
}

// ProducerFailure records a producer that failed during one run
type ProducerFailure struct {
	Producer string `json:"producer"`
	Error    string `json:"error"`
	Err      error  `json:"-"`
}

// DetectionReport is the result of a detection run
type DetectionReport struct {
	Entities       []detectors.Entity `json:"entities"`
	Contributors   []string           `json:"engines_used"`
	Failures       []ProducerFailure  `json:"failures,omitempty"`
	ProcessingTime time.Duration      `json:"-"`
}

// FailureHook observes producer failures, e.g. to forward them to error reporting
type FailureHook func(ProducerFailure)

// PipelineOption configures a DetectionPipeline
type PipelineOption func(*DetectionPipeline)

// WithFailureHook registers a hook called once per producer failure
func WithFailureHook(hook FailureHook) PipelineOption {
	return func(p *DetectionPipeline) {
		p.onFailure = hook
	}
}

// DetectionPipeline runs every producer on the text and fuses their output
type DetectionPipeline struct {
	source    ProducerSource
	onFailure FailureHook
}

// NewDetectionPipeline creates a pipeline over the producers of source
func NewDetectionPipeline(source ProducerSource, opts ...PipelineOption) *DetectionPipeline {
	p := &DetectionPipeline{source: source}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type producerResult struct {
	entities []detectors.Entity
	err      error
}

// Detect runs all producers concurrently, filters their candidates by
// threshold and requested type, and fuses the survivors. Producer failures
// are reported, not returned; only malformed input is an error.
func (p *DetectionPipeline) Detect(ctx context.Context, req DetectRequest) (DetectionReport, error) {
	started := time.Now()

	threshold := DefaultScoreThreshold
	if req.ScoreThreshold != nil {
		threshold = *req.ScoreThreshold
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return DetectionReport{}, fmt.Errorf("%w: score_threshold must be within [0, 1], got %v", ErrInvalidInput, threshold)
	}

	language := req.Language
	if language == "" {
		language = DefaultLanguage
	}

	var producers []detectors.Detector
	if p.source != nil {
		producers = p.source.Producers()
	}

	report := DetectionReport{
		Entities:     []detectors.Entity{},
		Contributors: []string{},
	}
	if len(producers) == 0 || req.Text == "" {
		report.ProcessingTime = time.Since(started)
		return report, nil
	}

	results := make([]producerResult, len(producers))
	input := detectors.DetectorInput{Text: req.Text, Language: language}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(producers))
	for i, producer := range producers {
		g.Go(func() error {
			results[i] = runProducer(gctx, producer, input)
			// a producer failure never cancels its siblings
			return nil
		})
	}
	_ = g.Wait()

	allowed := typeFilter(req.EntityTypes)
	var candidates []detectors.Entity
	for i, res := range results {
		name := producers[i].GetName()
		if res.err != nil {
			failure := ProducerFailure{Producer: name, Error: res.err.Error(), Err: res.err}
			report.Failures = append(report.Failures, failure)
			log.Printf("[Pipeline] Producer %s failed: %v", name, res.err)
			if p.onFailure != nil {
				p.onFailure(failure)
			}
			continue
		}

		report.Contributors = append(report.Contributors, name)
		for _, e := range res.entities {
			if e.Confidence < threshold {
				continue
			}
			if allowed != nil && !allowed[e.Label] {
				continue
			}
			candidates = append(candidates, e)
		}
	}

	report.Entities = fusion.Fuse(req.Text, candidates)
	report.ProcessingTime = time.Since(started)
	log.Printf("[Pipeline] %d candidates from %d producers fused into %d entities (%d failures)",
		len(candidates), len(report.Contributors), len(report.Entities), len(report.Failures))
	return report, nil
}

// runProducer calls a single producer, turning panics into errors
func runProducer(ctx context.Context, producer detectors.Detector, input detectors.DetectorInput) (res producerResult) {
	defer func() {
		if r := recover(); r != nil {
			res = producerResult{err: fmt.Errorf("%w: panic: %v", detectors.ErrProducerFailed, r)}
		}
	}()

	out, err := producer.Detect(ctx, input)
	if err != nil {
		return producerResult{err: fmt.Errorf("%w: %w", detectors.ErrProducerFailed, err)}
	}
	return producerResult{entities: out.Entities}
}

func typeFilter(types []string) map[string]bool {
	if len(types) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[detectors.NormalizeLabel(t)] = true
	}
	return allowed
}
