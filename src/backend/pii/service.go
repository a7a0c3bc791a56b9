package pii

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/hannes/irongate/src/backend/pii/detectors"
	"github.com/hannes/irongate/src/backend/pii/scoring"
	"github.com/hannes/irongate/src/backend/pii/session"
)

// PseudonymizeRequest asks for entities in Text to be replaced within a session.
// An empty SessionID starts a new session.
type PseudonymizeRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
	FirmID    string `json:"firm_id,omitempty"`
}

// PseudonymizeResult is the outcome of a pseudonymization call
type PseudonymizeResult struct {
	SessionID    string             `json:"session_id"`
	OriginalText string             `json:"original_text"`
	MaskedText   string             `json:"masked_text"`
	Entities     []detectors.Entity `json:"entities"`
	PseudonymMap map[string]string  `json:"pseudonym_map"`
	Score        int                `json:"score"`
	Level        scoring.Level      `json:"level"`
}

// Service composes detection, scoring and session pseudonymization, and
// records an audit event for every call
type Service struct {
	pipeline *DetectionPipeline
	scorer   *scoring.Scorer
	sessions *session.Store
	audit    AuditDB
}

// NewService creates a service. A nil scorer uses the default weights and a
// nil audit database records nothing.
func NewService(pipeline *DetectionPipeline, scorer *scoring.Scorer, sessions *session.Store, audit AuditDB) *Service {
	if scorer == nil {
		scorer = scoring.NewScorer()
	}
	return &Service{
		pipeline: pipeline,
		scorer:   scorer,
		sessions: sessions,
		audit:    audit,
	}
}

// Detect runs the detection pipeline
func (s *Service) Detect(ctx context.Context, req DetectRequest) (DetectionReport, error) {
	report, err := s.pipeline.Detect(ctx, req)
	if err != nil {
		return DetectionReport{}, err
	}

	s.record(ctx, AuditEvent{
		Operation:    OperationDetect,
		EntityCount:  len(report.Entities),
		EntityTypes:  entityTypes(report.Entities),
		Contributors: report.Contributors,
		Failures:     len(report.Failures),
	})
	return report, nil
}

// Score rates the sensitivity of text. When entities is nil they are detected
// first with the default request parameters.
func (s *Service) Score(ctx context.Context, text string, entities []detectors.Entity, tenantID string) (scoring.Result, error) {
	var report DetectionReport
	if entities == nil {
		var err error
		report, err = s.pipeline.Detect(ctx, DetectRequest{Text: text})
		if err != nil {
			return scoring.Result{}, err
		}
		entities = report.Entities
	}

	result := s.scorer.Score(text, entities, tenantID)

	s.record(ctx, AuditEvent{
		Operation:    OperationScore,
		FirmID:       tenantID,
		EntityCount:  len(entities),
		EntityTypes:  entityTypes(entities),
		Score:        result.Score,
		Level:        string(result.Level),
		Contributors: report.Contributors,
		Failures:     len(report.Failures),
	})
	return result, nil
}

// Pseudonymize detects entities in the text, replaces them with session
// pseudonyms and scores the original text
func (s *Service) Pseudonymize(ctx context.Context, req PseudonymizeRequest) (PseudonymizeResult, error) {
	report, err := s.pipeline.Detect(ctx, DetectRequest{Text: req.Text})
	if err != nil {
		return PseudonymizeResult{}, err
	}

	sess, created, err := s.sessions.Acquire(req.SessionID, req.FirmID)
	if err != nil {
		return PseudonymizeResult{}, err
	}
	if created {
		log.Printf("[Service] Started session %s", sess.ID)
	}

	masked, pseudonymMap, _, err := sess.Pseudonymize(ctx, req.Text, report.Entities)
	if err != nil {
		return PseudonymizeResult{}, fmt.Errorf("pseudonymize session %s: %w", sess.ID, err)
	}

	result := s.scorer.Score(req.Text, report.Entities, req.FirmID)

	s.record(ctx, AuditEvent{
		Operation:    OperationPseudonymize,
		SessionID:    sess.ID,
		FirmID:       req.FirmID,
		EntityCount:  len(report.Entities),
		EntityTypes:  entityTypes(report.Entities),
		Score:        result.Score,
		Level:        string(result.Level),
		Contributors: report.Contributors,
		Failures:     len(report.Failures),
	})

	return PseudonymizeResult{
		SessionID:    sess.ID,
		OriginalText: req.Text,
		MaskedText:   masked,
		Entities:     report.Entities,
		PseudonymMap: pseudonymMap,
		Score:        result.Score,
		Level:        result.Level,
	}, nil
}

// Depseudonymize restores the originals of every pseudonym of the session found in text
func (s *Service) Depseudonymize(ctx context.Context, sessionID, text string) (string, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return "", fmt.Errorf("%w: %s", session.ErrSessionNotFound, sessionID)
	}

	restored, err := sess.Depseudonymize(text)
	if err != nil {
		return "", err
	}

	s.record(ctx, AuditEvent{
		Operation: OperationDepseudonymize,
		SessionID: sess.ID,
		FirmID:    sess.FirmID,
	})
	return restored, nil
}

// Audit returns the audit database, or nil when auditing is disabled
func (s *Service) Audit() AuditDB {
	return s.audit
}

// record stores an audit event; a failing audit store never fails the call
func (s *Service) record(ctx context.Context, event AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.InsertEvent(ctx, event); err != nil {
		log.Printf("[Service] Warning: failed to record %s audit event: %v", event.Operation, err)
	}
}

// entityTypes returns the distinct labels of entities, sorted
func entityTypes(entities []detectors.Entity) []string {
	seen := make(map[string]bool, len(entities))
	types := make([]string, 0, len(entities))
	for _, e := range entities {
		if !seen[e.Label] {
			seen[e.Label] = true
			types = append(types, e.Label)
		}
	}
	sort.Strings(types)
	return types
}
