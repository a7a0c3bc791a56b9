package server

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/hannes/irongate/src/backend/pii"
	"github.com/hannes/irongate/src/backend/pii/detectors"
	"github.com/hannes/irongate/src/backend/pii/scoring"
)

type detectRequest struct {
	pii.DetectRequest
	FirmID string `json:"firm_id,omitempty"`
}

type detectResponse struct {
	Entities         []detectors.Entity    `json:"entities"`
	ProcessingTimeMs float64               `json:"processing_time_ms"`
	EnginesUsed      []string              `json:"engines_used"`
	Failures         []pii.ProducerFailure `json:"failures,omitempty"`
}

type scoreRequest struct {
	Text     string             `json:"text"`
	Entities []detectors.Entity `json:"entities,omitempty"`
	FirmID   string             `json:"firm_id,omitempty"`
}

type scoreResponse struct {
	scoring.Result
	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

type pseudonymizeResponse struct {
	pii.PseudonymizeResult
	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

type depseudonymizeRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type depseudonymizeResponse struct {
	SessionID        string  `json:"session_id"`
	Text             string  `json:"text"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

type auditResponse struct {
	Events []pii.AuditEvent `json:"events"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type healthResponse struct {
	Status    string               `json:"status"`
	Version   string               `json:"version"`
	Producers []pii.ProducerStatus `json:"producers,omitempty"`
}

// healthCheck reports service status and producer availability
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Version: Version}
	if s.producers != nil {
		resp.Producers = s.producers.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDetect runs detection on the request text
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	started := time.Now()

	report, err := s.service.Detect(r.Context(), req.DetectRequest)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detectResponse{
		Entities:         report.Entities,
		ProcessingTimeMs: elapsedMs(started),
		EnginesUsed:      report.Contributors,
		Failures:         report.Failures,
	})
}

// handleScore scores the request text, detecting entities when none are supplied
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	started := time.Now()

	entities := req.Entities
	if len(entities) == 0 {
		entities = nil
	}

	result, err := s.service.Score(r.Context(), req.Text, entities, req.FirmID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, scoreResponse{Result: result, ProcessingTimeMs: elapsedMs(started)})
}

// handlePseudonymize detects, pseudonymizes and scores in one call
func (s *Server) handlePseudonymize(w http.ResponseWriter, r *http.Request) {
	var req pii.PseudonymizeRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	started := time.Now()

	result, err := s.service.Pseudonymize(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pseudonymizeResponse{PseudonymizeResult: result, ProcessingTimeMs: elapsedMs(started)})
}

// handleDepseudonymize restores session pseudonyms in the request text
func (s *Server) handleDepseudonymize(w http.ResponseWriter, r *http.Request) {
	var req depseudonymizeRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeErrorKind(w, http.StatusBadRequest, KindInvalidInput, "session_id is required")
		return
	}
	started := time.Now()

	text, err := s.service.Depseudonymize(r.Context(), req.SessionID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, depseudonymizeResponse{
		SessionID:        req.SessionID,
		Text:             text,
		ProcessingTimeMs: elapsedMs(started),
	})
}

// handleAudit lists audit events newest first
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorKind(w, http.StatusMethodNotAllowed, KindMethodNotAllowed, "method not allowed")
		return
	}

	audit := s.service.Audit()
	if audit == nil {
		writeJSON(w, http.StatusOK, auditResponse{Events: []pii.AuditEvent{}, Limit: 0})
		return
	}

	limit, err := queryInt(r, "limit", 50, 1, 1000)
	if err != nil {
		writeErrorKind(w, http.StatusBadRequest, KindInvalidInput, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0, 0, math.MaxInt32)
	if err != nil {
		writeErrorKind(w, http.StatusBadRequest, KindInvalidInput, err.Error())
		return
	}

	events, err := audit.ListEvents(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	total, err := audit.CountEvents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, auditResponse{Events: events, Total: total, Limit: limit, Offset: offset})
}

// decodePost checks the method and decodes a JSON body into v. It writes the
// error response and returns false on failure.
func (s *Server) decodePost(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		writeErrorKind(w, http.StatusMethodNotAllowed, KindMethodNotAllowed, "method not allowed")
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorKind(w, http.StatusBadRequest, KindInvalidInput, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", name, lo, hi)
	}
	return n, nil
}

func elapsedMs(started time.Time) float64 {
	ms := float64(time.Since(started).Microseconds()) / 1000
	return math.Round(ms*100) / 100
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] Failed to encode response: %v", err)
	}
}
