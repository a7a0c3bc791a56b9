package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/hannes/irongate/src/backend/pii"
	"github.com/hannes/irongate/src/backend/pii/detectors"
	"github.com/hannes/irongate/src/backend/pii/session"
)

// ErrorKind names a class of API error in the response body
type ErrorKind string

const (
	KindInvalidInput      ErrorKind = "InvalidInput"
	KindInvalidSpan       ErrorKind = "InvalidSpan"
	KindSessionExpired    ErrorKind = "SessionExpired"
	KindSessionNotFound   ErrorKind = "SessionNotFound"
	KindEngineUnavailable ErrorKind = "EngineUnavailable"
	KindRateLimited       ErrorKind = "RateLimited"
	KindMethodNotAllowed  ErrorKind = "MethodNotAllowed"
	KindInternal          ErrorKind = "Internal"
)

type errorDetail struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// classify maps a service error to its kind and HTTP status
func classify(err error) (ErrorKind, int) {
	switch {
	case errors.Is(err, pii.ErrInvalidInput):
		return KindInvalidInput, http.StatusBadRequest
	case errors.Is(err, detectors.ErrInvalidSpan):
		return KindInvalidSpan, http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrSessionExpired):
		return KindSessionExpired, http.StatusGone
	case errors.Is(err, session.ErrSessionNotFound):
		return KindSessionNotFound, http.StatusNotFound
	case errors.Is(err, detectors.ErrEngineUnavailable):
		return KindEngineUnavailable, http.StatusServiceUnavailable
	default:
		return KindInternal, http.StatusInternalServerError
	}
}

// writeError writes the structured error body for err
func writeError(w http.ResponseWriter, err error) {
	kind, status := classify(err)
	message := err.Error()
	if kind == KindInternal {
		log.Printf("[Server] Internal error: %v", err)
		message = "internal error"
	}
	writeErrorKind(w, status, kind, message)
}

func writeErrorKind(w http.ResponseWriter, status int, kind ErrorKind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Kind: kind, Message: message}}); err != nil {
		log.Printf("[Server] Failed to write error response: %v", err)
	}
}
