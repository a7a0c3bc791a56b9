package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hannes/irongate/src/backend/config"
	"github.com/hannes/irongate/src/backend/pii"
	"golang.org/x/time/rate"
)

// Version is reported by /health
const Version = "0.1.0"

// maxBodyBytes bounds request bodies
const maxBodyBytes = 10 * 1024 * 1024

// ProducerStatusSource reports producer availability for /health
type ProducerStatusSource interface {
	Status() []pii.ProducerStatus
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	service    *pii.Service
	producers  ProducerStatusSource
	limiter    *rate.Limiter
	httpServer *http.Server
}

// NewServer creates a server over service. producers may be nil.
func NewServer(cfg *config.Config, service *pii.Service, producers ProducerStatusSource) *Server {
	s := &Server{
		config:    cfg,
		service:   service,
		producers: producers,
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}
	return s
}

// Handler returns the API routes wrapped in the server middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthCheck)
	mux.HandleFunc("/v1/detect", s.handleDetect)
	mux.HandleFunc("/v1/score", s.handleScore)
	mux.HandleFunc("/v1/pseudonymize", s.handlePseudonymize)
	mux.HandleFunc("/v1/depseudonymize", s.handleDepseudonymize)
	mux.HandleFunc("/v1/audit", s.handleAudit)

	return s.recoverMiddleware(s.logMiddleware(s.corsMiddleware(s.rateLimitMiddleware(mux))))
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	log.Printf("Starting detection service on port %s", s.config.ListenPort)
	if s.producers != nil {
		for _, st := range s.producers.Status() {
			if st.Available {
				log.Printf("Producer %s active", st.Name)
			} else {
				log.Printf("Producer %s unavailable: %s", st.Name, st.Error)
			}
		}
	}
	if s.limiter != nil {
		log.Printf("Rate limit: %.1f req/s, burst %d", s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst)
	}

	s.httpServer = &http.Server{
		Addr:         s.config.ListenPort,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// recoverMiddleware turns handler panics into 500 responses and reports them to sentry
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[Server] Panic in %s %s: %v", r.Method, r.URL.Path, rec)
				if hub := sentry.CurrentHub().Clone(); hub.Client() != nil {
					hub.Scope().SetRequest(r)
					hub.Recover(rec)
				}
				writeErrorKind(w, http.StatusInternalServerError, KindInternal, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// logMiddleware logs one line per request; bodies are never logged
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.config.Logging.LogRequests {
			next.ServeHTTP(w, r)
			return
		}
		started := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[Server] %s %s (%s)", r.Method, r.URL.Path, time.Since(started).Round(time.Microsecond))
	})
}

// rateLimitMiddleware applies the global token bucket; /health is exempt
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && r.URL.Path != "/health" && !s.limiter.Allow() {
			writeErrorKind(w, http.StatusTooManyRequests, KindRateLimited, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers and answers preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
