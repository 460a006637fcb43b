// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/hiscore/internal/domain/model"
	"github.com/okian/hiscore/pkg/logger"
)

const (
	defaultLimit    = 10
	defaultMaxLimit = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the score service.
type Dependencies interface {
	// Submit stores a score. It fails only on duplicate submissions;
	// storage trouble comes back as an offline result.
	Submit(ctx context.Context, s model.Submission) (model.Result, error)

	// TopN returns the ranked leaderboard, empty when storage is offline.
	TopN(ctx context.Context, n int) []model.ScoreRecord

	// Available and Backend describe storage for the health check.
	Available() bool
	Backend() string
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	scoresHandler *ScoresHandler

	logger logger.Logger
}

type serverOptions struct {
	defaultLimit int
	maxLimit     int
	logger       logger.Logger
}

// Option configures NewServer.
type Option func(*serverOptions)

// WithDefaultLimit sets N for GET /api/scores without ?limit.
func WithDefaultLimit(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.defaultLimit = n
		}
	}
}

// WithMaxLimit caps ?limit on GET /api/scores.
func WithMaxLimit(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{defaultLimit: defaultLimit, maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxLimit < o.defaultLimit {
		o.maxLimit = o.defaultLimit
	}
	if o.logger == nil {
		o.logger = logger.Named("api")
	}

	return &Server{
		healthHandler: NewHealthHandler(deps),
		statsHandler:  NewStatsHandler(statsProvider),
		scoresHandler: NewScoresHandler(deps, o.defaultLimit, o.maxLimit),
		logger:        o.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.Handle("/api/scores", s.wrap(s.scoresHandler.HandleScores, "scores"))
	mux.Handle("/healthz", s.wrap(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/stats", s.wrap(s.statsHandler.HandleStats, "stats"))
	mux.Handle("/metrics", MetricsHandler())
}

func (s *Server) wrap(h http.HandlerFunc, endpoint string) http.Handler {
	return RequestIDMiddleware(MetricsMiddleware(h, endpoint), s.logger)
}

// messageResponse carries the offline notice.
type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func methodNotAllowed(w http.ResponseWriter, op, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
}
