// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/smoothiebar/internal/domain/model"
	"github.com/okian/smoothiebar/pkg/logger"
	"github.com/okian/smoothiebar/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Smoothies returns the catalog in file order.
	Smoothies(ctx context.Context) ([]model.Smoothie, error)

	// CalculateMacros parses and sums ingredient lines.
	CalculateMacros(ctx context.Context, ingredients []string) (model.MacroReport, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	smoothiesHandler *SmoothiesHandler
	macrosHandler    *MacrosHandler

	allowedOrigins []string
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithAllowedOrigins sets the CORS origins; "*" allows any origin.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		smoothiesHandler: NewSmoothiesHandler(deps),
		macrosHandler:    NewMacrosHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/smoothies", MetricsMiddleware(s.smoothiesHandler.HandleGetSmoothies, "smoothies"))
	mux.HandleFunc("/calculate-macros", MetricsMiddleware(s.macrosHandler.HandleCalculateMacros, "calculate_macros"))
}

// Handler wraps next with the request ID and CORS middleware.
func (s *Server) Handler(next http.Handler) http.Handler {
	return RequestIDMiddleware(CORSMiddleware(next, s.allowedOrigins))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes before writing the status so an unencodable value becomes a 500, not an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Get().Error(context.Background(), "response encoding failed",
			logger.Int("status", status), logger.Error(WrapKind("api.write_json", ErrServe, err)))
		metrics.RecordErrorByComponent("api", "encode")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
