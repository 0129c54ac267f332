package api

import (
	"context"
	"net/http"

	"github.com/okian/smoothiebar/internal/domain/model"
	"github.com/okian/smoothiebar/pkg/logger"
)

// SmoothiesDependencies defines the catalog read used by GET /smoothies.
type SmoothiesDependencies interface {
	Smoothies(ctx context.Context) ([]model.Smoothie, error)
}

// SmoothiesHandler handles smoothie list requests.
type SmoothiesHandler struct {
	deps SmoothiesDependencies
}

// NewSmoothiesHandler creates a new smoothies handler.
func NewSmoothiesHandler(deps SmoothiesDependencies) *SmoothiesHandler {
	return &SmoothiesHandler{deps: deps}
}

// HandleGetSmoothies handles GET /smoothies requests.
func (h *SmoothiesHandler) HandleGetSmoothies(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_smoothies"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	list, err := h.deps.Smoothies(r.Context())
	if err != nil {
		logger.Get().Error(r.Context(), "smoothie list unavailable",
			logger.String("request_id", RequestIDFromContext(r.Context())),
			logger.Error(err),
		)
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUpstream, err))
		return
	}
	if list == nil {
		list = []model.Smoothie{}
	}
	writeJSON(w, http.StatusOK, list)
}
