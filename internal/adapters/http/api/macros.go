package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/smoothiebar/internal/domain/macros"
	"github.com/okian/smoothiebar/internal/domain/model"
	"github.com/okian/smoothiebar/pkg/logger"
	"github.com/okian/smoothiebar/pkg/metrics"
)

const maxMacrosBody = 1 << 20

// MacrosDependencies defines the calculator used by POST /calculate-macros.
type MacrosDependencies interface {
	CalculateMacros(ctx context.Context, ingredients []string) (model.MacroReport, error)
}

// MacrosHandler handles macro calculation requests.
type MacrosHandler struct {
	deps MacrosDependencies
}

// NewMacrosHandler creates a new macros handler.
func NewMacrosHandler(deps MacrosDependencies) *MacrosHandler {
	return &MacrosHandler{deps: deps}
}

// macrosRequest mirrors the OpenAPI schema for POST /calculate-macros.
type macrosRequest struct {
	Ingredients *[]string `json:"ingredients"`
}

// validationDetail is one entry of a 422 response.
type validationDetail struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

type validationResponse struct {
	Detail []validationDetail `json:"detail"`
	Body   any                `json:"body"`
}

// HandleCalculateMacros handles POST /calculate-macros requests.
func (h *MacrosHandler) HandleCalculateMacros(w http.ResponseWriter, r *http.Request) {
	const op = "api.calculate_macros"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMacrosBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrBadRequest, err))
		return
	}

	var req macrosRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.reject(w, r, op, raw, []validationDetail{{
			Loc:  []any{"body"},
			Msg:  fmt.Sprintf("JSON decode error: %v", err),
			Type: "json_invalid",
		}})
		return
	}
	if req.Ingredients == nil {
		h.reject(w, r, op, raw, []validationDetail{{
			Loc:  []any{"body", "ingredients"},
			Msg:  "Field required",
			Type: "missing",
		}})
		return
	}

	report, err := h.deps.CalculateMacros(r.Context(), *req.Ingredients)
	if err != nil {
		var verrs macros.ValidationErrors
		if errors.As(err, &verrs) {
			h.reject(w, r, op, raw, detailsFor(verrs))
			return
		}
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUpstream, err))
		return
	}
	if report.Ingredients == nil {
		report.Ingredients = []model.Ingredient{}
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *MacrosHandler) reject(w http.ResponseWriter, r *http.Request, op string, raw []byte, details []validationDetail) {
	metrics.RecordErrorByComponent("api", "validation")
	logger.Get().Error(r.Context(), "request validation failed",
		logger.Error(NewKind(op, ErrValidation)),
		logger.String("method", r.Method),
		logger.String("url", r.URL.String()),
		logger.String("request_id", RequestIDFromContext(r.Context())),
		logger.Any("errors", details),
	)
	writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Detail: details, Body: echoBody(raw)})
}

func detailsFor(verrs macros.ValidationErrors) []validationDetail {
	out := make([]validationDetail, len(verrs))
	for i, e := range verrs {
		msg := e.Err.Error()
		if errors.Is(e.Err, macros.ErrUnknownIngredient) {
			msg = fmt.Sprintf("Ingredient '%s' not found in ingredients data", e.Name)
		}
		out[i] = validationDetail{
			Loc:  []any{"body", "ingredients", e.Index},
			Msg:  msg,
			Type: e.Reason(),
		}
	}
	return out
}

// echoBody returns the request body as JSON when it parses, else as a string.
func echoBody(raw []byte) any {
	trimmed := bytes.TrimSpace(raw)
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	return string(raw)
}
