package page

import (
	"context"
	"net/http"

	"github.com/okian/smoothiebar/internal/loader"
	"github.com/okian/smoothiebar/pkg/logger"
)

// PageLoader produces the data for one page view.
type PageLoader interface {
	Load(ctx context.Context) (loader.PageData, error)
}

// RequestIDFunc extracts a request ID from the context for the error page.
type RequestIDFunc func(ctx context.Context) string

// Handler serves GET / by loading and rendering the page on every request.
type Handler struct {
	loader    PageLoader
	requestID RequestIDFunc
	logger    logger.Logger
}

// HandlerOption applies a configuration option to the Handler.
type HandlerOption func(*Handler)

// WithRequestID shows the request ID on the error page.
func WithRequestID(fn RequestIDFunc) HandlerOption {
	return func(h *Handler) {
		h.requestID = fn
	}
}

// WithLogger sets a custom logger for the handler.
func WithLogger(l logger.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates a page handler.
func NewHandler(l PageLoader, opts ...HandlerOption) *Handler {
	h := &Handler{loader: l}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("page")
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	data, err := h.loader.Load(ctx)
	if err != nil {
		h.fail(w, r, "page data unavailable", err)
		return
	}
	view, err := Build(data)
	if err != nil {
		h.fail(w, r, "page data malformed", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := Render(w, view); err != nil {
		h.logger.Error(ctx, "page render failed", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	id := ""
	if h.requestID != nil {
		id = h.requestID(r.Context())
	}
	h.logger.Error(r.Context(), msg, logger.String("request_id", id), logger.Error(err))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadGateway)
	_ = RenderError(w, id)
}
