// Package loader fetches the smoothie list from the API and enriches every
// record with the macro endpoint's response before the page is rendered.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/smoothiebar/internal/adapters/mq/worker"
	"github.com/okian/smoothiebar/pkg/logger"
	"github.com/okian/smoothiebar/pkg/metrics"
)

// Endpoint paths and their metric labels.
const (
	PathSmoothies       = "/smoothies"
	PathCalculateMacros = "/calculate-macros"

	endpointSmoothies = "smoothies"
	endpointMacros    = "calculate_macros"

	contentTypeJSON = "application/json"
	maxErrorBody    = 256
)

// Fetcher performs HTTP requests. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(req *http.Request) (*http.Response, error)

// Do implements Fetcher.
func (f FetcherFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// Loader builds PageData from the smoothie API.
type Loader struct {
	fetcher     Fetcher
	baseURL     string
	concurrency int
	timeout     time.Duration

	pool   *worker.Pool
	logger logger.Logger
}

// New creates a loader. A nil fetcher uses a plain http.Client.
func New(fetcher Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher:     fetcher,
		baseURL:     "http://localhost:8000",
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.fetcher == nil {
		l.fetcher = &http.Client{}
	}
	if l.logger == nil {
		l.logger = logger.Get().Named("loader")
	}
	if l.concurrency > 1 {
		l.pool = worker.NewPool(l.concurrency, worker.WithName("loader-macros"), worker.WithLogger(l.logger))
	}
	return l
}

// Load requests the smoothie list, then one macro calculation per smoothie,
// and returns the enriched list in the order the API returned it.
//
// Any failure fails the whole load; no partial result is returned. If the list
// request fails no macro request is made.
func (l *Loader) Load(ctx context.Context) (PageData, error) {
	start := time.Now()
	page, err := l.load(ctx)
	ms := float64(time.Since(start).Milliseconds())

	if err != nil {
		metrics.RecordPageLoad(metrics.OutcomeError, ms)
		l.logger.Error(ctx, "page load failed", logger.Error(err), logger.Float64("duration_ms", ms))
		return PageData{}, err
	}

	metrics.RecordPageLoad(metrics.OutcomeSuccess, ms)
	metrics.UpdatePageSmoothies(len(page.Smoothies))
	l.logger.Debug(ctx, "page loaded",
		logger.Int("smoothies", len(page.Smoothies)),
		logger.Float64("duration_ms", ms),
	)
	return page, nil
}

func (l *Loader) load(ctx context.Context) (PageData, error) {
	list, err := l.FetchSmoothies(ctx)
	if err != nil {
		return PageData{}, err
	}

	enriched := make([]EnrichedSmoothie, len(list))
	if l.pool == nil {
		for i, s := range list {
			m, err := l.FetchMacros(ctx, s.Ingredients)
			if err != nil {
				return PageData{}, fmt.Errorf("smoothie %d: %w", i, err)
			}
			enriched[i] = s.WithMacros(m)
		}
		return PageData{Smoothies: enriched}, nil
	}

	jobs := make([]worker.Job, len(list))
	for i := range list {
		jobs[i] = func(ctx context.Context, index int) error {
			m, err := l.FetchMacros(ctx, list[index].Ingredients)
			if err != nil {
				return err
			}
			enriched[index] = list[index].WithMacros(m)
			return nil
		}
	}
	if err := l.pool.Run(ctx, jobs); err != nil {
		var jerr *worker.JobError
		if errors.As(err, &jerr) {
			return PageData{}, fmt.Errorf("smoothie %d: %w", jerr.Index, jerr.Err)
		}
		return PageData{}, err
	}
	return PageData{Smoothies: enriched}, nil
}

// FetchSmoothies issues GET /smoothies and decodes the array.
func (l *Loader) FetchSmoothies(ctx context.Context) ([]Smoothie, error) {
	body, err := l.do(ctx, http.MethodGet, PathSmoothies, endpointSmoothies, nil)
	if err != nil {
		return nil, err
	}

	var list []Smoothie
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, PathSmoothies, err)
	}
	if list == nil {
		return nil, fmt.Errorf("%w: %s: expected an array, got null", ErrDecode, PathSmoothies)
	}
	return list, nil
}

// FetchMacros posts {"ingredients": [...]} to /calculate-macros and returns
// the response body as is. The body must be valid JSON; its shape is not checked.
func (l *Loader) FetchMacros(ctx context.Context, ingredients []string) (MacroResult, error) {
	if ingredients == nil {
		ingredients = []string{}
	}
	payload, err := json.Marshal(struct {
		Ingredients []string `json:"ingredients"`
	}{Ingredients: ingredients})
	if err != nil {
		return nil, fmt.Errorf("%w: encode body: %w", ErrRequest, err)
	}

	body, err := l.do(ctx, http.MethodPost, PathCalculateMacros, endpointMacros, payload)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s", ErrDecode, PathCalculateMacros)
	}
	return MacroResult(body), nil
}

func (l *Loader) do(ctx context.Context, method, path, endpoint string, payload []byte) ([]byte, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	body, err := l.roundTrip(ctx, method, path, payload)
	ms := float64(time.Since(start).Milliseconds())

	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, metrics.OutcomeError, ms)
		metrics.RecordErrorByComponent("loader", errorType(err))
		l.logger.Debug(ctx, "upstream request failed",
			logger.String("method", method),
			logger.String("path", path),
			logger.Error(err),
		)
		return nil, err
	}
	metrics.RecordUpstreamRequest(endpoint, metrics.OutcomeSuccess, ms)
	return body, nil
}

func (l *Loader) roundTrip(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	url := l.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequest, method, url, err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if payload != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := l.fetcher.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequest, method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: read body: %w", ErrRequest, method, url, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet := body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Method: method, URL: url, StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	return body, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrUnexpectedStatus):
		return "status"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "request"
	}
}
