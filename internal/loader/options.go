package loader

import (
	"strings"
	"time"

	"github.com/okian/smoothiebar/pkg/logger"
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithBaseURL sets where /smoothies and /calculate-macros live.
func WithBaseURL(baseURL string) Option {
	return func(l *Loader) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			l.baseURL = trimmed
		}
	}
}

// WithConcurrency bounds in-flight macro requests. Values above 1 switch the
// loader from sequential to fan-out mode; the output order is unchanged.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithTimeout caps each request. Zero leaves requests bounded only by ctx.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d >= 0 {
			l.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the loader.
func WithLogger(logger logger.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
