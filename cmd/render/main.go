// Command render loads page data from a running smoothie API and writes the page as a static HTML file.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/okian/smoothiebar/internal/adapters/http/page"
	"github.com/okian/smoothiebar/internal/loader"
	"github.com/okian/smoothiebar/pkg/logger"
)

// Default configuration constants.
const (
	defaultBaseURL     = "http://localhost:8000"
	defaultOutput      = "index.html"
	defaultTimeout     = 15 * time.Second
	defaultConcurrency = 1
	defaultRunTimeout  = 2 * time.Minute
)

type options struct {
	BaseURL     string
	Output      string
	Timeout     time.Duration
	Concurrency int
}

func main() {
	var (
		baseURL     = flag.String("url", defaultBaseURL, "Base URL of the smoothie API")
		output      = flag.String("out", defaultOutput, "Output HTML file (- for stdout)")
		timeout     = flag.Duration("timeout", defaultTimeout, "Per-request timeout")
		concurrency = flag.Int("concurrency", defaultConcurrency, "Concurrent macro requests (1 = sequential)")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		showHelp(os.Stdout)
		return
	}

	if err := logger.InitWithOptions(logger.Options{Writer: os.Stderr}); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	opts := options{
		BaseURL:     *baseURL,
		Output:      *output,
		Timeout:     *timeout,
		Concurrency: *concurrency,
	}
	if err := run(ctx, opts, &http.Client{}); err != nil {
		logger.Get().Error(ctx, "render failed", logger.Error(err))
		os.Exit(1)
	}
}

// run renders into memory first so a failed load never truncates an existing file.
func run(ctx context.Context, opts options, fetcher loader.Fetcher) error {
	l := loader.New(fetcher,
		loader.WithBaseURL(opts.BaseURL),
		loader.WithConcurrency(opts.Concurrency),
		loader.WithTimeout(opts.Timeout),
		loader.WithLogger(logger.Named("loader")),
	)

	data, err := l.Load(ctx)
	if err != nil {
		return fmt.Errorf("load page data: %w", err)
	}
	view, err := page.Build(data)
	if err != nil {
		return fmt.Errorf("build page: %w", err)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf, view); err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	if opts.Output == "-" {
		_, err = buf.WriteTo(os.Stdout)
		return err
	}
	if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil { //nolint:gosec // public HTML
		return fmt.Errorf("write %s: %w", opts.Output, err)
	}
	logger.Get().Info(ctx, "page written",
		logger.String("path", opts.Output),
		logger.Int("smoothies", len(view.Smoothies)))
	return nil
}

func showHelp(w io.Writer) {
	fmt.Fprint(w, `render - write the smoothie page as static HTML

Usage:
  render [flags]

Flags:
  -url string          Base URL of the smoothie API (default "`+defaultBaseURL+`")
  -out string          Output HTML file, - for stdout (default "`+defaultOutput+`")
  -timeout duration    Per-request timeout (default 15s)
  -concurrency int     Concurrent macro requests, 1 = sequential (default 1)
  -verbose             Enable debug logging
  -help                Show this help

Examples:
  render -url http://localhost:8000 -out public/index.html
  render -concurrency 4 -out -
`)
}
