package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/smoothiebar/internal/adapters/http/api"
	"github.com/okian/smoothiebar/internal/adapters/http/page"
	"github.com/okian/smoothiebar/internal/adapters/http/site"
	"github.com/okian/smoothiebar/internal/adapters/http/swagger"
	app "github.com/okian/smoothiebar/internal/app"
	"github.com/okian/smoothiebar/internal/config"
	"github.com/okian/smoothiebar/internal/loader"
	"github.com/okian/smoothiebar/pkg/logger"
	"github.com/okian/smoothiebar/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.InitWithOptions(logger.Options{Format: cfg.LogFormat}); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, loggerInstance)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	if cfg.AssetsCompress {
		compressAssets(ctx, cfg, loggerInstance)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, loggerInstance),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newService builds the catalog service from the data file settings.
func newService(cfg *config.Config, log logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithRecipesPath(cfg.RecipesPath),
		app.WithIngredientsPath(cfg.IngredientsPath),
		app.WithReloadInterval(cfg.CatalogReload()),
	)
}

// newHandler registers every route and wraps the mux with request ID and CORS handling.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc, api.WithAllowedOrigins(cfg.AllowedOrigins))
	apiServer.Register(ctx, mux)

	site.Register(ctx, mux, cfg.AssetsDir)

	pageLoader := loader.New(&http.Client{},
		loader.WithBaseURL(cfg.APIBaseURL),
		loader.WithConcurrency(cfg.LoaderConcurrency),
		loader.WithTimeout(cfg.RequestTimeout()),
		loader.WithLogger(log.Named("loader")),
	)
	pageHandler := page.NewHandler(pageLoader,
		page.WithRequestID(api.RequestIDFromContext),
		page.WithLogger(log.Named("page")),
	)
	mux.HandleFunc("/", api.MetricsMiddleware(pageHandler.ServeHTTP, "page"))

	return apiServer.Handler(mux)
}

// compressAssets builds compressed image variants; failures leave the originals in use.
func compressAssets(ctx context.Context, cfg *config.Config, log logger.Logger) {
	compressor := site.NewCompressor(cfg.AssetsDir,
		site.WithQuality(cfg.AssetsQuality),
		site.WithSize(cfg.AssetsWidth, cfg.AssetsHeight),
		site.WithCompressorLogger(log.Named("assets")),
	)
	n, err := compressor.Compress(ctx)
	if err != nil {
		log.Warn(ctx, "asset compression incomplete; serving originals where missing", logger.Error(err))
	}
	log.Info(ctx, "assets compressed", logger.Int("written", n))
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes catalog gauges; GetStats publishes them as a side effect.
func updateServiceMetrics(svc *app.Service) {
	_ = svc.GetStats()
}
