// Package metrics provides Prometheus metrics for the smoothiebar service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"

	AssetVariantCompressed = "compressed"
	AssetVariantOriginal   = "original"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// HTTP server
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Upstream calls made by the page loader
	upstreamRequests        *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec

	// Page loads
	pageLoads          *prometheus.CounterVec
	pageLoadDuration   prometheus.Histogram
	pageSmoothiesCount prometheus.Gauge

	// Macro calculation
	macroCalculations *prometheus.CounterVec
	ingredientErrors  *prometheus.CounterVec

	// Catalog
	catalogSmoothies   prometheus.Gauge
	catalogIngredients prometheus.Gauge

	// Fan-out worker pool
	workerInflight          prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Assets
	assetRequests      *prometheus.CounterVec
	assetsCompressed   prometheus.Counter
	assetCompressError prometheus.Counter

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // private registry, no default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "smoothiebar",
		subsystem:        "",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status code"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.upstreamRequests = auto.NewCounterVec(
		m.counterOpts("upstream_requests_total", "Requests issued by the page loader by endpoint and outcome"),
		[]string{"endpoint", "outcome"},
	)
	m.upstreamRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("upstream_request_duration_milliseconds", "Page loader request duration in milliseconds"),
		[]string{"endpoint"},
	)

	m.pageLoads = auto.NewCounterVec(
		m.counterOpts("page_loads_total", "Page data loads by outcome"),
		[]string{"outcome"},
	)
	m.pageLoadDuration = auto.NewHistogram(
		m.histogramOpts("page_load_duration_milliseconds", "End-to-end page data load duration in milliseconds"),
	)
	m.pageSmoothiesCount = auto.NewGauge(
		m.gaugeOpts("page_smoothies", "Number of smoothies returned by the last successful page load"),
	)

	m.macroCalculations = auto.NewCounterVec(
		m.counterOpts("macro_calculations_total", "Macro calculation requests by outcome"),
		[]string{"outcome"},
	)
	m.ingredientErrors = auto.NewCounterVec(
		m.counterOpts("ingredient_errors_total", "Ingredient lines rejected by reason"),
		[]string{"reason"},
	)

	m.catalogSmoothies = auto.NewGauge(m.gaugeOpts("catalog_smoothies", "Smoothies in the loaded catalog"))
	m.catalogIngredients = auto.NewGauge(m.gaugeOpts("catalog_ingredients", "Ingredients in the loaded catalog"))

	m.workerInflight = auto.NewGauge(m.gaugeOpts("worker_inflight_jobs", "Fan-out jobs currently running"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Fan-out job latency in milliseconds"),
	)
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Fan-out jobs that returned an error"))

	m.assetRequests = auto.NewCounterVec(
		m.counterOpts("asset_requests_total", "Asset requests by served variant"),
		[]string{"variant"},
	)
	m.assetsCompressed = auto.NewCounter(m.counterOpts("assets_compressed_total", "WebP files compressed at startup"))
	m.assetCompressError = auto.NewCounter(m.counterOpts("asset_compress_errors_total", "WebP compressions that failed"))

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Allocated heap bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause time in milliseconds"),
	)
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Loader Metrics Functions.

// RecordUpstreamRequest records one loader request and its latency.
func RecordUpstreamRequest(endpoint, outcome string, durationMs float64) {
	globalManager.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	globalManager.upstreamRequestDuration.WithLabelValues(endpoint).Observe(durationMs)
}

// RecordPageLoad records a finished page load.
func RecordPageLoad(outcome string, durationMs float64) {
	globalManager.pageLoads.WithLabelValues(outcome).Inc()
	globalManager.pageLoadDuration.Observe(durationMs)
}

// UpdatePageSmoothies sets the smoothie count of the last successful load.
func UpdatePageSmoothies(count int) {
	globalManager.pageSmoothiesCount.Set(float64(count))
}

// Macro Metrics Functions.

// RecordMacroCalculation counts a calculate-macros request.
func RecordMacroCalculation(outcome string) {
	globalManager.macroCalculations.WithLabelValues(outcome).Inc()
}

// RecordIngredientError counts a rejected ingredient line.
func RecordIngredientError(reason string) {
	globalManager.ingredientErrors.WithLabelValues(reason).Inc()
}

// UpdateCatalogSize sets the catalog gauges.
func UpdateCatalogSize(smoothies, ingredients int) {
	globalManager.catalogSmoothies.Set(float64(smoothies))
	globalManager.catalogIngredients.Set(float64(ingredients))
}

// Worker Metrics Functions.

// AddWorkerInflight moves the inflight gauge by delta.
func AddWorkerInflight(delta int) {
	globalManager.workerInflight.Add(float64(delta))
}

// RecordWorkerProcessingLatency observes a fan-out job latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Asset Metrics Functions.

// RecordAssetRequest counts an asset response by variant.
func RecordAssetRequest(variant string) {
	globalManager.assetRequests.WithLabelValues(variant).Inc()
}

// RecordAssetCompressed counts a successful compression.
func RecordAssetCompressed() {
	globalManager.assetsCompressed.Inc()
}

// RecordAssetCompressError counts a failed compression.
func RecordAssetCompressError() {
	globalManager.assetCompressError.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the memory gauge in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes the average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the private registry backing the package helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
