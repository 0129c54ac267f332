// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	repository "github.com/okian/smoothiebar/internal/adapters/repository"
	"github.com/okian/smoothiebar/internal/domain/macros"
	"github.com/okian/smoothiebar/internal/domain/model"
	"github.com/okian/smoothiebar/pkg/logger"
	"github.com/okian/smoothiebar/pkg/metrics"
)

// ErrNotStarted is returned by catalog reads before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the smoothie catalog.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	calculator *macros.Calculator

	// Configuration
	recipesPath     string
	ingredientsPath string
	reloadInterval  time.Duration

	// State
	started   bool
	ownsStore bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecipesPath sets the recipes data file.
func WithRecipesPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.recipesPath = path
		}
	}
}

// WithIngredientsPath sets the ingredient data file.
func WithIngredientsPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.ingredientsPath = path
		}
	}
}

// WithReloadInterval makes the file catalog re-read its data periodically.
func WithReloadInterval(interval time.Duration) Option {
	return func(s *Service) {
		s.reloadInterval = interval
	}
}

// WithStore replaces the file-backed catalog.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		recipesPath:     "data/recipes.json",
		ingredientsPath: "data/ingredients.json",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the catalog and prepares the calculator.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting smoothie service...")

	if s.store == nil {
		fs := repository.NewFileStore(
			repository.WithRecipesPath(s.recipesPath),
			repository.WithIngredientsPath(s.ingredientsPath),
			repository.WithReloadInterval(s.reloadInterval),
		)
		if err := fs.Load(ctx); err != nil {
			return err
		}
		fs.StartReloading(ctx)
		s.store = fs
		s.ownsStore = true
	}

	s.calculator = macros.NewCalculator(s.store)

	st := s.store.Stats(ctx)
	metrics.UpdateCatalogSize(st.Smoothies, st.Ingredients)

	s.started = true
	s.logger.Info(ctx, "smoothie service started",
		logger.Int("smoothies", st.Smoothies),
		logger.Int("ingredients", st.Ingredients),
	)
	return nil
}

// Stop releases the catalog. A store passed through WithStore is left open.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping smoothie service...")

	if s.ownsStore {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(context.Background(), "smoothie service stopped")
}

// Smoothies returns the catalog in file order.
func (s *Service) Smoothies(ctx context.Context) ([]model.Smoothie, error) {
	s.mu.RLock()
	store, started := s.store, s.started
	s.mu.RUnlock()

	if !started {
		return nil, ErrNotStarted
	}
	return store.Smoothies(ctx)
}

// CalculateMacros parses and sums the given ingredient lines.
func (s *Service) CalculateMacros(ctx context.Context, ingredients []string) (model.MacroReport, error) {
	s.mu.RLock()
	calc, started := s.calculator, s.started
	s.mu.RUnlock()

	if !started {
		return model.MacroReport{}, ErrNotStarted
	}

	report, err := calc.Calculate(ctx, ingredients)
	if err != nil {
		metrics.RecordMacroCalculation(metrics.OutcomeError)
		s.logger.Debug(ctx, "macro calculation rejected",
			logger.Strings("ingredients", ingredients),
			logger.Error(err),
		)
		return model.MacroReport{}, err
	}
	metrics.RecordMacroCalculation(metrics.OutcomeSuccess)
	return report, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": s.started,
	}

	if s.started {
		st := s.store.Stats(context.Background())
		stats["smoothies"] = st.Smoothies
		stats["ingredients"] = st.Ingredients
		stats["loadedAt"] = st.LoadedAt.UTC().Format(time.RFC3339)

		metrics.UpdateCatalogSize(st.Smoothies, st.Ingredients)
	}

	return stats
}
