package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/smoothiebar/internal/domain/model"
	"github.com/okian/smoothiebar/pkg/logger"
	"github.com/okian/smoothiebar/pkg/metrics"
)

// snapshot is an immutable view of both data files.
type snapshot struct {
	smoothies   []model.Smoothie
	ingredients map[string]model.NutrientProfile
	loadedAt    time.Time
}

// FileStore is a read-only Store backed by two JSON files.
// Readers never block: a reload publishes a new snapshot atomically.
type FileStore struct {
	recipesPath     string
	ingredientsPath string
	reloadInterval  time.Duration

	snapshot atomic.Pointer[snapshot]

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewFileStore constructs a store. Call Load before serving reads.
func NewFileStore(opts ...Option) *FileStore {
	s := &FileStore{
		recipesPath:     "data/recipes.json",
		ingredientsPath: "data/ingredients.json",
		stopChan:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads both files and publishes them. On error the previous snapshot stays.
func (s *FileStore) Load(_ context.Context) error {
	var catalog model.Catalog
	if err := readJSON(s.recipesPath, &catalog); err != nil {
		metrics.RecordErrorByComponent("repository", "load_recipes")
		return err
	}
	ingredients := make(map[string]model.NutrientProfile)
	if err := readJSON(s.ingredientsPath, &ingredients); err != nil {
		metrics.RecordErrorByComponent("repository", "load_ingredients")
		return err
	}
	if catalog.Smoothies == nil {
		catalog.Smoothies = []model.Smoothie{}
	}

	s.snapshot.Store(&snapshot{
		smoothies:   catalog.Smoothies,
		ingredients: ingredients,
		loadedAt:    time.Now(),
	})
	metrics.UpdateCatalogSize(len(catalog.Smoothies), len(ingredients))
	return nil
}

// StartReloading re-reads the files every reload interval until ctx is done or Close is called.
func (s *FileStore) StartReloading(ctx context.Context) {
	if s.reloadInterval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.reloadInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				if err := s.Load(ctx); err != nil {
					logger.Get().Warn(ctx, "catalog reload failed, keeping previous data", logger.Error(err))
				}
			}
		}
	}()
}

// Close stops background reloading.
func (s *FileStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Smoothies implements Store.Smoothies. The returned slice is a copy.
func (s *FileStore) Smoothies(_ context.Context) ([]model.Smoothie, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	out := make([]model.Smoothie, len(snap.smoothies))
	copy(out, snap.smoothies)
	return out, nil
}

// Nutrients implements Store.Nutrients.
func (s *FileStore) Nutrients(_ context.Context, name string) (model.NutrientProfile, bool) {
	snap := s.snapshot.Load()
	if snap == nil {
		return model.NutrientProfile{}, false
	}
	p, ok := snap.ingredients[name]
	return p, ok
}

// Stats implements Store.Stats.
func (s *FileStore) Stats(_ context.Context) Stats {
	snap := s.snapshot.Load()
	if snap == nil {
		return Stats{}
	}
	return Stats{
		Smoothies:   len(snap.smoothies),
		Ingredients: len(snap.ingredients),
		LoadedAt:    snap.loadedAt,
	}
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrReadCatalog, path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w %s: %w", ErrParseCatalog, path, err)
	}
	return nil
}
