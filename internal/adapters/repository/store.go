// Package repository loads the smoothie catalog and ingredient data.
package repository

import (
	"context"
	"time"

	"github.com/okian/smoothiebar/internal/domain/model"
)

// Store provides read access to the catalog.
type Store interface {
	// Smoothies returns every recipe in file order.
	Smoothies(ctx context.Context) ([]model.Smoothie, error)

	// Nutrients looks up the per-unit profile of an ingredient by exact name.
	Nutrients(ctx context.Context, name string) (model.NutrientProfile, bool)

	// Stats reports catalog sizes and when they were loaded.
	Stats(ctx context.Context) Stats
}

// Stats summarises the loaded catalog.
type Stats struct {
	Smoothies   int
	Ingredients int
	LoadedAt    time.Time
}
