package repository

import "time"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithRecipesPath sets the recipes file ({"smoothies": [...]}).
func WithRecipesPath(path string) Option {
	return func(s *FileStore) {
		if path != "" {
			s.recipesPath = path
		}
	}
}

// WithIngredientsPath sets the ingredient data file (name -> profile).
func WithIngredientsPath(path string) Option {
	return func(s *FileStore) {
		if path != "" {
			s.ingredientsPath = path
		}
	}
}

// WithReloadInterval re-reads both files periodically. Zero disables reloading.
func WithReloadInterval(interval time.Duration) Option {
	return func(s *FileStore) {
		if interval > 0 {
			s.reloadInterval = interval
		}
	}
}
