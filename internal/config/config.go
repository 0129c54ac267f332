// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and SMOOTHIE_* env vars on top.
// - Load and Validate errors wrap this package's sentinel errors.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// APIBaseURL is where the page loader finds /smoothies and /calculate-macros.
	APIBaseURL string `koanf:"api_base_url"`

	// RecipesPath and IngredientsPath point at the catalog data files.
	RecipesPath     string `koanf:"recipes_path"`
	IngredientsPath string `koanf:"ingredients_path"`

	// CatalogReloadMS re-reads the data files on this period; 0 loads them once.
	CatalogReloadMS int `koanf:"catalog_reload_ms"`

	// AssetsDir is served under /assets/.
	AssetsDir string `koanf:"assets_dir"`

	// AssetsCompress runs cwebp over AssetsDir at startup.
	AssetsCompress bool `koanf:"assets_compress"`
	AssetsQuality  int  `koanf:"assets_quality"`
	AssetsWidth    int  `koanf:"assets_width"`
	AssetsHeight   int  `koanf:"assets_height"`

	// AllowedOrigins lists CORS origins. Env form is comma-separated.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// LoaderConcurrency bounds in-flight macro requests per page load.
	// 0 or 1 keeps the loader strictly sequential.
	LoaderConcurrency int `koanf:"loader_concurrency"`

	// RequestTimeoutMS caps each loader request; 0 disables the client timeout.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":8000",
		APIBaseURL:        "http://localhost:8000",
		RecipesPath:       "data/recipes.json",
		IngredientsPath:   "data/ingredients.json",
		CatalogReloadMS:   0,
		AssetsDir:         "assets",
		AssetsCompress:    false,
		AssetsQuality:     80,
		AssetsWidth:       500,
		AssetsHeight:      500,
		AllowedOrigins:    []string{"http://localhost:3000"},
		LoaderConcurrency: 1,
		RequestTimeoutMS:  15_000,
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// CatalogReload returns CatalogReloadMS as a duration.
func (c *Config) CatalogReload() time.Duration {
	return time.Duration(c.CatalogReloadMS) * time.Millisecond
}
