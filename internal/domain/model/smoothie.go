// Package model contains domain models passed between layers.
package model

// Smoothie is a catalog recipe as served by GET /smoothies.
type Smoothie struct {
	Title       string   `json:"title"`
	Image       string   `json:"image"`
	Ingredients []string `json:"ingredients"`
	Why         *string  `json:"why"`
}

// Catalog is the decoded shape of the recipes data file.
type Catalog struct {
	Smoothies []Smoothie `json:"smoothies"`
}
