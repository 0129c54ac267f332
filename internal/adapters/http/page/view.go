// Package page renders the smoothie page from loader output.
package page

import (
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/okian/smoothiebar/internal/domain/model"
	"github.com/okian/smoothiebar/internal/loader"
)

// View is the data handed to the page template.
type View struct {
	Title     string
	Heading   string
	Intro     template.HTML
	Smoothies []SmoothieView
}

// SmoothieView is one recipe card.
type SmoothieView struct {
	Title       string
	Image       string
	Why         template.HTML
	Ingredients []IngredientView

	// HasMacros is false when the macro response could not be read as a report.
	HasMacros bool
	Macros    model.Macros
	Split     MacroSplit
}

// IngredientView is one ingredient line with its optional description.
type IngredientView struct {
	Text        string
	Description template.HTML
}

// MacroSplit is the share of protein, fat and carbs in the macro grams, in percent.
type MacroSplit struct {
	Protein float64
	Fat     float64
	Carbs   float64
}

// SplitOf computes percentages rounded to 0.1. All zero when there are no grams.
func SplitOf(m model.Macros) MacroSplit {
	total := m.Grams()
	if total <= 0 {
		return MacroSplit{}
	}
	return MacroSplit{
		Protein: model.Round1(m.Protein / total * 100),
		Fat:     model.Round1(m.Fat / total * 100),
		Carbs:   model.Round1(m.Carbs / total * 100),
	}
}

// record is the subset of a backend smoothie the page displays.
type record struct {
	Title       string          `json:"title"`
	Image       string          `json:"image"`
	Ingredients []string        `json:"ingredients"`
	Why         *string         `json:"why"`
	Macros      json.RawMessage `json:"macros"`
}

// Build turns loader output into the page view.
func Build(data loader.PageData) (View, error) {
	v := View{
		Title:     "Gut-Healing Smoothie Recipes",
		Heading:   fmt.Sprintf("%d Gut-Healing Smoothie Recipes", len(data.Smoothies)),
		Intro:     intro,
		Smoothies: make([]SmoothieView, 0, len(data.Smoothies)),
	}
	for i, s := range data.Smoothies {
		sv, err := buildSmoothie(s)
		if err != nil {
			return View{}, fmt.Errorf("smoothie %d: %w", i, err)
		}
		v.Smoothies = append(v.Smoothies, sv)
	}
	return v, nil
}

func buildSmoothie(s loader.EnrichedSmoothie) (SmoothieView, error) {
	var rec record
	if err := s.Decode(&rec); err != nil {
		return SmoothieView{}, err
	}

	sv := SmoothieView{
		Title:       rec.Title,
		Image:       rec.Image,
		Ingredients: make([]IngredientView, len(rec.Ingredients)),
	}
	if rec.Why != nil {
		sv.Why = sanitizeInline(*rec.Why)
	}
	for i, line := range rec.Ingredients {
		sv.Ingredients[i] = IngredientView{Text: line}
	}

	var report model.MacroReport
	if err := json.Unmarshal(rec.Macros, &report); err != nil || !hasMacrosKey(rec.Macros) {
		return sv, nil
	}
	sv.HasMacros = true
	sv.Macros = report.Macros
	sv.Split = SplitOf(report.Macros)

	// The report lists ingredients in request order, one per line.
	if len(report.Ingredients) == len(rec.Ingredients) {
		for i, in := range report.Ingredients {
			if in.Description != nil {
				sv.Ingredients[i].Description = sanitizeInline(*in.Description)
			}
		}
	}
	return sv, nil
}

func hasMacrosKey(raw json.RawMessage) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, ok := probe["macros"]
	return ok
}

const intro template.HTML = `These smoothies are designed to support gut health by balancing the gut
microbiome and promoting beneficial bacteria such as <em>Bifidobacteria</em> and
<em>Lactobacillus</em>. They are rich in prebiotics, probiotics, fiber and polyphenols.`
