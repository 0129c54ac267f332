// Package macros computes macronutrient totals for ingredient lists.
package macros

import (
	"context"
	"fmt"

	"github.com/okian/smoothiebar/internal/domain/ingredient"
	"github.com/okian/smoothiebar/internal/domain/model"
	"github.com/okian/smoothiebar/pkg/metrics"
)

// Catalog resolves an ingredient name to its per-unit nutrients.
type Catalog interface {
	Nutrients(ctx context.Context, name string) (model.NutrientProfile, bool)
}

// Calculator turns ingredient lines into a MacroReport.
type Calculator struct {
	catalog Catalog
}

// NewCalculator creates a calculator backed by catalog.
func NewCalculator(catalog Catalog) *Calculator {
	return &Calculator{catalog: catalog}
}

// Calculate parses every line, scales its catalog entry and sums the totals.
// All failing lines are reported together as ValidationErrors.
func (c *Calculator) Calculate(ctx context.Context, lines []string) (model.MacroReport, error) {
	report := model.MacroReport{Ingredients: make([]model.Ingredient, 0, len(lines))}
	var verrs ValidationErrors
	var total model.Macros

	for i, raw := range lines {
		in, err := c.resolve(ctx, raw)
		if err != nil {
			ie := &IngredientError{Index: i, Input: raw, Name: in.Name, Err: err}
			metrics.RecordIngredientError(ie.Reason())
			verrs = append(verrs, ie)
			continue
		}
		total = total.Add(in)
		report.Ingredients = append(report.Ingredients, in)
	}

	if len(verrs) > 0 {
		return model.MacroReport{}, verrs
	}
	report.Macros = total.Rounded()
	return report, nil
}

func (c *Calculator) resolve(ctx context.Context, raw string) (model.Ingredient, error) {
	line, err := ingredient.Parse(raw)
	if err != nil {
		return model.Ingredient{}, err
	}
	profile, ok := c.catalog.Nutrients(ctx, line.Name)
	if !ok {
		return model.Ingredient{Name: line.Name}, fmt.Errorf("%w: %q", ErrUnknownIngredient, line.Name)
	}

	m := line.Multiplier()
	return model.Ingredient{
		Name:        line.Name,
		Amount:      line.Amount,
		AmountStr:   line.AmountStr,
		Unit:        line.Unit,
		Calories:    profile.Calories * m,
		Protein:     profile.Protein * m,
		Fat:         profile.Fat * m,
		Carbs:       profile.Carbohydrates * m,
		Description: profile.Description,
	}, nil
}
