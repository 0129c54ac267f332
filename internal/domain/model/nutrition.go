package model

import "strconv"

// NutrientProfile holds the per-unit values of one catalog ingredient.
// Values are for one cup, or one whole item for countable ingredients.
type NutrientProfile struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
	Description   *string `json:"description,omitempty"`
}

// Ingredient is one parsed and scaled ingredient line.
type Ingredient struct {
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	AmountStr   string  `json:"amount_str"`
	Unit        string  `json:"unit"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Fat         float64 `json:"fat"`
	Carbs       float64 `json:"carbs"`
	Description *string `json:"description"`
}

// Macros is a macronutrient total.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// Add returns the element-wise sum of m and the ingredient's values.
func (m Macros) Add(in Ingredient) Macros {
	return Macros{
		Calories: m.Calories + in.Calories,
		Protein:  m.Protein + in.Protein,
		Fat:      m.Fat + in.Fat,
		Carbs:    m.Carbs + in.Carbs,
	}
}

// Rounded rounds every field to one decimal place.
func (m Macros) Rounded() Macros {
	return Macros{
		Calories: Round1(m.Calories),
		Protein:  Round1(m.Protein),
		Fat:      Round1(m.Fat),
		Carbs:    Round1(m.Carbs),
	}
}

// Grams is the combined weight of protein, fat and carbs.
func (m Macros) Grams() float64 {
	return m.Protein + m.Fat + m.Carbs
}

// MacroReport is the response body of POST /calculate-macros.
type MacroReport struct {
	Macros      Macros       `json:"macros"`
	Ingredients []Ingredient `json:"ingredients"`
}

// Round1 rounds v to one decimal place. Rounding works on the exact binary
// value and breaks exact ties to even, so 0.25 -> 0.2 and 0.35 (stored as
// 0.34999...) -> 0.3.
func Round1(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return r
}
