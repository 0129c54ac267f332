package loader

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	fieldIngredients = "ingredients"
	fieldMacros      = "macros"
)

// MacroResult is the macro endpoint's response body, passed through unmodified.
type MacroResult = json.RawMessage

// Smoothie is a backend record. Only Ingredients is interpreted; every other
// field is kept as raw JSON and written back out unchanged.
type Smoothie struct {
	Ingredients []string

	fields map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
// A missing ingredients field decodes as an empty list.
func (s *Smoothie) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("smoothie must be a JSON object")
	}

	var ingredients []string
	if raw, ok := fields[fieldIngredients]; ok {
		if err := json.Unmarshal(raw, &ingredients); err != nil {
			return fmt.Errorf("smoothie %s: %w", fieldIngredients, err)
		}
	}
	if ingredients == nil {
		ingredients = []string{}
	}

	s.Ingredients = ingredients
	s.fields = fields
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Smoothie) MarshalJSON() ([]byte, error) {
	fields, err := s.merged()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// Field returns a backend field as raw JSON.
func (s Smoothie) Field(name string) (json.RawMessage, bool) {
	raw, ok := s.fields[name]
	return raw, ok
}

// WithMacros builds a new enriched record; s is left untouched.
func (s Smoothie) WithMacros(m MacroResult) EnrichedSmoothie {
	return EnrichedSmoothie{Smoothie: s, Macros: m}
}

func (s Smoothie) merged() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(s.fields)+1)
	for k, v := range s.fields {
		out[k] = v
	}
	if _, ok := s.fields[fieldIngredients]; ok || len(s.Ingredients) > 0 {
		raw, err := json.Marshal(s.Ingredients)
		if err != nil {
			return nil, err
		}
		out[fieldIngredients] = raw
	}
	return out, nil
}

// EnrichedSmoothie is a Smoothie plus the macros computed for it.
// It marshals as the backend object with a "macros" field added.
type EnrichedSmoothie struct {
	Smoothie Smoothie
	Macros   MacroResult
}

// MarshalJSON implements json.Marshaler.
func (e EnrichedSmoothie) MarshalJSON() ([]byte, error) {
	fields, err := e.Smoothie.merged()
	if err != nil {
		return nil, err
	}
	macros := e.Macros
	if len(macros) == 0 {
		macros = json.RawMessage("null")
	}
	fields[fieldMacros] = macros
	return json.Marshal(fields)
}

// Decode re-reads the enriched record into v, e.g. a view model struct.
func (e EnrichedSmoothie) Decode(v any) error {
	data, err := e.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// PageData is what the page renderer receives.
type PageData struct {
	Smoothies []EnrichedSmoothie `json:"smoothies"`
}
