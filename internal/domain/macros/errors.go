package macros

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/smoothiebar/internal/domain/ingredient"
)

// ErrUnknownIngredient is returned for names missing from the catalog.
var ErrUnknownIngredient = errors.New("ingredient not found in ingredients data")

// IngredientError ties a failure to its position in the request.
type IngredientError struct {
	Index int
	Input string
	// Name is the parsed ingredient name; empty when the line did not parse.
	Name  string
	Err   error
}

func (e *IngredientError) Error() string {
	return fmt.Sprintf("ingredient %d (%q): %v", e.Index, e.Input, e.Err)
}

func (e *IngredientError) Unwrap() error { return e.Err }

// Reason is a short machine-readable cause, used for metrics and API error types.
func (e *IngredientError) Reason() string {
	switch {
	case errors.Is(e.Err, ErrUnknownIngredient):
		return "unknown_ingredient"
	case errors.Is(e.Err, ingredient.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(e.Err, ingredient.ErrEmptyLine), errors.Is(e.Err, ingredient.ErrMissingName):
		return "malformed_line"
	default:
		return "value_error"
	}
}

// ValidationErrors collects every rejected line of one request.
type ValidationErrors []*IngredientError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}
