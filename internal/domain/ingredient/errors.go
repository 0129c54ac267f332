package ingredient

import "errors"

// Sentinel errors returned by Parse.
var (
	ErrEmptyLine     = errors.New("empty ingredient line")
	ErrMissingName   = errors.New("ingredient name missing")
	ErrInvalidAmount = errors.New("invalid amount")
)
