package config

import "errors"

var (
	// ErrInvalidConfig marks a value that loaded but failed Validate.
	ErrInvalidConfig = errors.New("config: invalid value")
	// ErrLoadConfig marks a file, env or decode failure inside Load.
	ErrLoadConfig = errors.New("config: load failed")
)
