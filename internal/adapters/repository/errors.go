package repository

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotLoaded    = errors.New("catalog not loaded")
	ErrReadCatalog  = errors.New("read catalog file")
	ErrParseCatalog = errors.New("parse catalog file")
)
