package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound    = errors.New("saved bout not found")
	ErrInvalidName = errors.New("invalid saved bout name")
)
