package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnresolved       = errors.New("could not resolve identifiers")
	ErrInvalidSelection = errors.New("invalid selection")
)
