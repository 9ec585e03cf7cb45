package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidCollection = errors.New("invalid collection")
	ErrInvalidRecord     = errors.New("invalid record")
)
