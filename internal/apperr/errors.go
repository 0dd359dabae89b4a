// Package apperr holds sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrNoPendingCreation = errors.New("no pending creation")
	ErrInvalidSettings   = errors.New("invalid settings")
	ErrInvalidInput      = errors.New("invalid input")
)
