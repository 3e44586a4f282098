package service

import (
	"errors"

	"habit-planner/internal/repository"
)

var (
	// ErrNotFound marks a missing task, template or user.
	ErrNotFound = repository.ErrNotFound
	// ErrValidation marks input that is missing required fields or is malformed.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized marks bad credentials or tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict marks a write that lost a race or violates uniqueness.
	ErrConflict = errors.New("conflict")
)
