package service

import (
	"errors"

	"workload-planner/internal/repository"
)

var (
	ErrNotFound          = repository.ErrNotFound
	ErrInvalidAbsence    = errors.New("invalid absence")
	ErrAbsenceOverlap    = errors.New("absence overlaps an existing absence")
	ErrInvalidAllocation = errors.New("invalid allocation")
	ErrInvalidEvent      = errors.New("invalid team event")
	// ErrNotEditing is returned by an editor whose lock was lost or that was
	// already closed.
	ErrNotEditing = errors.New("not editing")
)
