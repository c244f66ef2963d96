package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist, or when a claim
	// finds no pending record to hand out.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned by EnqueueTarget when a non-failed target with
	// the same URL already exists.
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidTransition is returned when a status update would move a
	// record backward or skip a step in its status graph.
	ErrInvalidTransition = errors.New("invalid status transition")
)
