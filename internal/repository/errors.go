package repository

import "errors"

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when a user insert hits the unique email constraint.
	ErrDuplicateEmail = errors.New("email already taken")
)
