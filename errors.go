package catphotos

import "errors"

var (
	// ErrNotFound is returned when a photo or its metadata record is not found
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a metadata record already exists for a photo id
	ErrConflict = errors.New("already exists")
	// ErrUnauthorized is returned when a family identifier is missing or not allowed
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput is returned when request input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
