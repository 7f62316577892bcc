package services

import "errors"

var (
	// ErrInvalidRequest marks missing or malformed request parameters.
	// The HTTP layer maps it to a 400 response.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNoAdapter is returned when no site adapter can be resolved at all.
	ErrNoAdapter = errors.New("no site adapter available")
)
