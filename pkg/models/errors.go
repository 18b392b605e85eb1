package models

import "errors"

var (
	// ErrInvalidInput marks caller mistakes: empty catalog, non-positive size,
	// unparseable user identifier.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMissingData marks lookups with nothing to return.
	ErrMissingData = errors.New("missing data")
	// ErrIOFailure marks unreadable or malformed catalog sources.
	ErrIOFailure = errors.New("io failure")
)
