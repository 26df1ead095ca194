package repository

import "errors"

// Sentinel kinds for catalogue errors.
var (
	ErrUnknownDriver = errors.New("unknown registry driver")
	ErrEmptyDSN      = errors.New("registry dsn is empty")
)
