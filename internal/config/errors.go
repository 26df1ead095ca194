package config

import "errors"

// Sentinel kinds for configuration errors.
var (
	// ErrInvalidConfig wraps field constraint failures from Validate.
	ErrInvalidConfig = errors.New("invalid attrition config")
	// ErrLoadConfig wraps failures reading .env, YAML or environment sources.
	ErrLoadConfig = errors.New("load attrition config")
)
