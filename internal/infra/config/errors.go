// Where: internal/infra/config/errors.go
// What: Error definitions for service configuration loading.
package config

import "errors"

var (
	// ErrInvalidConfig wraps schema and shape violations in the service file.
	ErrInvalidConfig = errors.New("invalid service configuration")
	// ErrServiceFileNotFound means no service file exists at or above the start directory.
	ErrServiceFileNotFound = errors.New("service file not found")
)
