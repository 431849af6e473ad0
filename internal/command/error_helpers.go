// Where: internal/command/error_helpers.go
// What: Error helpers for command adapters.
// Why: Keep error output consistent across commands.
package command

import (
	"errors"
	"fmt"
	"io"
)

var (
	errCloudNotConfigured = errors.New("cloud factory is not configured")
	errLocalNotConfigured = errors.New("local image factory is not configured")
)

// exitWithError prints the error and returns exit code 1.
func exitWithError(out io.Writer, err error) int {
	legacyUI(out).Warn(fmt.Sprintf("✗ %v", err))
	return 1
}
