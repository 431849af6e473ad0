// Where: internal/usecase/compile/errors.go
// What: Shared error definitions for compilation.
// Why: Callers classify configuration failures with errors.Is.
package compile

import "errors"

var (
	ErrMissingHandler        = errors.New("could not find handler for batch task")
	ErrBatchSettingsMissing  = errors.New("custom.awsBatch is required when functions declare batch")
	ErrInvalidBatchSettings  = errors.New("invalid custom.awsBatch settings")
	errArtifactWriterMissing = errors.New("schedule artifact writer is not configured")
	errContextIncomplete     = errors.New("deployment context is incomplete")
)
