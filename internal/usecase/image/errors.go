// Where: internal/usecase/image/errors.go
// What: Error definitions for the image lifecycle.
package image

import "errors"

var (
	// ErrImageNotBuilt means push found no local image to upload.
	ErrImageNotBuilt = errors.New("docker image has not been built")

	errRunnerMissing   = errors.New("command runner is nil")
	errRegistryMissing = errors.New("registry is nil")
	errLocalMissing    = errors.New("local image store is required to prune local images")
)
