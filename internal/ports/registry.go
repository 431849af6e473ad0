// Where: internal/ports/registry.go
// What: Container registry and local image port definitions.
// Why: Image use cases talk to ECR and the docker daemon only through these contracts.
package ports

import "context"

// RegistryAuth holds short-lived login material for a registry.
type RegistryAuth struct {
	Username string
	Password string
	Endpoint string
}

// ImageRef identifies one image in a repository. Either field may be empty.
type ImageRef struct {
	Digest string
	Tag    string
}

// Registry manages images stored in a remote repository.
// ListImages returns no images and no error when the repository does not exist.
type Registry interface {
	Authorization(ctx context.Context) (RegistryAuth, error)
	ListImages(ctx context.Context, repository string) ([]ImageRef, error)
	DeleteImages(ctx context.Context, repository string, images []ImageRef) error
}

// LocalImages inspects and removes images in the local docker daemon.
// Remove treats a missing image as success.
type LocalImages interface {
	Exists(ctx context.Context, ref string) (bool, error)
	Remove(ctx context.Context, ref string) error
}
