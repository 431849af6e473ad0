// Where: internal/ports/deploy.go
// What: Deployment side-effect ports.
// Why: Optional uploads and history records stay swappable and fake-able in tests.
package ports

import (
	"context"
	"time"
)

// AccountResolver returns the AWS account id of the active credentials.
type AccountResolver interface {
	AccountID(ctx context.Context) (string, error)
}

// ArtifactStore uploads local build outputs under a key prefix.
type ArtifactStore interface {
	Upload(ctx context.Context, key, path string) error
}

// DeploymentRecord is one entry in the deployment history.
type DeploymentRecord struct {
	ID        string
	Service   string
	Stage     string
	Region    string
	Action    string
	Image     string
	Functions []string
	CreatedAt time.Time
}

// DeploymentHistory persists deployment records.
type DeploymentHistory interface {
	Record(ctx context.Context, record DeploymentRecord) error
}
