// Where: internal/domain/deployment/context.go
// What: Shared state threaded through every pipeline stage.
// Why: Stages read the declared service and write the accumulating resources through one explicit handle.
package deployment

import (
	"path/filepath"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/cfn"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/naming"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/service"
)

const (
	// BuildDirName is the build output directory relative to the service path.
	BuildDirName = ".serverless"
	// DockerfileName is the image build specification looked up in the service path.
	DockerfileName = "Dockerfile"
	// DefaultLogRegion is used when no region environment variable is set.
	DefaultLogRegion = "us-east-1"
)

// Context carries one deployment through the pipeline.
type Context struct {
	Service     *service.Service
	Naming      naming.Resolver
	Resources   *cfn.Template
	ServicePath string
	LogRegion   string
}

// New builds a Context with an empty resource collection.
func New(svc *service.Service, resolver naming.Resolver, servicePath, logRegion string) *Context {
	if logRegion == "" {
		logRegion = DefaultLogRegion
	}
	return &Context{
		Service:     svc,
		Naming:      resolver,
		Resources:   cfn.NewTemplate(),
		ServicePath: servicePath,
		LogRegion:   logRegion,
	}
}

// BuildDir is where artifacts and compiled templates are written.
func (c *Context) BuildDir() string {
	return filepath.Join(c.ServicePath, BuildDirName)
}

// DockerfilePath is the conventional build specification location.
func (c *Context) DockerfilePath() string {
	return filepath.Join(c.ServicePath, DockerfileName)
}

// ArtifactPath is the schedule artifact location for a function.
func (c *Context) ArtifactPath(functionName string) string {
	return filepath.Join(c.BuildDir(), c.Naming.FunctionArtifactName(functionName))
}
