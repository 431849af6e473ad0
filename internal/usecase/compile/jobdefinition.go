// Where: internal/usecase/compile/jobdefinition.go
// What: Function-to-JobDefinition compilation.
// Why: Each batch function becomes a job definition with defaults applied only to absent keys.
package compile

import (
	"fmt"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/cfn"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/deployment"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/envvar"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/service"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/value"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/ui"
)

const (
	// TypeJobDefinition is the CloudFormation type of compiled functions.
	TypeJobDefinition = "AWS::Batch::JobDefinition"

	defaultMemoryMB        = 2048
	defaultTimeoutSeconds  = 300
	defaultVcpus           = 1
	defaultRetryAttempts   = 1
	defaultRegion          = "us-east-1"
	commandEventParameter  = "Ref::event"
	batchLogGroup          = "/aws/batch/job"
	batchLogDriver         = "awslogs"
	attemptDurationSeconds = "AttemptDurationSeconds"
)

// ArtifactWriter writes the schedule shim package for one function.
// Implementations must return only after the file is fully written and closed.
type ArtifactWriter interface {
	WriteScheduleArtifact(path string) error
}

// Compiler turns batch functions into job definitions and schedule shims.
type Compiler struct {
	Artifacts ArtifactWriter
	UI        ui.UserInterface
}

// NewCompiler builds a Compiler; a nil UI discards output.
func NewCompiler(artifacts ArtifactWriter, out ui.UserInterface) *Compiler {
	if out == nil {
		out = ui.Discard()
	}
	return &Compiler{Artifacts: artifacts, UI: out}
}

// CompileAll compiles every function in declaration order and stops at the first failure.
func (c *Compiler) CompileAll(dctx *deployment.Context) error {
	if err := checkContext(dctx); err != nil {
		return err
	}
	for _, fn := range dctx.Service.Functions {
		if err := c.CompileFunction(dctx, fn); err != nil {
			return err
		}
	}
	return nil
}

// CompileFunction compiles a single function. Functions without batch are left untouched.
func (c *Compiler) CompileFunction(dctx *deployment.Context, fn *service.Function) error {
	if fn == nil || fn.Batch == nil {
		return nil
	}
	if c.Artifacts == nil {
		return errArtifactWriterMissing
	}

	resource, err := BuildJobDefinition(dctx, fn)
	if err != nil {
		return fmt.Errorf("batch function %q: %w", fn.Name, err)
	}
	logicalID := dctx.Naming.JobDefinitionLogicalID(fn.Name)
	if err := dctx.Resources.Insert(logicalID, resource); err != nil {
		return fmt.Errorf("batch function %q: %w", fn.Name, err)
	}

	artifactPath := dctx.ArtifactPath(fn.Name)
	c.UI.Info(fmt.Sprintf("Building lambda schedule artifact for: %q...", fn.Name))
	if err := c.Artifacts.WriteScheduleArtifact(artifactPath); err != nil {
		return fmt.Errorf("batch function %q: write schedule artifact: %w", fn.Name, err)
	}
	RewireSchedule(dctx, fn, artifactPath)
	return nil
}

// BuildJobDefinition derives the job definition resource without registering it.
func BuildJobDefinition(dctx *deployment.Context, fn *service.Function) (cfn.Resource, error) {
	container, err := containerProperties(dctx, fn)
	if err != nil {
		return cfn.Resource{}, err
	}
	environment, err := envvar.Assemble(
		defaultEnvironment(dctx, fn),
		dctx.Service.Provider.Environment,
		fn.Environment,
		fn.Batch.Environment,
	)
	if err != nil {
		return cfn.Resource{}, err
	}
	container["Environment"] = environment

	return cfn.Resource{
		Type: TypeJobDefinition,
		Properties: map[string]any{
			"JobDefinitionName":   dctx.Naming.JobDefinitionName(fn.Name),
			"Type":                "container",
			"ContainerProperties": container,
			"RetryStrategy":       retryStrategy(fn.Batch),
			"Timeout":             timeoutBlock(fn),
		},
	}, nil
}

func containerProperties(dctx *deployment.Context, fn *service.Function) (map[string]any, error) {
	names := dctx.Naming
	props := value.CloneMap(fn.Batch.ContainerProperties)

	setDefault(props, "Memory", memorySize(fn))
	if !value.HasKey(props, "Command") {
		if fn.Handler == "" {
			return nil, fmt.Errorf("%w %s", ErrMissingHandler, fn.Name)
		}
		props["Command"] = []any{fn.Handler, commandEventParameter}
	}
	setDefault(props, "Image", names.DockerImageName())
	setDefault(props, "Vcpus", defaultVcpus)
	setDefault(props, "JobRoleArn", getAttArn(names.BatchJobExecutionRoleLogicalID()))
	setDefault(props, "LogConfiguration", map[string]any{
		"LogDriver": batchLogDriver,
		"Options": map[string]any{
			"awslogs-group":         batchLogGroup,
			"awslogs-region":        dctx.LogRegion,
			// Repository name, not the image name: ':' and '/' are invalid in stream names.
			"awslogs-stream-prefix": names.ECRRepositoryName(),
		},
	})
	return props, nil
}

func retryStrategy(batch *service.Batch) map[string]any {
	out := value.CloneMap(batch.RetryStrategy)
	setDefault(out, "Attempts", defaultRetryAttempts)
	return out
}

func timeoutBlock(fn *service.Function) map[string]any {
	out := value.CloneMap(fn.Batch.Timeout)
	setDefault(out, attemptDurationSeconds, timeoutSeconds(fn))
	return out
}

// memorySize is batch.memory, then the function memory, then 2048.
func memorySize(fn *service.Function) int {
	return value.FirstNonZero(defaultMemoryMB, fn.Batch.Memory, fn.MemorySize)
}

// timeoutSeconds is batch.Timeout.AttemptDurationSeconds, then the function timeout, then 300.
func timeoutSeconds(fn *service.Function) int {
	return value.FirstNonZero(defaultTimeoutSeconds, fn.Batch.Timeout[attemptDurationSeconds], fn.Timeout)
}

func defaultEnvironment(dctx *deployment.Context, fn *service.Function) envvar.Vars {
	region := dctx.Service.Provider.Region
	if region == "" {
		region = defaultRegion
	}
	return envvar.Vars{
		{Name: "AWS_LAMBDA_FUNCTION_TIMEOUT", Raw: timeoutSeconds(fn)},
		{Name: "AWS_LAMBDA_FUNCTION_MEMORY_SIZE", Raw: memorySize(fn)},
		{Name: "AWS_REGION", Raw: region},
	}
}
