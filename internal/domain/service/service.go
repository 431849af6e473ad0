// Where: internal/domain/service/service.go
// What: Typed view of a service definition (provider, functions, batch settings).
// Why: Every pipeline stage reads the same declared functions in declaration order.
package service

import "github.com/bkozora/serverless-aws-batch-orka/internal/domain/envvar"

// Service is the parsed deployment definition.
type Service struct {
	Name      string
	Provider  Provider
	Batch     *BatchSettings
	Functions []*Function
}

// Provider holds provider-level settings shared by all functions.
type Provider struct {
	Name             string
	Stage            string
	Region           string
	Runtime          string
	AccountID        string
	DeploymentBucket string
	Environment      envvar.Vars
}

// Function is one declared function. Compilation rewrites the deployment fields of
// batch functions in place.
type Function struct {
	Name        string      `json:"-"`
	DeployName  string      `json:"name,omitempty"`
	Handler     string      `json:"handler,omitempty"`
	Runtime     string      `json:"runtime,omitempty"`
	MemorySize  *int        `json:"memorySize,omitempty"`
	Timeout     *int        `json:"timeout,omitempty"`
	Environment envvar.Vars `json:"environment,omitempty"`
	Role        any         `json:"role,omitempty"`
	Package     Package     `json:"package,omitzero"`
	Batch       *Batch      `json:"-"`
}

// Package describes how the function's code is packaged.
type Package struct {
	Individually bool   `json:"individually,omitempty"`
	Artifact     string `json:"artifact,omitempty"`
}

// Batch is the per-function batch sub-specification.
// ContainerProperties never contains "Environment"; that list is decoded in order into Environment.
type Batch struct {
	ContainerProperties    map[string]any
	Environment            envvar.Vars
	RetryStrategy          map[string]any
	Timeout                map[string]any
	Memory                 *int
	ScheduleLoggingEnabled bool
}

// BatchSettings is the service-level batch environment configuration.
type BatchSettings struct {
	SecurityGroupIds []string
	Subnets          []string
	ComputeResources map[string]any
	JobQueuePriority *int
	DeploymentTable  string
}

// BatchFunctions returns functions carrying a batch sub-specification, in declaration order.
func (s *Service) BatchFunctions() []*Function {
	var out []*Function
	for _, fn := range s.Functions {
		if fn.Batch != nil {
			out = append(out, fn)
		}
	}
	return out
}

// HasBatchFunctions reports whether any function declares batch.
func (s *Service) HasBatchFunctions() bool {
	return len(s.BatchFunctions()) > 0
}
