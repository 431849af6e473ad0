// Where: internal/usecase/compile/environment_test.go
// What: Tests for core template and batch environment generation.
package compile

import (
	"errors"
	"reflect"
	"testing"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/service"
)

func TestGenerateCoreTemplate(t *testing.T) {
	dctx := newTestContext()
	if err := GenerateCoreTemplate(dctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo, ok := dctx.Resources.Resource("BatchECR")
	if !ok || repo.Type != "AWS::ECR::Repository" || repo.Properties["RepositoryName"] != "svc-dev" {
		t.Fatalf("unexpected repository resource: %+v", repo)
	}
	out, ok := dctx.Resources.Output(RepositoryURLOutput)
	if !ok || out.Value != "123456789012.dkr.ecr.eu-west-1.amazonaws.com/svc-dev" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if err := GenerateCoreTemplate(dctx); err == nil {
		t.Fatalf("expected collision on second generation")
	}
}

func TestGenerateBatchEnvironmentNoBatchFunctions(t *testing.T) {
	dctx := newTestContext(&service.Function{Name: "plain", Handler: "h"})
	dctx.Service.Batch = nil
	if err := GenerateBatchEnvironment(dctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dctx.Resources.LogicalIDs()) != 0 {
		t.Fatalf("expected no resources")
	}
}

func TestValidateBatchSettings(t *testing.T) {
	batchFn := &service.Function{Name: "w", Handler: "h", Batch: &service.Batch{}}

	svc := &service.Service{Functions: []*service.Function{batchFn}}
	if err := ValidateBatchSettings(svc); !errors.Is(err, ErrBatchSettingsMissing) {
		t.Fatalf("expected missing settings, got %v", err)
	}

	svc.Batch = &service.BatchSettings{Subnets: []string{"s"}}
	if err := ValidateBatchSettings(svc); !errors.Is(err, ErrInvalidBatchSettings) {
		t.Fatalf("expected invalid settings, got %v", err)
	}

	svc.Batch = &service.BatchSettings{
		SecurityGroupIds: []string{"sg"},
		Subnets:          []string{"s"},
		ComputeResources: map[string]any{"Type": "FARGATE"},
	}
	if err := ValidateBatchSettings(svc); !errors.Is(err, ErrInvalidBatchSettings) {
		t.Fatalf("expected unsupported type, got %v", err)
	}

	svc.Batch.ComputeResources = map[string]any{"Type": "spot"}
	if err := ValidateBatchSettings(svc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerateBatchEnvironmentEC2(t *testing.T) {
	dctx := newTestContext(&service.Function{Name: "w", Handler: "h", Batch: &service.Batch{}})
	if err := GenerateBatchEnvironment(dctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"BatchServiceRole",
		"BatchInstanceManagementRole",
		"BatchInstanceManagementProfile",
		"BatchJobExecutionRole",
		"BatchLambdaScheduleExecutionRole",
		"BatchComputeEnvironment",
		"BatchJobQueue",
	}
	if got := dctx.Resources.LogicalIDs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected resources: %v", got)
	}
	queue, _ := dctx.Resources.Resource("BatchJobQueue")
	if queue.Properties["JobQueueName"] != "svc-dev-JobQueue" || queue.Properties["Priority"] != 1 {
		t.Fatalf("unexpected queue: %v", queue.Properties)
	}
	env, _ := dctx.Resources.Resource("BatchComputeEnvironment")
	compute := env.Properties["ComputeResources"].(map[string]any)
	if compute["Type"] != "EC2" || compute["MaxvCpus"] != 16 {
		t.Fatalf("unexpected compute resources: %v", compute)
	}
	if _, ok := compute["SpotIamFleetRole"]; ok {
		t.Fatalf("EC2 environment must not reference a spot fleet role")
	}
}

func TestGenerateBatchEnvironmentSpotKeepsUserValues(t *testing.T) {
	dctx := newTestContext(&service.Function{Name: "w", Handler: "h", Batch: &service.Batch{}})
	priority := 10
	dctx.Service.Batch.JobQueuePriority = &priority
	dctx.Service.Batch.ComputeResources = map[string]any{"Type": "spot", "MaxvCpus": 64, "BidPercentage": 40}

	if err := GenerateBatchEnvironment(dctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := dctx.Resources.Resource("BatchSpotFleetManagementRole"); !ok {
		t.Fatalf("expected spot fleet role")
	}
	env, _ := dctx.Resources.Resource("BatchComputeEnvironment")
	compute := env.Properties["ComputeResources"].(map[string]any)
	if compute["Type"] != "SPOT" || compute["MaxvCpus"] != 64 || compute["BidPercentage"] != 40 {
		t.Fatalf("unexpected compute resources: %v", compute)
	}
	if dctx.Service.Batch.ComputeResources["Type"] != "spot" {
		t.Fatalf("settings must not be mutated")
	}
	queue, _ := dctx.Resources.Resource("BatchJobQueue")
	if queue.Properties["Priority"] != 10 {
		t.Fatalf("unexpected priority: %v", queue.Properties["Priority"])
	}
}
