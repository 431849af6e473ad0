// Where: internal/usecase/compile/environment.go
// What: Batch compute environment validation and resource generation.
// Why: Job definitions need roles, a compute environment, and a job queue to run against.
package compile

import (
	"fmt"
	"strings"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/cfn"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/deployment"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/service"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/value"
)

const (
	typeIAMRole            = "AWS::IAM::Role"
	typeInstanceProfile    = "AWS::IAM::InstanceProfile"
	typeComputeEnvironment = "AWS::Batch::ComputeEnvironment"
	typeJobQueue           = "AWS::Batch::JobQueue"

	computeTypeEC2  = "EC2"
	computeTypeSpot = "SPOT"

	policyBatchService      = "arn:aws:iam::aws:policy/service-role/AWSBatchServiceRole"
	policyEC2ContainerRole  = "arn:aws:iam::aws:policy/service-role/AmazonEC2ContainerServiceforEC2Role"
	policySpotFleetTagging  = "arn:aws:iam::aws:policy/service-role/AmazonEC2SpotFleetTaggingRole"
	policyLambdaBasicExec   = "arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"
	policyECSTaskExecution  = "arn:aws:iam::aws:policy/service-role/AmazonECSTaskExecutionRolePolicy"
	defaultJobQueuePriority = 1
)

type namedResource struct {
	id       string
	resource cfn.Resource
}

// ValidateBatchSettings checks custom.awsBatch when at least one function declares batch.
func ValidateBatchSettings(svc *service.Service) error {
	if svc == nil || !svc.HasBatchFunctions() {
		return nil
	}
	settings := svc.Batch
	if settings == nil {
		return ErrBatchSettingsMissing
	}
	if len(settings.SecurityGroupIds) == 0 {
		return fmt.Errorf("%w: SecurityGroupIds must list at least one security group", ErrInvalidBatchSettings)
	}
	if len(settings.Subnets) == 0 {
		return fmt.Errorf("%w: Subnets must list at least one subnet", ErrInvalidBatchSettings)
	}
	if raw, ok := settings.ComputeResources["Type"]; ok {
		switch strings.ToUpper(value.AsString(raw)) {
		case computeTypeEC2, computeTypeSpot:
		default:
			return fmt.Errorf("%w: ComputeResources.Type must be EC2 or SPOT, got %v", ErrInvalidBatchSettings, raw)
		}
	}
	if settings.JobQueuePriority != nil && *settings.JobQueuePriority < 0 {
		return fmt.Errorf("%w: JobQueuePriority must not be negative", ErrInvalidBatchSettings)
	}
	return nil
}

// GenerateBatchEnvironment registers IAM roles, the compute environment, and the job queue.
// It is a no-op when no function declares batch.
func GenerateBatchEnvironment(dctx *deployment.Context) error {
	if err := checkContext(dctx); err != nil {
		return err
	}
	if !dctx.Service.HasBatchFunctions() {
		return nil
	}
	if err := ValidateBatchSettings(dctx.Service); err != nil {
		return err
	}

	names := dctx.Naming
	settings := dctx.Service.Batch
	compute := computeResources(dctx, settings)
	spot := strings.EqualFold(value.AsString(compute["Type"]), computeTypeSpot)

	resources := []namedResource{
		{names.BatchServiceRoleLogicalID(), serviceRole("batch.amazonaws.com", policyBatchService)},
		{names.BatchInstanceManagementRoleLogicalID(), serviceRole("ec2.amazonaws.com", policyEC2ContainerRole)},
		{names.BatchInstanceManagementProfileLogicalID(), cfn.Resource{
			Type: typeInstanceProfile,
			Properties: map[string]any{
				"Roles": []any{ref(names.BatchInstanceManagementRoleLogicalID())},
			},
		}},
	}
	if spot {
		resources = append(resources, namedResource{names.BatchSpotFleetManagementRoleLogicalID(), serviceRole("spotfleet.amazonaws.com", policySpotFleetTagging)})
	}
	resources = append(resources,
		namedResource{names.BatchJobExecutionRoleLogicalID(), serviceRole("ecs-tasks.amazonaws.com", policyECSTaskExecution)},
		namedResource{names.LambdaScheduleExecutionRoleLogicalID(), scheduleExecutionRole()},
		namedResource{names.BatchComputeEnvironmentLogicalID(), cfn.Resource{
			Type: typeComputeEnvironment,
			Properties: map[string]any{
				"Type":             "MANAGED",
				"State":            "ENABLED",
				"ServiceRole":      getAttArn(names.BatchServiceRoleLogicalID()),
				"ComputeResources": compute,
			},
		}},
		namedResource{names.BatchJobQueueLogicalID(), cfn.Resource{
			Type: typeJobQueue,
			Properties: map[string]any{
				"JobQueueName": names.BatchJobQueueName(),
				"Priority":     jobQueuePriority(settings),
				"State":        "ENABLED",
				"ComputeEnvironmentOrder": []any{
					map[string]any{
						"Order":              1,
						"ComputeEnvironment": ref(names.BatchComputeEnvironmentLogicalID()),
					},
				},
			},
		}},
	)

	for _, item := range resources {
		if err := dctx.Resources.Insert(item.id, item.resource); err != nil {
			return fmt.Errorf("batch environment: %w", err)
		}
	}
	return nil
}

// computeResources fills defaults only for keys the user left out.
func computeResources(dctx *deployment.Context, settings *service.BatchSettings) map[string]any {
	names := dctx.Naming
	out := value.CloneMap(settings.ComputeResources)
	setDefault(out, "Type", computeTypeEC2)
	setDefault(out, "MinvCpus", 0)
	setDefault(out, "MaxvCpus", 16)
	setDefault(out, "DesiredvCpus", 0)
	setDefault(out, "InstanceTypes", []any{"optimal"})
	setDefault(out, "SecurityGroupIds", toAnySlice(settings.SecurityGroupIds))
	setDefault(out, "Subnets", toAnySlice(settings.Subnets))
	setDefault(out, "InstanceRole", getAttArn(names.BatchInstanceManagementProfileLogicalID()))
	if strings.EqualFold(value.AsString(out["Type"]), computeTypeSpot) {
		out["Type"] = computeTypeSpot
		setDefault(out, "BidPercentage", 100)
		setDefault(out, "SpotIamFleetRole", getAttArn(names.BatchSpotFleetManagementRoleLogicalID()))
	}
	return out
}

func jobQueuePriority(settings *service.BatchSettings) int {
	if settings.JobQueuePriority != nil {
		return *settings.JobQueuePriority
	}
	return defaultJobQueuePriority
}

func serviceRole(principal string, managedPolicy string) cfn.Resource {
	return cfn.Resource{
		Type: typeIAMRole,
		Properties: map[string]any{
			"AssumeRolePolicyDocument": assumeRolePolicy(principal),
			"ManagedPolicyArns":        []any{managedPolicy},
		},
	}
}

func scheduleExecutionRole() cfn.Resource {
	role := serviceRole("lambda.amazonaws.com", policyLambdaBasicExec)
	role.Properties["Policies"] = []any{
		map[string]any{
			"PolicyName": "schedule-batch-submit",
			"PolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{
					map[string]any{
						"Effect":   "Allow",
						"Action":   []any{"batch:SubmitJob"},
						"Resource": "*",
					},
				},
			},
		},
	}
	return role
}

func assumeRolePolicy(principal string) map[string]any {
	return map[string]any{
		"Version": "2012-10-17",
		"Statement": []any{
			map[string]any{
				"Effect":    "Allow",
				"Principal": map[string]any{"Service": []any{principal}},
				"Action":    []any{"sts:AssumeRole"},
			},
		},
	}
}

func ref(logicalID string) map[string]any {
	return map[string]any{"Ref": logicalID}
}

func getAttArn(logicalID string) map[string]any {
	return map[string]any{"Fn::GetAtt": []any{logicalID, "Arn"}}
}

func setDefault(m map[string]any, key string, fallback any) {
	if !value.HasKey(m, key) {
		m[key] = fallback
	}
}

func toAnySlice(items []string) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}
