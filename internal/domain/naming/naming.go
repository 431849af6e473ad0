// Where: internal/domain/naming/naming.go
// What: Deterministic resource names and logical ids.
// Why: Compiled resources, the schedule shim, and the image lifecycle must agree on every identifier.
package naming

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLogicalIDLength is the CloudFormation limit for logical ids.
const MaxLogicalIDLength = 64

const (
	jobDefinitionPrefix = "JobDefinition"
	imageTag            = "latest"
	artifactExtension   = ".zip"
)

// Resolver derives names from the deployment's service, stage, region, and account.
// All methods are pure; the zero value yields syntactically valid but empty-segment names.
type Resolver struct {
	Service   string
	Stage     string
	Region    string
	AccountID string
}

// New builds a Resolver.
func New(service, stage, region, accountID string) Resolver {
	return Resolver{
		Service:   service,
		Stage:     stage,
		Region:    region,
		AccountID: accountID,
	}
}

// JobDefinitionLogicalID returns "JobDefinition<Name>" truncated to 64 characters.
func (Resolver) JobDefinitionLogicalID(functionName string) string {
	return truncate(jobDefinitionPrefix+capitalize(functionName), MaxLogicalIDLength)
}

// JobDefinitionName is the physical job definition name.
func (r Resolver) JobDefinitionName(functionName string) string {
	return fmt.Sprintf("%s-%s-%s", r.Service, r.Stage, functionName)
}

// FunctionArtifactName is the file name of a function's deployment package.
func (Resolver) FunctionArtifactName(functionName string) string {
	return functionName + artifactExtension
}

// ECRLogicalID is the logical id of the image repository resource.
func (Resolver) ECRLogicalID() string { return "BatchECR" }

// ECRRepositoryName is the lower-cased "<service>-<stage>" repository name.
func (r Resolver) ECRRepositoryName() string {
	return strings.ToLower(fmt.Sprintf("%s-%s", r.Service, r.Stage))
}

// ECRRegistry is the registry host for the account and region.
func (r Resolver) ECRRegistry() string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com", r.AccountID, r.Region)
}

// ECRRepositoryURL is "<registry>/<repository>".
func (r Resolver) ECRRepositoryURL() string {
	return r.ECRRegistry() + "/" + r.ECRRepositoryName()
}

// DockerImageName is the image reference used for build and push.
func (r Resolver) DockerImageName() string {
	return r.ECRRepositoryURL() + ":" + imageTag
}

func (Resolver) BatchServiceRoleLogicalID() string { return "BatchServiceRole" }

func (Resolver) BatchInstanceManagementRoleLogicalID() string {
	return "BatchInstanceManagementRole"
}

func (Resolver) BatchInstanceManagementProfileLogicalID() string {
	return "BatchInstanceManagementProfile"
}

func (Resolver) BatchSpotFleetManagementRoleLogicalID() string {
	return "BatchSpotFleetManagementRole"
}

func (Resolver) BatchJobExecutionRoleLogicalID() string { return "BatchJobExecutionRole" }

func (Resolver) LambdaScheduleExecutionRoleLogicalID() string {
	return "BatchLambdaScheduleExecutionRole"
}

func (Resolver) BatchComputeEnvironmentLogicalID() string { return "BatchComputeEnvironment" }

func (Resolver) BatchJobQueueLogicalID() string { return "BatchJobQueue" }

// BatchJobQueueName is the physical job queue name.
func (r Resolver) BatchJobQueueName() string {
	return fmt.Sprintf("%s-%s-JobQueue", r.Service, r.Stage)
}

func capitalize(name string) string {
	first, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return name
	}
	return string(unicode.ToUpper(first)) + name[size:]
}

func truncate(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit])
}
