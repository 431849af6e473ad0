// Where: internal/infra/config/service.go
// What: Loads the service definition into the typed service model.
// Why: Every command starts from the same validated, order-preserving view of the file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/service"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/value"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/envutil"
)

const (
	defaultProvider = "aws"
	defaultStage    = "dev"

	// Host variable suffixes consulted after flags.
	EnvStage     = "STAGE"
	EnvRegion    = "REGION"
	EnvAccountID = "ACCOUNT_ID"
)

// Options carries command-line overrides. Empty fields fall through to the
// host environment and then to the service file.
type Options struct {
	Stage     string
	Region    string
	AccountID string
}

// LoadFile reads and parses the service file at path.
func LoadFile(path string, opts Options) (*service.Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service file: %w", err)
	}
	svc, err := Parse(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return svc, nil
}

// Parse validates and decodes a service definition.
func Parse(data []byte, opts Options) (*service.Service, error) {
	var doc yaml.Node
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidConfig)
	}
	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: document root must be a mapping", ErrInvalidConfig)
	}

	document, err := nodeToValue(root)
	if err != nil {
		return nil, err
	}
	if err := validateDocument(document); err != nil {
		return nil, err
	}

	svc := &service.Service{Name: serviceName(lookup(root, "service"))}
	provider, err := decodeProvider(lookup(root, "provider"), opts)
	if err != nil {
		return nil, err
	}
	svc.Provider = provider

	batch, err := decodeBatchSettings(lookup(lookup(root, "custom"), "awsBatch"))
	if err != nil {
		return nil, err
	}
	svc.Batch = batch

	functions, err := decodeFunctions(lookup(root, "functions"), svc)
	if err != nil {
		return nil, err
	}
	svc.Functions = functions
	return svc, nil
}

func serviceName(node *yaml.Node) string {
	if node == nil {
		return ""
	}
	if node.Kind == yaml.MappingNode {
		return scalar(lookup(node, "name"))
	}
	return node.Value
}

func decodeProvider(node *yaml.Node, opts Options) (service.Provider, error) {
	provider := service.Provider{
		Name:    firstNonEmpty(scalar(lookup(node, "name")), defaultProvider),
		Runtime: scalar(lookup(node, "runtime")),
	}
	provider.Stage = firstNonEmpty(opts.Stage, envutil.GetHostEnv(EnvStage), scalar(lookup(node, "stage")), defaultStage)
	provider.Region = ResolveRegion(firstNonEmpty(opts.Region, envutil.GetHostEnv(EnvRegion)), scalar(lookup(node, "region")))
	provider.AccountID = firstNonEmpty(opts.AccountID, envutil.GetHostEnv(EnvAccountID), scalar(lookup(node, "accountId")))

	bucket := lookup(node, "deploymentBucket")
	if bucket != nil && bucket.Kind == yaml.MappingNode {
		provider.DeploymentBucket = scalar(lookup(bucket, "name"))
	} else {
		provider.DeploymentBucket = scalar(bucket)
	}

	env, err := decodeVars(lookup(node, "environment"))
	if err != nil {
		return service.Provider{}, fmt.Errorf("provider.environment: %w", err)
	}
	provider.Environment = env
	return provider, nil
}

func decodeBatchSettings(node *yaml.Node) (*service.BatchSettings, error) {
	if isNull(node) {
		return nil, nil
	}
	raw, err := nodeToValue(node)
	if err != nil {
		return nil, err
	}
	fields := value.AsMap(raw)
	settings := &service.BatchSettings{
		SecurityGroupIds: stringList(fields["SecurityGroupIds"]),
		Subnets:          stringList(fields["Subnets"]),
		ComputeResources: value.AsMap(fields["ComputeResources"]),
		DeploymentTable:  value.AsString(fields["deploymentTable"]),
	}
	if priority, ok := value.AsIntPointer(fields["JobQueuePriority"]); ok {
		settings.JobQueuePriority = priority
	}
	return settings, nil
}

func decodeFunctions(node *yaml.Node, svc *service.Service) ([]*service.Function, error) {
	pairs, err := mappingPairs(node)
	if err != nil {
		return nil, fmt.Errorf("functions: %w", err)
	}
	functions := make([]*service.Function, 0, len(pairs))
	for _, pair := range pairs {
		fn, err := decodeFunction(pair.key, pair.value, svc)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", pair.key, err)
		}
		functions = append(functions, fn)
	}
	return functions, nil
}

func decodeFunction(name string, node *yaml.Node, svc *service.Service) (*service.Function, error) {
	fn := &service.Function{
		Name:       name,
		DeployName: firstNonEmpty(scalar(lookup(node, "name")), defaultDeployName(svc, name)),
		Handler:    scalar(lookup(node, "handler")),
		Runtime:    firstNonEmpty(scalar(lookup(node, "runtime")), svc.Provider.Runtime),
	}
	var err error
	if fn.MemorySize, err = optionalInt(lookup(node, "memorySize")); err != nil {
		return nil, fmt.Errorf("memorySize: %w", err)
	}
	if fn.Timeout, err = optionalInt(lookup(node, "timeout")); err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}
	if fn.Environment, err = decodeVars(lookup(node, "environment")); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if role := lookup(node, "role"); role != nil {
		if fn.Role, err = nodeToValue(role); err != nil {
			return nil, fmt.Errorf("role: %w", err)
		}
	}
	if batchNode := lookup(node, "batch"); !isNull(batchNode) {
		if fn.Batch, err = decodeBatch(batchNode); err != nil {
			return nil, fmt.Errorf("batch: %w", err)
		}
	}
	return fn, nil
}

func decodeBatch(node *yaml.Node) (*service.Batch, error) {
	batch := &service.Batch{}
	containerNode := lookup(node, "ContainerProperties")
	if !isNull(containerNode) {
		raw, err := nodeToValue(containerNode)
		if err != nil {
			return nil, err
		}
		batch.ContainerProperties = value.AsMap(raw)
		delete(batch.ContainerProperties, "Environment")
		if batch.Environment, err = decodeVars(lookup(containerNode, "Environment")); err != nil {
			return nil, fmt.Errorf("ContainerProperties.Environment: %w", err)
		}
	}
	for key, target := range map[string]*map[string]any{
		"RetryStrategy": &batch.RetryStrategy,
		"Timeout":       &batch.Timeout,
	} {
		raw, err := nodeToValue(lookup(node, key))
		if err != nil {
			return nil, err
		}
		*target = value.AsMap(raw)
	}
	memory, err := optionalInt(lookup(node, "memory"))
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	batch.Memory = memory
	if logging := lookup(node, "scheduleLoggingEnabled"); logging != nil {
		enabled, err := strconv.ParseBool(logging.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: scheduleLoggingEnabled: %v", ErrInvalidConfig, err)
		}
		batch.ScheduleLoggingEnabled = enabled
	}
	return batch, nil
}

func defaultDeployName(svc *service.Service, function string) string {
	return strings.Join([]string{svc.Name, svc.Provider.Stage, function}, "-")
}

func scalar(node *yaml.Node) string {
	node = resolveAlias(node)
	if node == nil || node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return ""
	}
	return strings.TrimSpace(node.Value)
}

func optionalInt(node *yaml.Node) (*int, error) {
	if isNull(node) {
		return nil, nil
	}
	raw, err := nodeToValue(node)
	if err != nil {
		return nil, err
	}
	parsed, ok := value.AsIntPointer(raw)
	if !ok {
		return nil, fmt.Errorf("%w: expected an integer, got %v", ErrInvalidConfig, raw)
	}
	return parsed, nil
}

func stringList(raw any) []string {
	items := value.AsSlice(raw)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text := value.AsString(item); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
