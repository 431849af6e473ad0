// Where: internal/domain/cfn/template.go
// What: Insert-only CloudFormation resource collection.
// Why: Several stages contribute resources; a repeated logical id is a naming collision.
package cfn

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDuplicateLogicalID reports a naming collision in the resource collection.
var ErrDuplicateLogicalID = errors.New("duplicate logical id")

// Resource is one CloudFormation resource record.
type Resource struct {
	Type       string         `json:"Type"`
	Properties map[string]any `json:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty"`
}

// Output is one CloudFormation stack output.
type Output struct {
	Description string `json:"Description,omitempty"`
	Value       any    `json:"Value"`
}

// Template accumulates compiled resources and outputs.
type Template struct {
	resources map[string]Resource
	order     []string
	outputs   map[string]Output
}

// NewTemplate returns an empty collection.
func NewTemplate() *Template {
	return &Template{
		resources: map[string]Resource{},
		outputs:   map[string]Output{},
	}
}

// Insert adds a resource; it never replaces an existing one.
func (t *Template) Insert(logicalID string, resource Resource) error {
	if logicalID == "" {
		return fmt.Errorf("logical id is required for %s", resource.Type)
	}
	if existing, ok := t.resources[logicalID]; ok {
		return fmt.Errorf("%w: %s (already registered as %s)", ErrDuplicateLogicalID, logicalID, existing.Type)
	}
	t.resources[logicalID] = resource
	t.order = append(t.order, logicalID)
	return nil
}

// SetOutput records a stack output.
func (t *Template) SetOutput(name string, output Output) {
	t.outputs[name] = output
}

// Resource looks up a resource by logical id.
func (t *Template) Resource(logicalID string) (Resource, bool) {
	res, ok := t.resources[logicalID]
	return res, ok
}

// Output looks up a stack output.
func (t *Template) Output(name string) (Output, bool) {
	out, ok := t.outputs[name]
	return out, ok
}

// LogicalIDs returns ids in insertion order.
func (t *Template) LogicalIDs() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

type templateDocument struct {
	Resources map[string]Resource `json:"Resources"`
	Outputs   map[string]Output   `json:"Outputs,omitempty"`
}

// MarshalJSON renders {"Resources": ..., "Outputs": ...}; keys are sorted by encoding/json.
func (t *Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(templateDocument{Resources: t.resources, Outputs: t.outputs})
}
