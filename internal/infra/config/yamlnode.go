// Where: internal/infra/config/yamlnode.go
// What: Order-preserving conversion of yaml.v3 nodes into plain values.
// Why: Functions and environment entries must keep declaration order, and short-form
// intrinsic tags (!Ref, !GetAtt, !Sub) must survive as CloudFormation objects.
package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/envvar"
)

type nodePair struct {
	key   string
	value *yaml.Node
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	node = resolveAlias(node)
	return node == nil || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}

// mappingPairs returns the entries of a mapping node in document order.
func mappingPairs(node *yaml.Node) ([]nodePair, error) {
	node = resolveAlias(node)
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: expected a mapping", ErrInvalidConfig, node.Line)
	}
	pairs := make([]nodePair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		pairs = append(pairs, nodePair{key: node.Content[i].Value, value: node.Content[i+1]})
	}
	return pairs, nil
}

// lookup returns the value node for key in a mapping node, or nil.
func lookup(node *yaml.Node, key string) *yaml.Node {
	node = resolveAlias(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return resolveAlias(node.Content[i+1])
		}
	}
	return nil
}

// nodeToValue converts a node into maps, slices, and scalars.
func nodeToValue(node *yaml.Node) (any, error) {
	node = resolveAlias(node)
	if node == nil {
		return nil, nil
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, nil
		}
		return nodeToValue(node.Content[0])
	}
	if fn, ok := intrinsicName(node.Tag); ok {
		return intrinsicValue(node, fn)
	}

	switch node.Kind {
	case yaml.MappingNode:
		out := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			value, err := nodeToValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[node.Content[i].Value] = value
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := nodeToValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	default:
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidConfig, node.Line, err)
		}
		return value, nil
	}
}

// intrinsicName maps a short-form tag to its long-form key.
func intrinsicName(tag string) (string, bool) {
	if !strings.HasPrefix(tag, "!") || strings.HasPrefix(tag, "!!") {
		return "", false
	}
	name := strings.TrimPrefix(tag, "!")
	if name == "" {
		return "", false
	}
	if name == "Ref" || name == "Condition" {
		return name, true
	}
	return "Fn::" + name, true
}

func intrinsicValue(node *yaml.Node, fn string) (any, error) {
	if node.Kind == yaml.ScalarNode {
		if fn == "Fn::GetAtt" {
			resource, attribute, ok := strings.Cut(node.Value, ".")
			if !ok {
				return nil, fmt.Errorf("%w: line %d: !GetAtt expects Resource.Attribute", ErrInvalidConfig, node.Line)
			}
			return map[string]any{fn: []any{resource, attribute}}, nil
		}
		return map[string]any{fn: node.Value}, nil
	}
	inner := *node
	inner.Tag = ""
	value, err := nodeToValue(&inner)
	if err != nil {
		return nil, err
	}
	return map[string]any{fn: value}, nil
}

// decodeVars reads an environment block in declaration order. Both the mapping
// form and the [{Name, Value}] list form are accepted.
func decodeVars(node *yaml.Node) (envvar.Vars, error) {
	node = resolveAlias(node)
	if isNull(node) {
		return nil, nil
	}
	switch node.Kind {
	case yaml.MappingNode:
		pairs, err := mappingPairs(node)
		if err != nil {
			return nil, err
		}
		vars := make(envvar.Vars, 0, len(pairs))
		for _, pair := range pairs {
			raw, err := nodeToValue(pair.value)
			if err != nil {
				return nil, err
			}
			vars = append(vars, envvar.Var{Name: pair.key, Raw: raw})
		}
		return vars, nil
	case yaml.SequenceNode:
		vars := make(envvar.Vars, 0, len(node.Content))
		for _, item := range node.Content {
			nameNode := lookup(item, "Name")
			if nameNode == nil {
				return nil, fmt.Errorf("%w: line %d: environment entry needs Name", ErrInvalidConfig, item.Line)
			}
			raw, err := nodeToValue(lookup(item, "Value"))
			if err != nil {
				return nil, err
			}
			vars = append(vars, envvar.Var{Name: nameNode.Value, Raw: raw})
		}
		return vars, nil
	default:
		return nil, fmt.Errorf("%w: line %d: environment must be a mapping or a list", ErrInvalidConfig, node.Line)
	}
}
