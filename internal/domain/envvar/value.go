// Where: internal/domain/envvar/value.go
// What: Environment variable values as literal-or-reference.
// Why: Raw configuration is classified once; compiled resources only see typed values.
package envvar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type kind int

const (
	kindLiteral kind = iota
	kindReference
)

const (
	refKey          = "Ref"
	intrinsicPrefix = "Fn::"
)

// Value is either Literal(text) or Reference(function, target).
type Value struct {
	kind     kind
	literal  string
	function string
	target   any
}

// Literal builds a literal value.
func Literal(text string) Value {
	return Value{kind: kindLiteral, literal: text}
}

// Ref builds a {"Ref": target} reference.
func Ref(target string) Value {
	return Value{kind: kindReference, function: refKey, target: target}
}

// Reference builds an intrinsic reference. function must be "Ref" or start with "Fn::".
func Reference(function string, target any) (Value, error) {
	if !isIntrinsicKey(function) {
		return Value{}, fmt.Errorf("%w: %q is not an intrinsic function", ErrInvalidValue, function)
	}
	return Value{kind: kindReference, function: function, target: target}, nil
}

// Raw returns the value in its configuration shape.
func (v Value) Raw() any {
	if v.kind == kindReference {
		return map[string]any{v.function: v.target}
	}
	return v.literal
}

// MarshalJSON renders literals as strings and references as single-key objects.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

func (v Value) String() string {
	if v.kind == kindReference {
		return fmt.Sprintf("{%s: %v}", v.function, v.target)
	}
	return v.literal
}

// ParseValue classifies a raw configuration value.
// Strings, numbers, booleans and null are literals; a single-key object keyed by
// "Ref" or "Fn::*" is a reference; every other shape is rejected.
func ParseValue(raw any) (Value, error) {
	switch typed := raw.(type) {
	case Value:
		return typed, nil
	case nil:
		return Literal(""), nil
	case string:
		return Literal(typed), nil
	case bool:
		return Literal(strconv.FormatBool(typed)), nil
	case int:
		return Literal(strconv.Itoa(typed)), nil
	case int64:
		return Literal(strconv.FormatInt(typed, 10)), nil
	case uint64:
		return Literal(strconv.FormatUint(typed, 10)), nil
	case float64:
		return Literal(strconv.FormatFloat(typed, 'f', -1, 64)), nil
	case json.Number:
		return Literal(typed.String()), nil
	case map[string]any:
		if len(typed) != 1 {
			return Value{}, fmt.Errorf("%w: object must have exactly one intrinsic key, got %d keys", ErrInvalidValue, len(typed))
		}
		for key, target := range typed {
			return Reference(key, target)
		}
	}
	return Value{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, raw)
}

func isIntrinsicKey(key string) bool {
	return key == refKey || strings.HasPrefix(key, intrinsicPrefix)
}
