// Where: internal/domain/value/value.go
// What: Value conversion helpers for decoded service configuration.
// Why: Keep compile/merge logic concise without infrastructure dependencies.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AsMap converts a value to map form when possible.
func AsMap(value any) map[string]any {
	if value == nil {
		return nil
	}
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return nil
}

// AsSlice converts a value to slice form, wrapping scalars when needed.
func AsSlice(value any) []any {
	if value == nil {
		return nil
	}
	if v, ok := value.([]any); ok {
		return v
	}
	return []any{value}
}

// AsString returns the string representation of a value.
func AsString(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// AsIntPointer attempts to coerce a value into an int pointer.
func AsIntPointer(value any) (*int, bool) {
	switch typed := value.(type) {
	case int:
		return &typed, true
	case int32:
		intVal := int(typed)
		return &intVal, true
	case int64:
		intVal := int(typed)
		return &intVal, true
	case uint:
		intVal := int(typed)
		return &intVal, true
	case uint64:
		intVal := int(typed)
		return &intVal, true
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return nil, false
		}
		intVal := int(typed)
		return &intVal, true
	case string:
		trimmed := strings.TrimSpace(typed)
		if parsed, err := strconv.Atoi(trimmed); err == nil {
			return &parsed, true
		}
		if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
			intVal := int(parsed)
			return &intVal, true
		}
	}
	return nil, false
}

// AsInt converts a value to int, returning 0 when conversion fails.
func AsInt(value any) int {
	if val, ok := AsIntPointer(value); ok {
		return *val
	}
	return 0
}

// FirstNonZero returns the first candidate that coerces to a non-zero int.
// Zero, unparsable, and nil candidates fall through to the next one.
func FirstNonZero(fallback int, candidates ...any) int {
	for _, candidate := range candidates {
		if ptr, ok := candidate.(*int); ok {
			if ptr == nil {
				continue
			}
			candidate = *ptr
		}
		if val := AsInt(candidate); val != 0 {
			return val
		}
	}
	return fallback
}

// CloneMap returns a shallow copy of the map; nil yields an empty map.
func CloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for key, val := range src {
		out[key] = val
	}
	return out
}

// HasKey reports whether key is present in m, regardless of its value.
func HasKey(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	_, ok := m[key]
	return ok
}
