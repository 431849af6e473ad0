// Where: internal/domain/envvar/assemble.go
// What: Ordered environment merge and fail-fast validation.
// Why: Job definitions embed a deterministic Name/Value list built from several config layers.
package envvar

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrInvalidName  = errors.New("invalid environment variable name")
	ErrInvalidValue = errors.New("invalid environment variable value")
)

// Bash identifier rules.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Var is one unvalidated name/value pair as read from configuration.
type Var struct {
	Name string
	Raw  any
}

// Vars is an ordered list of raw variables.
type Vars []Var

// Entry is a validated variable in the compiled Name/Value shape.
type Entry struct {
	Name  string `json:"Name"`
	Value Value  `json:"Value"`
}

// Merge overlays sources from lowest to highest precedence. A key overwritten by a
// later source keeps the position of its first appearance.
func Merge(sources ...Vars) Vars {
	index := map[string]int{}
	var merged Vars
	for _, source := range sources {
		for _, item := range source {
			if pos, ok := index[item.Name]; ok {
				merged[pos].Raw = item.Raw
				continue
			}
			index[item.Name] = len(merged)
			merged = append(merged, item)
		}
	}
	return merged
}

// Validate checks a single variable and classifies its value.
func Validate(item Var) (Entry, error) {
	if !namePattern.MatchString(item.Name) {
		return Entry{}, fmt.Errorf("%w: invalid characters in environment variable %s", ErrInvalidName, item.Name)
	}
	parsed, err := ParseValue(item.Raw)
	if err != nil {
		return Entry{}, fmt.Errorf("environment variable %s must contain string: %w", item.Name, err)
	}
	return Entry{Name: item.Name, Value: parsed}, nil
}

// Assemble merges sources and validates the result in order, stopping at the first violation.
func Assemble(sources ...Vars) ([]Entry, error) {
	merged := Merge(sources...)
	entries := make([]Entry, 0, len(merged))
	for _, item := range merged {
		entry, err := Validate(item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
