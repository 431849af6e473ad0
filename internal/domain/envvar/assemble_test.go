// Where: internal/domain/envvar/assemble_test.go
// What: Tests for environment merge precedence and validation.
// Why: Invalid variables must fail fast and valid ones must keep a stable order.
package envvar

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestValidateNames(t *testing.T) {
	if _, err := Validate(Var{Name: "FOO-BAR", Raw: "baz"}); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid name error, got %v", err)
	}
	if _, err := Validate(Var{Name: "1ABC", Raw: "baz"}); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid name error, got %v", err)
	}
	entry, err := Validate(Var{Name: "FOO_BAR", Raw: "baz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Value.Raw() != "baz" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestValidateValues(t *testing.T) {
	entry, err := Validate(Var{Name: "REF", Raw: map[string]any{"Ref": "SomeResource"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(entry.Value.Raw(), map[string]any{"Ref": "SomeResource"}) {
		t.Fatalf("unexpected reference: %+v", entry.Value)
	}

	if _, err := Validate(Var{Name: "ATT", Raw: map[string]any{"Fn::GetAtt": []any{"Queue", "Arn"}}}); err != nil {
		t.Fatalf("expected Fn:: reference to be accepted: %v", err)
	}

	_, err = Validate(Var{Name: "BAD", Raw: map[string]any{"Foo": "x", "Ref": "y"}})
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected invalid value error, got %v", err)
	}
	if !strings.Contains(err.Error(), "BAD") {
		t.Fatalf("error must name the key: %v", err)
	}

	if _, err := Validate(Var{Name: "FOO", Raw: map[string]any{"Foo": "x"}}); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected non-intrinsic object to be rejected, got %v", err)
	}
	if _, err := Validate(Var{Name: "LIST", Raw: []any{"a"}}); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected list to be rejected, got %v", err)
	}
}

func TestParseValueScalars(t *testing.T) {
	cases := []struct {
		raw  any
		want string
	}{
		{raw: 512, want: "512"},
		{raw: float64(1.5), want: "1.5"},
		{raw: float64(300), want: "300"},
		{raw: true, want: "true"},
		{raw: nil, want: ""},
		{raw: Literal("kept"), want: "kept"},
	}
	for _, tc := range cases {
		got, err := ParseValue(tc.raw)
		if err != nil {
			t.Fatalf("ParseValue(%v): %v", tc.raw, err)
		}
		if got.Raw() != tc.want {
			t.Fatalf("ParseValue(%v) = %v, want %q", tc.raw, got.Raw(), tc.want)
		}
	}
}

func TestMergePrecedenceKeepsFirstPosition(t *testing.T) {
	defaults := Vars{{Name: "A", Raw: "1"}, {Name: "B", Raw: "1"}}
	provider := Vars{{Name: "C", Raw: "2"}, {Name: "A", Raw: "2"}}
	function := Vars{{Name: "B", Raw: "3"}}

	merged := Merge(defaults, provider, function)
	names := make([]string, 0, len(merged))
	for _, item := range merged {
		names = append(names, item.Name+"="+item.Raw.(string))
	}
	if got := strings.Join(names, ","); got != "A=2,B=3,C=2" {
		t.Fatalf("unexpected merge result: %s", got)
	}
	if defaults[0].Raw != "1" {
		t.Fatalf("merge must not mutate sources")
	}
}

func TestAssembleStopsAtFirstViolation(t *testing.T) {
	_, err := Assemble(
		Vars{{Name: "OK", Raw: "x"}},
		Vars{{Name: "BAD-ONE", Raw: "x"}, {Name: "BAD-TWO", Raw: "x"}},
	)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "BAD-ONE") || strings.Contains(err.Error(), "BAD-TWO") {
		t.Fatalf("expected first violation only: %v", err)
	}
}

func TestAssembleOverriddenInvalidValueIsAccepted(t *testing.T) {
	entries, err := Assemble(
		Vars{{Name: "X", Raw: map[string]any{"Foo": "bar"}}},
		Vars{{Name: "X", Raw: "fixed"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Value.Raw() != "fixed" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestEntriesMarshalDeterministically(t *testing.T) {
	entries, err := Assemble(Vars{
		{Name: "A", Raw: "first"},
		{Name: "REF", Raw: map[string]any{"Ref": "Queue"}},
		{Name: "Z", Raw: "last"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, _ := json.Marshal(entries)
	second, _ := json.Marshal(entries)
	if string(first) != string(second) {
		t.Fatalf("marshal is not stable")
	}
	want := `[{"Name":"A","Value":"first"},{"Name":"REF","Value":{"Ref":"Queue"}},{"Name":"Z","Value":"last"}]`
	if string(first) != want {
		t.Fatalf("unexpected json: %s", first)
	}
}
