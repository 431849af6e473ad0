// Where: internal/usecase/pipeline/outputs.go
// What: Writes compiled resources and rewired functions to the build directory.
// Why: The host framework merges these files into its own template and function list.
package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/deployment"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/service"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/fileops"
)

const (
	TemplateFileName  = "batch-template.json"
	FunctionsFileName = "batch-functions.json"
)

// FunctionManifest renders functions as a JSON object keyed by name, in declaration order.
type FunctionManifest []*service.Function

func (m FunctionManifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fn := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fn.Name)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(fn)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", fn.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteOutputs writes the compiled template and function manifest and returns their paths.
func WriteOutputs(dctx *deployment.Context) ([]string, error) {
	outputs := []struct {
		name  string
		value any
	}{
		{TemplateFileName, dctx.Resources},
		{FunctionsFileName, FunctionManifest(dctx.Service.Functions)},
	}
	paths := make([]string, 0, len(outputs))
	for _, out := range outputs {
		data, err := MarshalIndent(out.value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", out.name, err)
		}
		path := filepath.Join(dctx.BuildDir(), out.name)
		if err := fileops.WriteFile(path, data); err != nil {
			return nil, fmt.Errorf("write %s: %w", out.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// MarshalIndent encodes v as two-space indented JSON with a trailing newline.
func MarshalIndent(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
