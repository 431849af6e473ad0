// Where: internal/infra/shim/shim.go
// What: Renders and packages the schedule shim handler.
// Why: Each batch function is deployed as a small function that submits its job.
package shim

import (
	"bytes"
	"embed"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/schedule"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/fileops"
)

// EntryName is the only file inside a shim artifact.
const EntryName = "handler.js"

const templateName = "schedule.js.tmpl"

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	loadOnce   sync.Once
	loadedTmpl *template.Template
	loadErr    error
)

type templateData struct {
	Banner           string
	DefaultJobName   string
	MaxJobNameLength int
	LoggingVar       string
	FunctionNameVar  string
	JobDefinitionVar string
	JobQueueVar      string
}

// Render returns the handler source. Output is identical for every call.
func Render() ([]byte, error) {
	tmpl, err := loadTemplate()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, templateData{
		Banner:           "Generated by batchorka. Submits one AWS Batch job per invocation.",
		DefaultJobName:   "batch-job",
		MaxJobNameLength: 128,
		LoggingVar:       schedule.EnvEventLoggingEnabled,
		FunctionNameVar:  schedule.EnvFunctionName,
		JobDefinitionVar: schedule.EnvJobDefinitionArn,
		JobQueueVar:      schedule.EnvJobQueueArn,
	})
	if err != nil {
		return nil, fmt.Errorf("render schedule shim: %w", err)
	}
	return buf.Bytes(), nil
}

func loadTemplate() (*template.Template, error) {
	loadOnce.Do(func() {
		loadedTmpl, loadErr = template.New(templateName).Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/"+templateName)
	})
	return loadedTmpl, loadErr
}

// Writer packages the shim as a zip artifact.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) WriteScheduleArtifact(path string) error {
	source, err := Render()
	if err != nil {
		return err
	}
	if err := fileops.WriteZip(path, []fileops.ZipEntry{{Name: EntryName, Data: source}}); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
