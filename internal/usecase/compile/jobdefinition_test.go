// Where: internal/usecase/compile/jobdefinition_test.go
// What: Tests for job definition compilation and schedule rewiring.
// Why: Defaults must apply only to absent keys and failures must name the function.
package compile

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/cfn"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/deployment"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/envvar"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/naming"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/service"
)

type fakeArtifacts struct {
	paths []string
	err   error
}

func (f *fakeArtifacts) WriteScheduleArtifact(path string) error {
	if f.err != nil {
		return f.err
	}
	f.paths = append(f.paths, path)
	return nil
}

func intPtr(v int) *int { return &v }

func newTestContext(functions ...*service.Function) *deployment.Context {
	svc := &service.Service{
		Name: "svc",
		Provider: service.Provider{
			Stage:  "dev",
			Region: "eu-west-1",
		},
		Batch: &service.BatchSettings{
			SecurityGroupIds: []string{"sg-1"},
			Subnets:          []string{"subnet-1"},
		},
		Functions: functions,
	}
	resolver := naming.New("svc", "dev", "eu-west-1", "123456789012")
	return deployment.New(svc, resolver, "/srv/app", "us-west-2")
}

func compileOne(t *testing.T, fn *service.Function) (*deployment.Context, cfn.Resource) {
	t.Helper()
	dctx := newTestContext(fn)
	if err := NewCompiler(&fakeArtifacts{}, nil).CompileAll(dctx); err != nil {
		t.Fatalf("compile: %v", err)
	}
	res, ok := dctx.Resources.Resource(dctx.Naming.JobDefinitionLogicalID(fn.Name))
	if !ok {
		t.Fatalf("job definition not registered")
	}
	return dctx, res
}

func containerOf(t *testing.T, res cfn.Resource) map[string]any {
	t.Helper()
	container, ok := res.Properties["ContainerProperties"].(map[string]any)
	if !ok {
		t.Fatalf("missing container properties: %#v", res.Properties)
	}
	return container
}

func TestCompileSkipsFunctionsWithoutBatch(t *testing.T) {
	fn := &service.Function{Name: "plain", Handler: "handler.main", Runtime: "python3.12"}
	dctx := newTestContext(fn)
	artifacts := &fakeArtifacts{}

	if err := NewCompiler(artifacts, nil).CompileAll(dctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dctx.Resources.LogicalIDs()) != 0 {
		t.Fatalf("expected no resources, got %v", dctx.Resources.LogicalIDs())
	}
	if fn.Handler != "handler.main" || fn.Runtime != "python3.12" {
		t.Fatalf("function must be untouched: %+v", fn)
	}
	if len(artifacts.paths) != 0 {
		t.Fatalf("no artifact expected: %v", artifacts.paths)
	}
}

func TestCompileMemoryDefaults(t *testing.T) {
	cases := []struct {
		name string
		fn   *service.Function
		want int
	}{
		{
			name: "default",
			fn:   &service.Function{Name: "a", Handler: "h", Batch: &service.Batch{}},
			want: 2048,
		},
		{
			name: "function memory",
			fn:   &service.Function{Name: "b", Handler: "h", MemorySize: intPtr(512), Batch: &service.Batch{}},
			want: 512,
		},
		{
			name: "batch memory wins",
			fn:   &service.Function{Name: "c", Handler: "h", MemorySize: intPtr(512), Batch: &service.Batch{Memory: intPtr(256)}},
			want: 256,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, res := compileOne(t, tc.fn)
			if got := containerOf(t, res)["Memory"]; got != tc.want {
				t.Fatalf("Memory = %v, want %d", got, tc.want)
			}
		})
	}
}

func TestCompileTimeoutDefaults(t *testing.T) {
	_, res := compileOne(t, &service.Function{Name: "a", Handler: "h", Batch: &service.Batch{}})
	timeout := res.Properties["Timeout"].(map[string]any)
	if timeout["AttemptDurationSeconds"] != 300 {
		t.Fatalf("unexpected default timeout: %v", timeout)
	}

	_, res = compileOne(t, &service.Function{Name: "b", Handler: "h", Timeout: intPtr(90), Batch: &service.Batch{}})
	timeout = res.Properties["Timeout"].(map[string]any)
	if timeout["AttemptDurationSeconds"] != 90 {
		t.Fatalf("unexpected function timeout: %v", timeout)
	}

	_, res = compileOne(t, &service.Function{
		Name:    "c",
		Handler: "h",
		Timeout: intPtr(90),
		Batch:   &service.Batch{Timeout: map[string]any{"AttemptDurationSeconds": 1200}},
	})
	timeout = res.Properties["Timeout"].(map[string]any)
	if timeout["AttemptDurationSeconds"] != 1200 {
		t.Fatalf("explicit timeout must be kept: %v", timeout)
	}
}

func TestCompileAppliesContainerDefaults(t *testing.T) {
	dctx, res := compileOne(t, &service.Function{Name: "worker", Handler: "handler.run", Batch: &service.Batch{}})
	container := containerOf(t, res)

	if !reflect.DeepEqual(container["Command"], []any{"handler.run", "Ref::event"}) {
		t.Fatalf("unexpected command: %v", container["Command"])
	}
	if container["Image"] != dctx.Naming.DockerImageName() {
		t.Fatalf("unexpected image: %v", container["Image"])
	}
	if container["Vcpus"] != 1 {
		t.Fatalf("unexpected vcpus: %v", container["Vcpus"])
	}
	wantRole := map[string]any{"Fn::GetAtt": []any{"BatchJobExecutionRole", "Arn"}}
	if !reflect.DeepEqual(container["JobRoleArn"], wantRole) {
		t.Fatalf("unexpected job role: %v", container["JobRoleArn"])
	}
	logs := container["LogConfiguration"].(map[string]any)
	options := logs["Options"].(map[string]any)
	if logs["LogDriver"] != "awslogs" || options["awslogs-region"] != "us-west-2" || options["awslogs-stream-prefix"] != "svc-dev" {
		t.Fatalf("unexpected log configuration: %v", logs)
	}
	retry := res.Properties["RetryStrategy"].(map[string]any)
	if retry["Attempts"] != 1 {
		t.Fatalf("unexpected retry strategy: %v", retry)
	}
	if res.Properties["JobDefinitionName"] != "svc-dev-worker" || res.Properties["Type"] != "container" {
		t.Fatalf("unexpected properties: %v", res.Properties)
	}
}

func TestCompileNeverOverwritesPresentKeys(t *testing.T) {
	userLogs := map[string]any{"LogDriver": "json-file"}
	_, res := compileOne(t, &service.Function{
		Name: "worker",
		Batch: &service.Batch{
			Memory: intPtr(256),
			ContainerProperties: map[string]any{
				"Memory":           4096,
				"Command":          []any{"python", "main.py"},
				"Image":            "busybox:1",
				"Vcpus":            4,
				"JobRoleArn":       "arn:aws:iam::1:role/custom",
				"LogConfiguration": userLogs,
			},
			RetryStrategy: map[string]any{"Attempts": 5},
		},
	})
	container := containerOf(t, res)
	if container["Memory"] != 4096 || container["Image"] != "busybox:1" || container["Vcpus"] != 4 {
		t.Fatalf("user values overwritten: %v", container)
	}
	if container["JobRoleArn"] != "arn:aws:iam::1:role/custom" {
		t.Fatalf("job role overwritten: %v", container["JobRoleArn"])
	}
	if !reflect.DeepEqual(container["LogConfiguration"], userLogs) {
		t.Fatalf("log configuration overwritten: %v", container["LogConfiguration"])
	}
	if _, ok := container["logConfiguration"]; ok {
		t.Fatalf("unexpected lower-case log configuration key")
	}
	if res.Properties["RetryStrategy"].(map[string]any)["Attempts"] != 5 {
		t.Fatalf("retry attempts overwritten")
	}
}

func TestCompileMissingHandlerFailsWithFunctionName(t *testing.T) {
	dctx := newTestContext(
		&service.Function{Name: "first", Handler: "h", Batch: &service.Batch{}},
		&service.Function{Name: "nohandler", Batch: &service.Batch{}},
	)
	err := NewCompiler(&fakeArtifacts{}, nil).CompileAll(dctx)
	if !errors.Is(err, ErrMissingHandler) {
		t.Fatalf("expected missing handler error, got %v", err)
	}
	if !strings.Contains(err.Error(), "nohandler") {
		t.Fatalf("error must name the function: %v", err)
	}
}

func TestCompileExplicitCommandDoesNotNeedHandler(t *testing.T) {
	_, res := compileOne(t, &service.Function{
		Name:  "worker",
		Batch: &service.Batch{ContainerProperties: map[string]any{"Command": []any{"run"}}},
	})
	if !reflect.DeepEqual(containerOf(t, res)["Command"], []any{"run"}) {
		t.Fatalf("unexpected command")
	}
}

func TestCompileEnvironmentPrecedenceAndOrder(t *testing.T) {
	fn := &service.Function{
		Name:       "worker",
		Handler:    "h",
		MemorySize: intPtr(1024),
		Environment: envvar.Vars{
			{Name: "SHARED", Raw: "function"},
			{Name: "FN_ONLY", Raw: "x"},
		},
		Batch: &service.Batch{
			Environment: envvar.Vars{{Name: "SHARED", Raw: "batch"}, {Name: "QUEUE", Raw: map[string]any{"Ref": "Queue"}}},
		},
	}
	dctx := newTestContext(fn)
	dctx.Service.Provider.Environment = envvar.Vars{{Name: "SHARED", Raw: "provider"}, {Name: "AWS_REGION", Raw: "override"}}

	if err := NewCompiler(&fakeArtifacts{}, nil).CompileAll(dctx); err != nil {
		t.Fatalf("compile: %v", err)
	}
	res, _ := dctx.Resources.Resource("JobDefinitionWorker")
	data, err := json.Marshal(containerOf(t, res)["Environment"])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"Name":"AWS_LAMBDA_FUNCTION_TIMEOUT","Value":"300"},` +
		`{"Name":"AWS_LAMBDA_FUNCTION_MEMORY_SIZE","Value":"1024"},` +
		`{"Name":"AWS_REGION","Value":"override"},` +
		`{"Name":"SHARED","Value":"batch"},` +
		`{"Name":"FN_ONLY","Value":"x"},` +
		`{"Name":"QUEUE","Value":{"Ref":"Queue"}}]`
	if string(data) != want {
		t.Fatalf("unexpected environment:\n%s\nwant\n%s", data, want)
	}
}

func TestCompileInvalidEnvironmentNamesFunctionAndKey(t *testing.T) {
	dctx := newTestContext(&service.Function{
		Name:        "worker",
		Handler:     "h",
		Environment: envvar.Vars{{Name: "FOO-BAR", Raw: "x"}},
		Batch:       &service.Batch{},
	})
	artifacts := &fakeArtifacts{}
	err := NewCompiler(artifacts, nil).CompileAll(dctx)
	if !errors.Is(err, envvar.ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
	if !strings.Contains(err.Error(), "worker") || !strings.Contains(err.Error(), "FOO-BAR") {
		t.Fatalf("error must name function and key: %v", err)
	}
	if len(dctx.Resources.LogicalIDs()) != 0 || len(artifacts.paths) != 0 {
		t.Fatalf("nothing must be registered on failure")
	}
}

func TestCompileLogicalIDCollisionIsFatal(t *testing.T) {
	prefix := strings.Repeat("a", 51)
	dctx := newTestContext(
		&service.Function{Name: prefix + "one", Handler: "h", Batch: &service.Batch{}},
		&service.Function{Name: prefix + "two", Handler: "h", Batch: &service.Batch{}},
	)
	err := NewCompiler(&fakeArtifacts{}, nil).CompileAll(dctx)
	if !errors.Is(err, cfn.ErrDuplicateLogicalID) {
		t.Fatalf("expected collision, got %v", err)
	}
	if !strings.Contains(err.Error(), prefix+"two") {
		t.Fatalf("error must name the second function: %v", err)
	}
}

func TestCompileArtifactFailureIsFatal(t *testing.T) {
	dctx := newTestContext(&service.Function{Name: "worker", Handler: "h", Batch: &service.Batch{}})
	err := NewCompiler(&fakeArtifacts{err: errors.New("disk full")}, nil).CompileAll(dctx)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected artifact error, got %v", err)
	}
	if dctx.Service.Functions[0].Handler != "h" {
		t.Fatalf("function must not be rewired after a failed write")
	}
}

func TestCompileRewiresScheduleShim(t *testing.T) {
	fn := &service.Function{
		Name:        "worker",
		Handler:     "handler.run",
		Environment: envvar.Vars{{Name: "KEEP", Raw: "me"}},
		Batch:       &service.Batch{ScheduleLoggingEnabled: true},
	}
	dctx := newTestContext(fn)
	artifacts := &fakeArtifacts{}
	if err := NewCompiler(artifacts, nil).CompileAll(dctx); err != nil {
		t.Fatalf("compile: %v", err)
	}

	wantPath := "/srv/app/.serverless/worker.zip"
	if !reflect.DeepEqual(artifacts.paths, []string{wantPath}) {
		t.Fatalf("unexpected artifacts: %v", artifacts.paths)
	}
	if fn.Handler != ScheduleHandler || fn.Runtime != ScheduleRuntime {
		t.Fatalf("unexpected handler/runtime: %s %s", fn.Handler, fn.Runtime)
	}
	if *fn.MemorySize != 128 || *fn.Timeout != 6 {
		t.Fatalf("unexpected footprint: %d %d", *fn.MemorySize, *fn.Timeout)
	}
	if !fn.Package.Individually || fn.Package.Artifact != wantPath {
		t.Fatalf("unexpected package: %+v", fn.Package)
	}
	data, _ := json.Marshal(fn.Environment)
	want := `{"KEEP":"me","EVENT_LOGGING_ENABLED":"true","FUNCTION_NAME":"worker",` +
		`"JOB_DEFINITION_ARN":{"Ref":"JobDefinitionWorker"},"JOB_QUEUE_ARN":{"Ref":"BatchJobQueue"}}`
	if string(data) != want {
		t.Fatalf("unexpected environment: %s", data)
	}
	wantRole := map[string]any{"Fn::GetAtt": []any{"BatchLambdaScheduleExecutionRole", "Arn"}}
	if !reflect.DeepEqual(fn.Role, wantRole) {
		t.Fatalf("unexpected role: %v", fn.Role)
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	build := func() []byte {
		dctx := newTestContext(
			&service.Function{
				Name:        "alpha",
				Handler:     "a.h",
				Environment: envvar.Vars{{Name: "Z", Raw: "1"}, {Name: "A", Raw: "2"}},
				Batch: &service.Batch{
					ContainerProperties: map[string]any{"Privileged": true, "Volumes": []any{}},
				},
			},
			&service.Function{Name: "beta", Handler: "b.h", Batch: &service.Batch{Memory: intPtr(64)}},
		)
		if err := NewCompiler(&fakeArtifacts{}, nil).CompileAll(dctx); err != nil {
			t.Fatalf("compile: %v", err)
		}
		data, err := json.Marshal(dctx.Resources)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return data
	}
	if first, second := build(), build(); string(first) != string(second) {
		t.Fatalf("compilation is not deterministic:\n%s\n%s", first, second)
	}
}
