// Where: internal/usecase/compile/schedule.go
// What: Rewires a compiled batch function to its schedule shim.
// Why: After compilation the function submits a batch job instead of running user code.
package compile

import (
	"strconv"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/deployment"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/envvar"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/schedule"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/service"
)

// Shim deployment footprint.
const (
	ScheduleHandler    = "handler.schedule"
	ScheduleRuntime    = "nodejs20.x"
	ScheduleMemoryMB   = 128
	ScheduleTimeoutSec = 6
)

// RewireSchedule points fn at the schedule shim packaged at artifactPath.
// Existing function environment entries are kept; shim variables override them.
func RewireSchedule(dctx *deployment.Context, fn *service.Function, artifactPath string) {
	names := dctx.Naming
	memory := ScheduleMemoryMB
	timeout := ScheduleTimeoutSec

	fn.Handler = ScheduleHandler
	fn.Runtime = ScheduleRuntime
	fn.MemorySize = &memory
	fn.Timeout = &timeout
	fn.Package = service.Package{Individually: true, Artifact: artifactPath}
	fn.Environment = envvar.Merge(fn.Environment, envvar.Vars{
		{Name: schedule.EnvEventLoggingEnabled, Raw: envvar.Literal(strconv.FormatBool(fn.Batch.ScheduleLoggingEnabled))},
		{Name: schedule.EnvFunctionName, Raw: envvar.Literal(fn.Name)},
		{Name: schedule.EnvJobDefinitionArn, Raw: envvar.Ref(names.JobDefinitionLogicalID(fn.Name))},
		{Name: schedule.EnvJobQueueArn, Raw: envvar.Ref(names.BatchJobQueueLogicalID())},
	})
	fn.Role = getAttArn(names.LambdaScheduleExecutionRoleLogicalID())
}
