// Where: internal/domain/schedule/schedule.go
// What: Environment contract between a compiled function and its schedule shim.
package schedule

// Variables read by the shim at invocation time.
const (
	EnvEventLoggingEnabled = "EVENT_LOGGING_ENABLED"
	EnvFunctionName        = "FUNCTION_NAME"
	EnvJobDefinitionArn    = "JOB_DEFINITION_ARN"
	EnvJobQueueArn         = "JOB_QUEUE_ARN"
)
