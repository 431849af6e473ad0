// Where: internal/meta/meta.go
// What: CLI-local metadata constants.
// Why: Keep branding and environment prefixes in one place.
package meta

const (
	AppName   = "batchorka"
	EnvPrefix = "BATCHORKA"

	// DefaultConfigFile is the service definition read when --config is omitted.
	DefaultConfigFile = "serverless.yml"
)
