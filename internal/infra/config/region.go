// Where: internal/infra/config/region.go
// What: Region resolution for deployment and log configuration.
package config

import (
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/deployment"
	"github.com/bkozora/serverless-aws-batch-orka/internal/infra/envutil"
)

// ResolveRegion picks the deployment region: explicit override, provider region,
// AWS_REGION, AWS_DEFAULT_REGION, then us-east-1.
func ResolveRegion(override, provider string) string {
	if region := firstNonEmpty(override, provider); region != "" {
		return region
	}
	return LogRegion()
}

// LogRegion is the region written into awslogs options: AWS_REGION,
// AWS_DEFAULT_REGION, then us-east-1.
func LogRegion() string {
	if region := envutil.FirstEnv("AWS_REGION", "AWS_DEFAULT_REGION"); region != "" {
		return region
	}
	return deployment.DefaultLogRegion
}
