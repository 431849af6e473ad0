// Where: internal/usecase/compile/core.go
// What: Core template resources created before any function is compiled.
// Why: The image repository must exist in the stack that references its images.
package compile

import (
	"fmt"

	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/cfn"
	"github.com/bkozora/serverless-aws-batch-orka/internal/domain/deployment"
)

const (
	typeECRRepository = "AWS::ECR::Repository"
	// RepositoryURLOutput names the stack output carrying the repository URL.
	RepositoryURLOutput = "BatchECRRepositoryURL"
)

// GenerateCoreTemplate registers the image repository resource and its URL output.
func GenerateCoreTemplate(dctx *deployment.Context) error {
	if err := checkContext(dctx); err != nil {
		return err
	}
	names := dctx.Naming
	repo := cfn.Resource{
		Type: typeECRRepository,
		Properties: map[string]any{
			"RepositoryName": names.ECRRepositoryName(),
		},
	}
	if err := dctx.Resources.Insert(names.ECRLogicalID(), repo); err != nil {
		return fmt.Errorf("core template: %w", err)
	}
	dctx.Resources.SetOutput(RepositoryURLOutput, cfn.Output{
		Description: "Image repository for batch job containers",
		Value:       names.ECRRepositoryURL(),
	})
	return nil
}

func checkContext(dctx *deployment.Context) error {
	if dctx == nil || dctx.Service == nil || dctx.Resources == nil {
		return errContextIncomplete
	}
	return nil
}
