// Where: internal/infra/awsclient/account.go
// What: Account id resolution through STS.
// Why: Registry URLs need the account id when the service definition omits it.
package awsclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

var errEmptyAccount = errors.New("sts returned an empty account id")

// CallerIdentityAPI is the subset of the STS client used here.
type CallerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// AccountResolver looks up the account id of the active credentials.
type AccountResolver struct {
	client CallerIdentityAPI
}

func NewAccountResolver(client CallerIdentityAPI) *AccountResolver {
	return &AccountResolver{client: client}
}

func (r *AccountResolver) AccountID(ctx context.Context) (string, error) {
	out, err := r.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}
	account := aws.ToString(out.Account)
	if account == "" {
		return "", errEmptyAccount
	}
	return account, nil
}
