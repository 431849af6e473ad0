// Where: internal/infra/history/dynamodb.go
// What: DynamoDB-backed deployment history.
// Why: Each push and remove leaves an auditable record when a table is configured.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/bkozora/serverless-aws-batch-orka/internal/ports"
)

var errTableRequired = errors.New("deployment table is required")

// PutItemAPI is the subset of the DynamoDB client used here.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Table writes deployment records keyed by DeploymentId.
type Table struct {
	client PutItemAPI
	name   string
	now    func() time.Time
	newID  func() string
}

func NewTable(client PutItemAPI, name string) (*Table, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errTableRequired
	}
	return &Table{
		client: client,
		name:   name,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}, nil
}

func (t *Table) Record(ctx context.Context, record ports.DeploymentRecord) error {
	if record.ID == "" {
		record.ID = t.newID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = t.now()
	}
	_, err := t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      toItem(record),
	})
	if err != nil {
		return fmt.Errorf("record deployment in %s: %w", t.name, err)
	}
	return nil
}

func toItem(record ports.DeploymentRecord) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"DeploymentId": &types.AttributeValueMemberS{Value: record.ID},
		"Service":      &types.AttributeValueMemberS{Value: record.Service},
		"Stage":        &types.AttributeValueMemberS{Value: record.Stage},
		"Region":       &types.AttributeValueMemberS{Value: record.Region},
		"Action":       &types.AttributeValueMemberS{Value: record.Action},
		"CreatedAt":    &types.AttributeValueMemberS{Value: record.CreatedAt.UTC().Format(time.RFC3339)},
	}
	if record.Image != "" {
		item["Image"] = &types.AttributeValueMemberS{Value: record.Image}
	}
	if len(record.Functions) > 0 {
		item["Functions"] = &types.AttributeValueMemberSS{Value: append([]string(nil), record.Functions...)}
	}
	return item
}

var _ ports.DeploymentHistory = (*Table)(nil)
