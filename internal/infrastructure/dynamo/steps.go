package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-todo-nosql/internal/domain"
)

// StepRepo provides typed DynamoDB operations for the steps table.
type StepRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewStepRepo(client *dynamodb.Client, tableName string) *StepRepo {
	return &StepRepo{client: client, tableName: tableName}
}

func (r *StepRepo) Put(ctx context.Context, s *domain.Step) error {
	item, err := marshalItem(s)
	if err != nil {
		return fmt.Errorf("marshal step: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *StepRepo) Get(ctx context.Context, stepID string) (*domain.Step, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("step_id", stepID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("step not found: %w", domain.ErrNotFound)
	}
	var s domain.Step
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StepRepo) ListByTask(ctx context.Context, taskID string) ([]domain.Step, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("task_id-index"),
		KeyConditionExpression: aws.String("task_id = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid": &types.AttributeValueMemberS{Value: taskID},
		},
	})
	if err != nil {
		return nil, err
	}
	var steps []domain.Step
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *StepRepo) Update(ctx context.Context, stepID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("step_id", stepID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *StepRepo) Delete(ctx context.Context, stepID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("step_id", stepID),
	})
	return err
}
