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

// TaskRepo provides typed DynamoDB operations for the tasks table.
type TaskRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTaskRepo(client *dynamodb.Client, tableName string) *TaskRepo {
	return &TaskRepo{client: client, tableName: tableName}
}

func (r *TaskRepo) Put(ctx context.Context, t *domain.Task) error {
	item, err := marshalItem(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TaskRepo) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("task_id", taskID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("task not found: %w", domain.ErrNotFound)
	}
	var t domain.Task
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) ListByList(ctx context.Context, listID string) ([]domain.Task, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("list_id-index"),
		KeyConditionExpression: aws.String("list_id = :lid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lid": &types.AttributeValueMemberS{Value: listID},
		},
	})
	if err != nil {
		return nil, err
	}
	var tasks []domain.Task
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepo) Update(ctx context.Context, taskID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("task_id", taskID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// ClearFields removes attributes entirely (REMOVE), used when a client
// clears a due date or reminder. A removed attribute no longer matches
// attribute_exists filters, which is what keeps the task out of the checks.
func (r *TaskRepo) ClearFields(ctx context.Context, taskID string, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	names := make(map[string]string, len(fields))
	expr := "REMOVE "
	for i, f := range fields {
		nameKey := fmt.Sprintf("#r%d", i)
		names[nameKey] = f
		if i > 0 {
			expr += ", "
		}
		expr += nameKey
	}
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("task_id", taskID),
		UpdateExpression:         aws.String(expr),
		ExpressionAttributeNames: names,
	})
	return err
}

func (r *TaskRepo) Delete(ctx context.Context, taskID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("task_id", taskID),
	})
	return err
}

// FindWithReminderBetween returns incomplete tasks whose reminder_at falls
// inside [start, end]. Neither bound attribute can serve as a partition key,
// so this is a filtered scan; the candidate set is re-derived on every
// scheduler tick, which keeps the check self-healing.
func (r *TaskRepo) FindWithReminderBetween(ctx context.Context, start, end time.Time) ([]domain.Task, error) {
	return r.scanAll(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("attribute_exists(reminder_at) AND is_completed = :f AND reminder_at BETWEEN :start AND :end"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":f":     &types.AttributeValueMemberBOOL{Value: false},
			":start": &types.AttributeValueMemberS{Value: timeBound(start)},
			":end":   &types.AttributeValueMemberS{Value: timeBound(end)},
		},
	})
}

// FindIncompleteWithDueDate returns all incomplete tasks carrying a due date.
func (r *TaskRepo) FindIncompleteWithDueDate(ctx context.Context) ([]domain.Task, error) {
	return r.scanAll(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("attribute_exists(due_date) AND is_completed = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
}

// scanAll follows LastEvaluatedKey so candidate queries see the whole table.
func (r *TaskRepo) scanAll(ctx context.Context, input *dynamodb.ScanInput) ([]domain.Task, error) {
	var tasks []domain.Task
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.Task
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		tasks = append(tasks, page...)
		if out.LastEvaluatedKey == nil {
			return tasks, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
