package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-todo-nosql/internal/domain"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"title": "groceries"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "title"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"is_completed": true,
		"title":        "groceries",
		"description":  "weekly run",
	}
	// Call twice to verify determinism.
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)

	// Keys must be sorted: description < is_completed < title
	assert.Equal(t, "description", ue1.Names["#f0"])
	assert.Equal(t, "is_completed", ue1.Names["#f1"])
	assert.Equal(t, "title", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"is_completed": true})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"]
	require.True(t, ok)
	boolVal, isBool := av.(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestMarshalItem_OmitsNilTaskID(t *testing.T) {
	// task_id is the hash key of a sparse GSI; a NULL attribute would make
	// PutItem fail index-key validation, so it must be absent entirely.
	item, err := marshalItem(&domain.Notification{
		NotificationID: "n1",
		UserID:         "u1",
		Title:          "Maintenance window",
		Type:           domain.NotificationTypeSystem,
		CreatedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
	_, present := item["task_id"]
	assert.False(t, present)
}

func TestMarshalItem_KeepsTaskIDWhenSet(t *testing.T) {
	taskID := "t1"
	item, err := marshalItem(&domain.Notification{
		NotificationID: "n1",
		UserID:         "u1",
		Type:           domain.NotificationTypeTaskReminder,
		TaskID:         &taskID,
		CreatedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
	av, ok := item["task_id"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "t1", av.Value)
}

func TestMarshalItem_TimestampsAreFixedWidth(t *testing.T) {
	whole := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	frac := whole.Add(500 * time.Millisecond)

	wholeItem, err := marshalItem(&domain.Notification{NotificationID: "a", CreatedAt: whole})
	require.NoError(t, err)
	fracItem, err := marshalItem(&domain.Notification{NotificationID: "b", CreatedAt: frac})
	require.NoError(t, err)

	wholeAV := wholeItem["created_at"].(*types.AttributeValueMemberS)
	fracAV := fracItem["created_at"].(*types.AttributeValueMemberS)

	assert.Equal(t, "2026-03-10T00:00:00.000000000Z", wholeAV.Value)
	assert.Equal(t, "2026-03-10T00:00:00.500000000Z", fracAV.Value)
	// Lexicographic order must match chronological order inside one second;
	// RFC3339Nano would emit "…00Z" for the whole second, which sorts after
	// "…00.5Z".
	assert.Less(t, wholeAV.Value, fracAV.Value)
}

func TestTimeBound_MatchesStoredEncoding(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 30, 0, 250000000, time.UTC)
	item, err := marshalItem(&domain.Notification{NotificationID: "a", CreatedAt: at})
	require.NoError(t, err)
	stored := item["created_at"].(*types.AttributeValueMemberS)
	assert.Equal(t, stored.Value, timeBound(at))
}

func TestBuildUpdateExpr_TimeValuesFixedWidth(t *testing.T) {
	at := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	ue, err := buildUpdateExpr(map[string]interface{}{"updated_at": at})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "2026-03-10T00:00:00.000000000Z", av.Value)
}
