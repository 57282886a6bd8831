package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-todo-nosql/internal/domain"
)

type mockNotificationStore struct {
	mock.Mock
}

func (m *mockNotificationStore) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotificationStore) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *mockNotificationStore) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *mockNotificationStore) MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func TestMarkAsRead_OwnerOnly(t *testing.T) {
	repo := new(mockNotificationStore)
	svc := NewService(repo)

	n := &domain.Notification{NotificationID: "n1", UserID: "u1"}
	repo.On("Get", mock.Anything, "n1").Return(n, nil)

	_, err := svc.MarkAsRead(context.Background(), "n1", "u2")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertNotCalled(t, "MarkAsRead", mock.Anything, mock.Anything)
}

func TestMarkAsRead_Owner(t *testing.T) {
	repo := new(mockNotificationStore)
	svc := NewService(repo)

	n := &domain.Notification{NotificationID: "n1", UserID: "u1"}
	read := &domain.Notification{NotificationID: "n1", UserID: "u1", IsRead: true}
	repo.On("Get", mock.Anything, "n1").Return(n, nil)
	repo.On("MarkAsRead", mock.Anything, "n1").Return(read, nil)

	got, err := svc.MarkAsRead(context.Background(), "n1", "u1")
	require.NoError(t, err)
	assert.True(t, got.IsRead)
}

func TestGet_ForeignNotificationForbidden(t *testing.T) {
	repo := new(mockNotificationStore)
	svc := NewService(repo)

	n := &domain.Notification{NotificationID: "n1", UserID: "u1"}
	repo.On("Get", mock.Anything, "n1").Return(n, nil)

	_, err := svc.Get(context.Background(), "n1", "u2")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateSystem(t *testing.T) {
	repo := new(mockNotificationStore)
	svc := NewService(repo)

	repo.On("Put", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.NotificationID != "" &&
			n.UserID == "u1" &&
			n.Type == domain.NotificationTypeSystem &&
			!n.IsRead &&
			n.TaskID == nil &&
			!n.CreatedAt.IsZero() &&
			n.CreatedAt.Location() == time.UTC
	})).Return(nil)

	n, err := svc.CreateSystem(context.Background(), CreateSystemRequest{
		UserID:  "u1",
		Title:   "Maintenance window",
		Message: "The service will be read-only tonight.",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationTypeSystem, n.Type)
	repo.AssertExpectations(t)
}
