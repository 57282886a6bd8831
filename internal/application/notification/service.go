// Package notification exposes the user-facing notification inbox.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-todo-nosql/internal/domain"
	"github.com/go-todo-nosql/internal/pkg/id"
)

type CreateSystemRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Title   string `json:"title" validate:"required,max=255"`
	Message string `json:"message" validate:"required"`
}

type Service interface {
	Get(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	CreateSystem(ctx context.Context, req CreateSystemRequest) (*domain.Notification, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error)
}

type service struct {
	repo notificationStore
}

func NewService(repo notificationStore) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	return s.owned(ctx, notificationID, userID)
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.repo.ListUnread(ctx, userID)
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	if _, err := s.owned(ctx, notificationID, userID); err != nil {
		return nil, err
	}
	return s.repo.MarkAsRead(ctx, notificationID)
}

func (s *service) owned(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("not your notification: %w", domain.ErrForbidden)
	}
	return n, nil
}

// CreateSystem is used by admin tooling to push an announcement to one user.
func (s *service) CreateSystem(ctx context.Context, req CreateSystemRequest) (*domain.Notification, error) {
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         req.UserID,
		Title:          req.Title,
		Message:        req.Message,
		Type:           domain.NotificationTypeSystem,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}
