// Package task manages tasks within lists, including the due-date and
// reminder fields consumed by the background notification checks.
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/go-todo-nosql/internal/domain"
	"github.com/go-todo-nosql/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldIsCompleted = "is_completed"
	fieldDueDate     = "due_date"
	fieldReminderAt  = "reminder_at"
)

type Service interface {
	Create(ctx context.Context, listID, userID string, req domain.CreateTaskRequest) (*domain.Task, error)
	Get(ctx context.Context, taskID, userID string) (*domain.Task, error)
	ListByList(ctx context.Context, listID, userID string) ([]domain.Task, error)
	Update(ctx context.Context, taskID, userID string, req domain.UpdateTaskRequest) (*domain.Task, error)
	Delete(ctx context.Context, taskID, userID string) error
}

type taskStore interface {
	Put(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, taskID string) (*domain.Task, error)
	ListByList(ctx context.Context, listID string) ([]domain.Task, error)
	Update(ctx context.Context, taskID string, updates map[string]interface{}) error
	ClearFields(ctx context.Context, taskID string, fields []string) error
	Delete(ctx context.Context, taskID string) error
}

type listStore interface {
	Get(ctx context.Context, listID string) (*domain.List, error)
}

type ServiceDeps struct {
	TaskRepo taskStore
	ListRepo listStore
}

type service struct {
	repo     taskStore
	listRepo listStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.TaskRepo, listRepo: deps.ListRepo}
}

func (s *service) Create(ctx context.Context, listID, userID string, req domain.CreateTaskRequest) (*domain.Task, error) {
	l, err := s.listRepo.Get(ctx, listID)
	if err != nil {
		return nil, err
	}
	if l.UserID != userID {
		return nil, fmt.Errorf("not your list: %w", domain.ErrForbidden)
	}
	dueDate, err := parseOptionalTime(req.DueDate, fieldDueDate)
	if err != nil {
		return nil, err
	}
	reminderAt, err := parseOptionalTime(req.ReminderAt, fieldReminderAt)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := &domain.Task{
		TaskID:      id.New(),
		ListID:      listID,
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		ReminderAt:  reminderAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Get(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	return s.owned(ctx, taskID, userID)
}

func (s *service) ListByList(ctx context.Context, listID, userID string) ([]domain.Task, error) {
	l, err := s.listRepo.Get(ctx, listID)
	if err != nil {
		return nil, err
	}
	if l.UserID != userID {
		return nil, fmt.Errorf("not your list: %w", domain.ErrForbidden)
	}
	return s.repo.ListByList(ctx, listID)
}

func (s *service) Update(ctx context.Context, taskID, userID string, req domain.UpdateTaskRequest) (*domain.Task, error) {
	if _, err := s.owned(ctx, taskID, userID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates[fieldTitle] = *req.Title
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if req.IsCompleted != nil {
		updates[fieldIsCompleted] = *req.IsCompleted
	}
	if req.DueDate != nil {
		t, err := parseOptionalTime(req.DueDate, fieldDueDate)
		if err != nil {
			return nil, err
		}
		updates[fieldDueDate] = *t
	}
	if req.ReminderAt != nil {
		t, err := parseOptionalTime(req.ReminderAt, fieldReminderAt)
		if err != nil {
			return nil, err
		}
		updates[fieldReminderAt] = *t
	}

	var clears []string
	if req.ClearDueDate {
		if req.DueDate != nil {
			return nil, fmt.Errorf("cannot set and clear due_date in one request: %w", domain.ErrBadRequest)
		}
		clears = append(clears, fieldDueDate)
	}
	if req.ClearReminder {
		if req.ReminderAt != nil {
			return nil, fmt.Errorf("cannot set and clear reminder_at in one request: %w", domain.ErrBadRequest)
		}
		clears = append(clears, fieldReminderAt)
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, taskID, updates); err != nil {
			return nil, err
		}
	}
	if len(clears) > 0 {
		if err := s.repo.ClearFields(ctx, taskID, clears); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, taskID)
}

func (s *service) Delete(ctx context.Context, taskID, userID string) error {
	if _, err := s.owned(ctx, taskID, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, taskID)
}

func (s *service) owned(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, fmt.Errorf("not your task: %w", domain.ErrForbidden)
	}
	return t, nil
}

func parseOptionalTime(s *string, field string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC 3339: %w", field, domain.ErrBadRequest)
	}
	utc := t.UTC()
	return &utc, nil
}
