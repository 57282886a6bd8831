// Package step manages checklist items inside a task.
package step

import (
	"context"
	"fmt"
	"time"

	"github.com/go-todo-nosql/internal/domain"
	"github.com/go-todo-nosql/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, taskID, userID string, req domain.CreateStepRequest) (*domain.Step, error)
	ListByTask(ctx context.Context, taskID, userID string) ([]domain.Step, error)
	Update(ctx context.Context, stepID, userID string, req domain.UpdateStepRequest) (*domain.Step, error)
	Delete(ctx context.Context, stepID, userID string) error
}

type stepStore interface {
	Put(ctx context.Context, s *domain.Step) error
	Get(ctx context.Context, stepID string) (*domain.Step, error)
	ListByTask(ctx context.Context, taskID string) ([]domain.Step, error)
	Update(ctx context.Context, stepID string, updates map[string]interface{}) error
	Delete(ctx context.Context, stepID string) error
}

type taskStore interface {
	Get(ctx context.Context, taskID string) (*domain.Task, error)
}

type ServiceDeps struct {
	StepRepo stepStore
	TaskRepo taskStore
}

type service struct {
	repo     stepStore
	taskRepo taskStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.StepRepo, taskRepo: deps.TaskRepo}
}

func (s *service) Create(ctx context.Context, taskID, userID string, req domain.CreateStepRequest) (*domain.Step, error) {
	if err := s.checkTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	st := &domain.Step{
		StepID:    id.New(),
		TaskID:    taskID,
		UserID:    userID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) ListByTask(ctx context.Context, taskID, userID string) ([]domain.Step, error) {
	if err := s.checkTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByTask(ctx, taskID)
}

func (s *service) Update(ctx context.Context, stepID, userID string, req domain.UpdateStepRequest) (*domain.Step, error) {
	if _, err := s.owned(ctx, stepID, userID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.IsCompleted != nil {
		updates["is_completed"] = *req.IsCompleted
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, stepID)
	}
	if err := s.repo.Update(ctx, stepID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, stepID)
}

func (s *service) Delete(ctx context.Context, stepID, userID string) error {
	if _, err := s.owned(ctx, stepID, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, stepID)
}

func (s *service) checkTask(ctx context.Context, taskID, userID string) error {
	t, err := s.taskRepo.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if t.UserID != userID {
		return fmt.Errorf("not your task: %w", domain.ErrForbidden)
	}
	return nil
}

func (s *service) owned(ctx context.Context, stepID, userID string) (*domain.Step, error) {
	st, err := s.repo.Get(ctx, stepID)
	if err != nil {
		return nil, err
	}
	if st.UserID != userID {
		return nil, fmt.Errorf("not your step: %w", domain.ErrForbidden)
	}
	return st, nil
}
