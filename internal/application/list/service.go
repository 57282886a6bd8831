// Package list manages todo lists. Every operation checks ownership before
// touching the store; lists have no sharing model.
package list

import (
	"context"
	"fmt"
	"time"

	"github.com/go-todo-nosql/internal/domain"
	"github.com/go-todo-nosql/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateListRequest) (*domain.List, error)
	Get(ctx context.Context, listID, userID string) (*domain.List, error)
	ListByUser(ctx context.Context, userID string) ([]domain.List, error)
	Update(ctx context.Context, listID, userID string, req domain.UpdateListRequest) (*domain.List, error)
	Delete(ctx context.Context, listID, userID string) error
}

type listStore interface {
	Put(ctx context.Context, l *domain.List) error
	Get(ctx context.Context, listID string) (*domain.List, error)
	ListByUser(ctx context.Context, userID string) ([]domain.List, error)
	Update(ctx context.Context, listID string, updates map[string]interface{}) error
	Delete(ctx context.Context, listID string) error
}

type taskStore interface {
	ListByList(ctx context.Context, listID string) ([]domain.Task, error)
	Delete(ctx context.Context, taskID string) error
}

type ServiceDeps struct {
	ListRepo listStore
	TaskRepo taskStore
}

type service struct {
	repo     listStore
	taskRepo taskStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.ListRepo, taskRepo: deps.TaskRepo}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateListRequest) (*domain.List, error) {
	now := time.Now().UTC()
	l := &domain.List{
		ListID:      id.New(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *service) Get(ctx context.Context, listID, userID string) (*domain.List, error) {
	return s.owned(ctx, listID, userID)
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]domain.List, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Update(ctx context.Context, listID, userID string, req domain.UpdateListRequest) (*domain.List, error) {
	if _, err := s.owned(ctx, listID, userID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, listID)
	}
	if err := s.repo.Update(ctx, listID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, listID)
}

// Delete removes the list and all of its tasks. Task deletion failures abort
// the operation so a retry can finish the job; the list row goes last.
func (s *service) Delete(ctx context.Context, listID, userID string) error {
	if _, err := s.owned(ctx, listID, userID); err != nil {
		return err
	}
	tasks, err := s.taskRepo.ListByList(ctx, listID)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := s.taskRepo.Delete(ctx, t.TaskID); err != nil {
			return fmt.Errorf("delete task %s: %w", t.TaskID, err)
		}
	}
	return s.repo.Delete(ctx, listID)
}

func (s *service) owned(ctx context.Context, listID, userID string) (*domain.List, error) {
	l, err := s.repo.Get(ctx, listID)
	if err != nil {
		return nil, err
	}
	if l.UserID != userID {
		return nil, fmt.Errorf("not your list: %w", domain.ErrForbidden)
	}
	return l, nil
}
