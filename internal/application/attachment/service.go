// Package attachment stores per-task file attachments: bytes in S3, metadata
// in DynamoDB. Access follows task ownership.
package attachment

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-todo-nosql/internal/domain"
	"github.com/go-todo-nosql/internal/pkg/id"
)

const presignTTL = 15 * time.Minute

type UploadInput struct {
	TaskID      string
	UserID      string
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.Attachment, error)
	ListByTask(ctx context.Context, taskID, userID string) ([]domain.Attachment, error)
	Download(ctx context.Context, attachmentID, userID string) (io.ReadCloser, *domain.Attachment, error)
	PresignedURL(ctx context.Context, attachmentID, userID string) (string, error)
	Delete(ctx context.Context, attachmentID, userID string) error
}

type attachmentStore interface {
	Put(ctx context.Context, a *domain.Attachment) error
	Get(ctx context.Context, attachmentID string) (*domain.Attachment, error)
	ListByTask(ctx context.Context, taskID string) ([]domain.Attachment, error)
	SoftDelete(ctx context.Context, attachmentID string) error
}

type taskStore interface {
	Get(ctx context.Context, taskID string) (*domain.Task, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type ServiceDeps struct {
	AttachmentRepo attachmentStore
	TaskRepo       taskStore
	ObjectStore    objectStore
}

type service struct {
	repo     attachmentStore
	taskRepo taskStore
	objects  objectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.AttachmentRepo,
		taskRepo: deps.TaskRepo,
		objects:  deps.ObjectStore,
	}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.Attachment, error) {
	if err := s.checkTask(ctx, input.TaskID, input.UserID); err != nil {
		return nil, err
	}
	safeName := sanitizeFilename(input.Filename)
	attachmentID := id.New()
	key := fmt.Sprintf("attachments/%s/%s/%s", input.TaskID, attachmentID, safeName)
	if _, err := s.objects.Upload(ctx, key, input.Reader, input.ContentType); err != nil {
		return nil, err
	}
	a := &domain.Attachment{
		AttachmentID: attachmentID,
		TaskID:       input.TaskID,
		UserID:       input.UserID,
		FileName:     safeName,
		ContentType:  input.ContentType,
		Key:          key,
		Size:         input.Size,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) ListByTask(ctx context.Context, taskID, userID string) ([]domain.Attachment, error) {
	if err := s.checkTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByTask(ctx, taskID)
}

func (s *service) Download(ctx context.Context, attachmentID, userID string) (io.ReadCloser, *domain.Attachment, error) {
	a, err := s.owned(ctx, attachmentID, userID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.objects.Download(ctx, a.Key)
	if err != nil {
		return nil, nil, err
	}
	return rc, a, nil
}

func (s *service) PresignedURL(ctx context.Context, attachmentID, userID string) (string, error) {
	a, err := s.owned(ctx, attachmentID, userID)
	if err != nil {
		return "", err
	}
	return s.objects.PresignedURL(ctx, a.Key, presignTTL)
}

// Delete removes the S3 object first; the metadata row survives a failed
// object delete so the attachment stays listable and the delete retryable.
func (s *service) Delete(ctx context.Context, attachmentID, userID string) error {
	a, err := s.owned(ctx, attachmentID, userID)
	if err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, a.Key); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, attachmentID)
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

func (s *service) owned(ctx context.Context, attachmentID, userID string) (*domain.Attachment, error) {
	a, err := s.repo.Get(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	if a.DeletedAt != nil {
		return nil, fmt.Errorf("attachment not found: %w", domain.ErrNotFound)
	}
	if a.UserID != userID {
		return nil, fmt.Errorf("not your attachment: %w", domain.ErrForbidden)
	}
	return a, nil
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." && result != ".." {
		return result
	}
	return "_"
}
