// Package reminder contains the notification scheduling engine: periodic
// checks that turn task reminder times and due dates into persisted
// notification records, with dedup windows so a task is notified at most
// once per window. Delivery is out of scope — consumers read the records
// through the notifications API.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-todo-nosql/internal/domain"
	"github.com/go-todo-nosql/internal/pkg/datekey"
	"github.com/go-todo-nosql/internal/pkg/id"
)

type taskSource interface {
	FindWithReminderBetween(ctx context.Context, start, end time.Time) ([]domain.Task, error)
	FindIncompleteWithDueDate(ctx context.Context) ([]domain.Task, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	FindRecentByTask(ctx context.Context, taskID, userID, notifType string, since time.Time) (*domain.Notification, error)
	FindLatestByTask(ctx context.Context, taskID, userID, notifType string) (*domain.Notification, error)
}

type ServiceDeps struct {
	TaskRepo         taskSource
	NotificationRepo notificationStore
	DateKeys         *datekey.Resolver
	Timezone         string

	// ReminderWindow is the half-width of the detection window around now;
	// Suppression is how long a reminder notification mutes repeats.
	ReminderWindow time.Duration
	Suppression    time.Duration

	// Now may be nil (time.Now). Injected so window boundaries are testable.
	Now func() time.Time
}

// Service runs the reminder and due-task checks. Both are idempotent: each
// run re-derives its candidate set from the store, so there is no pending
// state to lose and a failed run is retried naturally on the next tick.
type Service struct {
	tasks         taskSource
	notifications notificationStore
	days          *datekey.Resolver
	zone          string
	window        time.Duration
	suppression   time.Duration
	now           func() time.Time
}

func NewService(deps ServiceDeps) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		tasks:         deps.TaskRepo,
		notifications: deps.NotificationRepo,
		days:          deps.DateKeys,
		zone:          deps.Timezone,
		window:        deps.ReminderWindow,
		suppression:   deps.Suppression,
		now:           now,
	}
}

// RunReminderCheck notifies tasks whose reminder time falls inside
// [now-window, now+window], unless a reminder notification for the task was
// already created within the suppression window. A failure on one task is
// logged and does not block the others.
func (s *Service) RunReminderCheck(ctx context.Context) error {
	now := s.now()
	tasks, err := s.tasks.FindWithReminderBetween(ctx, now.Add(-s.window), now.Add(s.window))
	if err != nil {
		return fmt.Errorf("fetch reminder candidates: %w", err)
	}
	for _, t := range tasks {
		if err := s.remindTask(ctx, t, now); err != nil {
			slog.Warn("reminder check: skipping task", "task_id", t.TaskID, "err", err)
		}
	}
	return nil
}

func (s *Service) remindTask(ctx context.Context, t domain.Task, now time.Time) error {
	existing, err := s.notifications.FindRecentByTask(ctx, t.TaskID, t.UserID,
		domain.NotificationTypeTaskReminder, now.Add(-s.suppression))
	if err != nil {
		return fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		return nil
	}
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         t.UserID,
		Title:          "Task Reminder",
		Message:        fmt.Sprintf("Your task %q is coming up.", t.Title),
		Type:           domain.NotificationTypeTaskReminder,
		TaskID:         &t.TaskID,
		CreatedAt:      now.UTC(),
	}
	if err := s.notifications.Put(ctx, n); err != nil {
		return fmt.Errorf("create reminder notification: %w", err)
	}
	slog.Info("reminder notification created", "task_id", t.TaskID, "user_id", t.UserID)
	return nil
}

// RunDueCheck notifies incomplete tasks whose due date falls on today's
// calendar day in the configured zone, at most once per task per day. Dedup
// compares the day key of the latest due notification's creation time, not a
// fixed lookback, so behaviour stays correct across local midnight and DST.
func (s *Service) RunDueCheck(ctx context.Context) error {
	now := s.now()
	today, err := s.days.Key(now, s.zone)
	if err != nil {
		return fmt.Errorf("resolve today: %w", err)
	}
	tasks, err := s.tasks.FindIncompleteWithDueDate(ctx)
	if err != nil {
		return fmt.Errorf("fetch due candidates: %w", err)
	}
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		if err := s.notifyDueTask(ctx, t, now, today); err != nil {
			slog.Warn("due-task check: skipping task", "task_id", t.TaskID, "err", err)
		}
	}
	return nil
}

func (s *Service) notifyDueTask(ctx context.Context, t domain.Task, now time.Time, today string) error {
	dueKey, err := s.days.Key(*t.DueDate, s.zone)
	if err != nil {
		return fmt.Errorf("resolve due day: %w", err)
	}
	if dueKey != today {
		return nil
	}
	latest, err := s.notifications.FindLatestByTask(ctx, t.TaskID, t.UserID, domain.NotificationTypeTaskDue)
	if err != nil {
		return fmt.Errorf("dedup lookup: %w", err)
	}
	if latest != nil {
		createdKey, err := s.days.Key(latest.CreatedAt, s.zone)
		if err != nil {
			return fmt.Errorf("resolve notification day: %w", err)
		}
		if createdKey == today {
			return nil
		}
	}
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         t.UserID,
		Title:          "Task Due Today",
		Message:        fmt.Sprintf("Your task %q is due today.", t.Title),
		Type:           domain.NotificationTypeTaskDue,
		TaskID:         &t.TaskID,
		CreatedAt:      now.UTC(),
	}
	if err := s.notifications.Put(ctx, n); err != nil {
		return fmt.Errorf("create due notification: %w", err)
	}
	slog.Info("due notification created", "task_id", t.TaskID, "user_id", t.UserID)
	return nil
}
