package domain

import "time"

// Notification types. Reminder and due notifications are created by the
// background checks; system notifications come from admin tooling.
const (
	NotificationTypeTaskReminder = "task_reminder"
	NotificationTypeTaskDue      = "task_due"
	NotificationTypeSystem       = "system"
)

// Notification is immutable after creation except for the read flag.
type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	Title          string    `json:"title" dynamodbav:"title"`
	Message        string    `json:"message" dynamodbav:"message"`
	Type           string    `json:"type" dynamodbav:"type"`
	IsRead         bool      `json:"is_read" dynamodbav:"is_read"`
	// task_id is the hash key of a sparse GSI, so a nil TaskID must omit the
	// attribute entirely; a NULL value would fail PutItem index validation.
	TaskID         *string   `json:"task_id,omitempty" dynamodbav:"task_id,omitempty"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"created_at"`
}
