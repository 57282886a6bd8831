package domain

import "time"

// Task belongs to a list. DueDate and ReminderAt are optional; a task with
// neither never enters the notification checks.
type Task struct {
	TaskID      string     `json:"id" dynamodbav:"task_id"`
	ListID      string     `json:"list_id" dynamodbav:"list_id"`
	UserID      string     `json:"user_id" dynamodbav:"user_id"`
	Title       string     `json:"title" dynamodbav:"title"`
	Description string     `json:"description,omitempty" dynamodbav:"description"`
	IsCompleted bool       `json:"is_completed" dynamodbav:"is_completed"`
	DueDate     *time.Time `json:"due_date,omitempty" dynamodbav:"due_date,omitempty"`
	ReminderAt  *time.Time `json:"reminder_at,omitempty" dynamodbav:"reminder_at,omitempty"`
	CreatedAt   time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`    // RFC 3339
	ReminderAt  *string `json:"reminder_at"` // RFC 3339
}

// UpdateTaskRequest applies partial updates. ClearDueDate/ClearReminder
// remove the corresponding attribute; a request body cannot express
// "set pointer to nil" unambiguously, so clearing is explicit.
type UpdateTaskRequest struct {
	Title         *string `json:"title" validate:"omitempty,max=255"`
	Description   *string `json:"description"`
	IsCompleted   *bool   `json:"is_completed"`
	DueDate       *string `json:"due_date"`
	ReminderAt    *string `json:"reminder_at"`
	ClearDueDate  bool    `json:"clear_due_date"`
	ClearReminder bool    `json:"clear_reminder"`
}
