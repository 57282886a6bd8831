package domain

import "time"

// Step is a checklist item within a task.
type Step struct {
	StepID      string    `json:"id" dynamodbav:"step_id"`
	TaskID      string    `json:"task_id" dynamodbav:"task_id"`
	UserID      string    `json:"user_id" dynamodbav:"user_id"`
	Title       string    `json:"title" dynamodbav:"title"`
	IsCompleted bool      `json:"is_completed" dynamodbav:"is_completed"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateStepRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type UpdateStepRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	IsCompleted *bool   `json:"is_completed"`
}
