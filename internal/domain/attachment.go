package domain

import "time"

// Attachment is the metadata row for a file stored in S3 under Key.
type Attachment struct {
	AttachmentID string     `json:"id" dynamodbav:"attachment_id"`
	TaskID       string     `json:"task_id" dynamodbav:"task_id"`
	UserID       string     `json:"user_id" dynamodbav:"user_id"`
	FileName     string     `json:"file_name" dynamodbav:"file_name"`
	ContentType  string     `json:"content_type" dynamodbav:"content_type"`
	Key          string     `json:"-" dynamodbav:"s3_key"`
	Size         int64      `json:"size" dynamodbav:"size"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
}
