package domain

// UserVerification stores a pending OTP or token, keyed by user and type.
// ExpiresAt doubles as the DynamoDB TTL attribute.
type UserVerification struct {
	UserID    string `dynamodbav:"user_id"`
	Type      string `dynamodbav:"type"` // "otp" | "email"
	Code      string `dynamodbav:"code"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}
