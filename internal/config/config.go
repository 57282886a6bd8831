package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	RefreshTokenDur   time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	AllowedOrigins []string // CORS allowed origins

	// Timezone is the process-wide IANA zone used for calendar-day
	// comparisons. Location is the resolved zone; Load fails when the
	// name does not resolve so a bad zone can never reach the checks.
	Timezone string
	Location *time.Location

	SchedulerTick       time.Duration
	ReminderWindow      time.Duration
	ReminderSuppression time.Duration

	LoginMaxAttempts int
	LoginWindow      time.Duration
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users             string
	Sessions          string
	Lists             string
	Tasks             string
	Steps             string
	Notifications     string
	UserVerifications string
	Attachments       string
}

// Load reads all configuration from environment variables. It returns an
// error only for values that would corrupt behaviour silently if defaulted,
// such as an unresolvable timezone.
func Load() (*Config, error) {
	cfg := &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:             getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:          getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Lists:             getEnv("DYNAMO_TABLE_LISTS", "lists"),
			Tasks:             getEnv("DYNAMO_TABLE_TASKS", "tasks"),
			Steps:             getEnv("DYNAMO_TABLE_STEPS", "steps"),
			Notifications:     getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			UserVerifications: getEnv("DYNAMO_TABLE_USER_VERIFICATIONS", "user_verifications"),
			Attachments:       getEnv("DYNAMO_TABLE_ATTACHMENTS", "attachments"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "go-todo-files"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		RefreshTokenDur:   time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30)) * 24 * time.Hour,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		Timezone: getEnv("APP_TIMEZONE", "UTC"),

		SchedulerTick:       time.Duration(getEnvInt("SCHEDULER_TICK_SECONDS", 60)) * time.Second,
		ReminderWindow:      time.Duration(getEnvInt("REMINDER_WINDOW_MINUTES", 5)) * time.Minute,
		ReminderSuppression: time.Duration(getEnvInt("REMINDER_SUPPRESSION_MINUTES", 60)) * time.Minute,

		LoginMaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:      time.Duration(getEnvInt("LOGIN_WINDOW_SECONDS", 300)) * time.Second,
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE %q is not a valid IANA zone: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
