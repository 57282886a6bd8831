package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/go-todo-nosql/internal/application/reminder"
	"github.com/go-todo-nosql/internal/config"
	"github.com/go-todo-nosql/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-todo-nosql/internal/infrastructure/jwt"
	s3infra "github.com/go-todo-nosql/internal/infrastructure/s3"
	"github.com/go-todo-nosql/internal/infrastructure/smtp"
	"github.com/go-todo-nosql/internal/pkg/datekey"
	"github.com/go-todo-nosql/internal/pkg/loginlimit"
	transporthttp "github.com/go-todo-nosql/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store for task attachments.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer for recovery OTPs and email confirmation.
	mailer := smtp.NewMailer(cfg)

	taskRepo := dynamo.NewTaskRepo(dynamoClient, cfg.DynamoTables.Tasks)
	notificationRepo := dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications)

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		ListRepo:         dynamo.NewListRepo(dynamoClient, cfg.DynamoTables.Lists),
		TaskRepo:         taskRepo,
		StepRepo:         dynamo.NewStepRepo(dynamoClient, cfg.DynamoTables.Steps),
		NotificationRepo: notificationRepo,
		AttachmentRepo:   dynamo.NewAttachmentRepo(dynamoClient, cfg.DynamoTables.Attachments),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.UserVerifications),
		S3Store:          s3Store,
		Mailer:           mailer,
		JWTProvider:      jwtProvider,
		LoginLimiter:     loginlimit.New(cfg.LoginMaxAttempts, cfg.LoginWindow, nil),
	}

	router := transporthttp.NewRouter(cfg, deps)

	// Background notification checks: reminders and due tasks.
	reminderSvc := reminder.NewService(reminder.ServiceDeps{
		TaskRepo:         taskRepo,
		NotificationRepo: notificationRepo,
		DateKeys:         datekey.New(),
		Timezone:         cfg.Timezone,
		ReminderWindow:   cfg.ReminderWindow,
		Suppression:      cfg.ReminderSuppression,
	})
	scheduler := reminder.NewScheduler(reminderSvc, cfg.SchedulerTick)
	schedulerCtx, stopChecks := context.WithCancel(context.Background())
	if err := scheduler.Start(schedulerCtx); err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	// Stop the timer and let an in-flight check finish before cancelling
	// its context; the other order would abort store calls mid-run.
	scheduler.Stop()
	stopChecks()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
