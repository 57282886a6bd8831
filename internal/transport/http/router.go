package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/go-todo-nosql/internal/application/attachment"
	"github.com/go-todo-nosql/internal/application/auth"
	"github.com/go-todo-nosql/internal/application/list"
	"github.com/go-todo-nosql/internal/application/notification"
	"github.com/go-todo-nosql/internal/application/session"
	"github.com/go-todo-nosql/internal/application/step"
	"github.com/go-todo-nosql/internal/application/task"
	"github.com/go-todo-nosql/internal/application/user"
	"github.com/go-todo-nosql/internal/config"
	"github.com/go-todo-nosql/internal/domain"
	"github.com/go-todo-nosql/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-todo-nosql/internal/infrastructure/jwt"
	s3infra "github.com/go-todo-nosql/internal/infrastructure/s3"
	"github.com/go-todo-nosql/internal/infrastructure/smtp"
	"github.com/go-todo-nosql/internal/pkg/loginlimit"
	"github.com/go-todo-nosql/internal/transport/http/handler"
	appmiddleware "github.com/go-todo-nosql/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	ListRepo         *dynamo.ListRepo
	TaskRepo         *dynamo.TaskRepo
	StepRepo         *dynamo.StepRepo
	NotificationRepo *dynamo.NotificationRepo
	AttachmentRepo   *dynamo.AttachmentRepo
	VerificationRepo *dynamo.VerificationRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	JWTProvider      *jwtinfra.Provider
	LoginLimiter     *loginlimit.Limiter
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	sessionSvc := session.NewService(session.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		JWTProvider:     deps.JWTProvider,
		LoginLimiter:    deps.LoginLimiter,
		RefreshTokenDur: cfg.RefreshTokenDur,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenDur,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:         deps.UserRepo,
		SessionRepo:      deps.SessionRepo,
		VerificationRepo: deps.VerificationRepo,
		Mailer:           deps.Mailer,
		JWTProvider:      deps.JWTProvider,
		RefreshTokenDur:  cfg.RefreshTokenDur,
	})
	listSvc := list.NewService(list.ServiceDeps{ListRepo: deps.ListRepo, TaskRepo: deps.TaskRepo})
	taskSvc := task.NewService(task.ServiceDeps{TaskRepo: deps.TaskRepo, ListRepo: deps.ListRepo})
	stepSvc := step.NewService(step.ServiceDeps{StepRepo: deps.StepRepo, TaskRepo: deps.TaskRepo})
	notifSvc := notification.NewService(deps.NotificationRepo)
	attachSvc := attachment.NewService(attachment.ServiceDeps{
		AttachmentRepo: deps.AttachmentRepo,
		TaskRepo:       deps.TaskRepo,
		ObjectStore:    deps.S3Store,
	})

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	listH := handler.NewListHandler(listSvc)
	taskH := handler.NewTaskHandler(taskSvc)
	stepH := handler.NewStepHandler(stepSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	attachH := handler.NewAttachmentHandler(attachSvc)
	pwH := handler.NewPasswordRecoveryHandler(authSvc)
	emailH := handler.NewEmailConfirmHandler(authSvc)

	r.Route("/v1", func(r chi.Router) {
		// Public routes (no auth).
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", pwH.Action)

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Post("/users/change-password", userH.ChangePassword)

			r.Post("/lists", listH.Create)
			r.Get("/lists", listH.List)
			r.Get("/lists/{id}", listH.Get)
			r.Put("/lists/{id}", listH.Update)
			r.Delete("/lists/{id}", listH.Delete)

			r.Post("/lists/{listID}/tasks", taskH.Create)
			r.Get("/lists/{listID}/tasks", taskH.ListByList)
			r.Get("/tasks/{id}", taskH.Get)
			r.Put("/tasks/{id}", taskH.Update)
			r.Delete("/tasks/{id}", taskH.Delete)

			r.Post("/tasks/{taskID}/steps", stepH.Create)
			r.Get("/tasks/{taskID}/steps", stepH.ListByTask)
			r.Put("/steps/{id}", stepH.Update)
			r.Delete("/steps/{id}", stepH.Delete)

			r.Post("/tasks/{taskID}/attachments", attachH.Upload)
			r.Get("/tasks/{taskID}/attachments", attachH.ListByTask)
			r.Get("/attachments/{id}", attachH.Download)
			r.Get("/attachments/{id}/url", attachH.PresignedURL)
			r.Delete("/attachments/{id}", attachH.Delete)

			r.Get("/notifications", notifH.ListUnread)
			r.Get("/notifications/{id}", notifH.Get)
			r.Put("/notifications/{id}", notifH.MarkAsRead)

			r.Post("/password-recovery/change-password", pwH.ChangePassword)
			r.Post("/confirm-email/{action}", emailH.Action)

			// Admin-only routes.
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Delete)
				r.Post("/notifications/system", notifH.CreateSystem)
			})
		})
	})

	return r
}
