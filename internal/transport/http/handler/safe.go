package handler

import (
	"time"

	"github.com/go-todo-nosql/internal/domain"
)

// SafeUser is the client-facing user view. Password hashes and soft-delete
// bookkeeping stay server-side.
type SafeUser struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Role           string    `json:"role"`
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created"`
}

// SafeSession is the client-facing session view. Refresh tokens travel only
// in the AuthEnvelope, never inside the session object.
type SafeSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created"`
}

func toSafeUser(u *domain.User) *SafeUser {
	if u == nil {
		return nil
	}
	return &SafeUser{
		ID:             u.UserID,
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.Role,
		EmailConfirmed: u.EmailConfirmed,
		CreatedAt:      u.CreatedAt,
	}
}

func toSafeSession(s *domain.Session) *SafeSession {
	if s == nil {
		return nil
	}
	return &SafeSession{
		ID:        s.SessionID,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt,
	}
}
