package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-todo-nosql/internal/domain"
	"github.com/go-todo-nosql/internal/pkg/loginlimit"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return m.Called(ctx, sessionID, updates).Error(0)
}
func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role, sessionID string) (string, error) {
	args := m.Called(userID, role, sessionID)
	return args.String(0), args.Error(1)
}

// --- helpers ---

const testPassword = "correct horse battery"

func newSvc(us *mockUserStore, ss *mockSessionStore, jwt *mockJWTSigner, limiter *loginlimit.Limiter) Service {
	if limiter == nil {
		limiter = loginlimit.New(5, 5*time.Minute, nil)
	}
	return NewService(ServiceDeps{
		UserRepo:        us,
		SessionRepo:     ss,
		JWTProvider:     jwt,
		LoginLimiter:    limiter,
		RefreshTokenDur: 24 * time.Hour,
	})
}

func activeUser(t *testing.T) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		UserID:       "user-123",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Enable:       1,
	}
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByUsername", mock.Anything, "alice").Return(activeUser(t), nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", "user-123", domain.RoleUser, mock.Anything).Return("access", nil)

	result, err := newSvc(us, ss, jwt, nil).Login(context.Background(),
		LoginRequest{Username: "alice", Password: testPassword}, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, "access", result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "alice", result.Session.User.Username)
	assert.True(t, result.Session.Enable)
}

func TestLogin_FallsBackToEmailLookup(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByUsername", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeUser(t), nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", mock.Anything, mock.Anything, mock.Anything).Return("access", nil)

	_, err := newSvc(us, ss, jwt, nil).Login(context.Background(),
		LoginRequest{Username: "alice@example.com", Password: testPassword}, "10.0.0.1")

	require.NoError(t, err)
}

func TestLogin_WrongPassword(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByUsername", mock.Anything, "alice").Return(activeUser(t), nil)

	_, err := newSvc(us, ss, jwt, nil).Login(context.Background(),
		LoginRequest{Username: "alice", Password: "nope"}, "10.0.0.1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	ss.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestLogin_UnknownUser(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByUsername", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	_, err := newSvc(us, ss, jwt, nil).Login(context.Background(),
		LoginRequest{Username: "ghost", Password: "whatever"}, "10.0.0.1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_DisabledAccount(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	u := activeUser(t)
	u.Enable = 0
	us.On("GetByUsername", mock.Anything, "alice").Return(u, nil)

	_, err := newSvc(us, ss, jwt, nil).Login(context.Background(),
		LoginRequest{Username: "alice", Password: testPassword}, "10.0.0.1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_DisabledAccountWrongPassword(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	u := activeUser(t)
	u.Enable = 0
	us.On("GetByUsername", mock.Anything, "alice").Return(u, nil)

	limiter := loginlimit.New(1, 5*time.Minute, nil)
	svc := newSvc(us, ss, jwt, limiter)

	// Without the password, a disabled account answers exactly like any
	// other bad credential and the failure is metered.
	_, err := svc.Login(context.Background(),
		LoginRequest{Username: "alice", Password: "nope"}, "10.0.0.1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.NotContains(t, err.Error(), "disabled")

	_, err = svc.Login(context.Background(),
		LoginRequest{Username: "alice", Password: "nope"}, "10.0.0.1")
	assert.True(t, errors.Is(err, domain.ErrTooManyAttempts))
}

func TestLogin_StoreErrorIsNotCredentialFailure(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	transient := errors.New("provisioned throughput exceeded")
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, transient).Once()
	us.On("GetByUsername", mock.Anything, "alice").Return(activeUser(t), nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", mock.Anything, mock.Anything, mock.Anything).Return("access", nil)

	limiter := loginlimit.New(1, 5*time.Minute, nil)
	svc := newSvc(us, ss, jwt, limiter)

	_, err := svc.Login(context.Background(),
		LoginRequest{Username: "alice", Password: testPassword}, "10.0.0.1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
	us.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)

	// The transient error neither counted toward the limit nor blocked
	// the retry once the store recovered.
	_, err = svc.Login(context.Background(),
		LoginRequest{Username: "alice", Password: testPassword}, "10.0.0.1")
	assert.NoError(t, err)
}

func TestLogin_BlockedAfterRepeatedFailures(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByUsername", mock.Anything, "alice").Return(activeUser(t), nil)

	limiter := loginlimit.New(3, 5*time.Minute, nil)
	svc := newSvc(us, ss, jwt, limiter)
	req := LoginRequest{Username: "alice", Password: "nope"}

	for i := 0; i < 3; i++ {
		_, err := svc.Login(context.Background(), req, "10.0.0.1")
		assert.True(t, errors.Is(err, domain.ErrUnauthorized), "attempt %d", i+1)
	}

	// Fourth attempt is rejected before the password is even checked.
	_, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: testPassword}, "10.0.0.1")
	assert.True(t, errors.Is(err, domain.ErrTooManyAttempts))
	us.AssertNumberOfCalls(t, "GetByUsername", 3)
}

func TestLogin_LimiterIsScopedToIdentifierAndIP(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByUsername", mock.Anything, "alice").Return(activeUser(t), nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", mock.Anything, mock.Anything, mock.Anything).Return("access", nil)

	limiter := loginlimit.New(2, 5*time.Minute, nil)
	svc := newSvc(us, ss, jwt, limiter)
	bad := LoginRequest{Username: "alice", Password: "nope"}

	for i := 0; i < 2; i++ {
		_, _ = svc.Login(context.Background(), bad, "10.0.0.1")
	}
	_, err := svc.Login(context.Background(), bad, "10.0.0.1")
	require.True(t, errors.Is(err, domain.ErrTooManyAttempts))

	// Same account from a different address is unaffected.
	_, err = svc.Login(context.Background(),
		LoginRequest{Username: "alice", Password: testPassword}, "192.168.1.9")
	assert.NoError(t, err)
}

func TestLogin_SuccessResetsFailureCount(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByUsername", mock.Anything, "alice").Return(activeUser(t), nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", mock.Anything, mock.Anything, mock.Anything).Return("access", nil)

	limiter := loginlimit.New(3, 5*time.Minute, nil)
	svc := newSvc(us, ss, jwt, limiter)

	for i := 0; i < 2; i++ {
		_, _ = svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "nope"}, "10.0.0.1")
	}
	_, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: testPassword}, "10.0.0.1")
	require.NoError(t, err)

	// Counter restarted: two more failures stay under the threshold.
	for i := 0; i < 2; i++ {
		_, err = svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "nope"}, "10.0.0.1")
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	}
}

func TestLogin_LimiterKeyIsCaseInsensitive(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	us.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

	limiter := loginlimit.New(2, 5*time.Minute, nil)
	svc := newSvc(us, ss, jwt, limiter)

	_, _ = svc.Login(context.Background(), LoginRequest{Username: "Alice", Password: "x"}, "10.0.0.1")
	_, _ = svc.Login(context.Background(), LoginRequest{Username: "ALICE", Password: "x"}, "10.0.0.1")

	_, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "x"}, "10.0.0.1")
	assert.True(t, errors.Is(err, domain.ErrTooManyAttempts))
}

// --- Logout / GetCurrent / Refresh ---

func TestLogout_DisablesSession(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	ss.On("Update", mock.Anything, "sess-1", map[string]interface{}{"enable": false}).Return(nil)

	err := newSvc(us, ss, jwt, nil).Logout(context.Background(), "sess-1")

	require.NoError(t, err)
	ss.AssertExpectations(t)
}

func TestGetCurrent_RevokedSession(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	ss.On("Get", mock.Anything, "sess-1").Return(&domain.Session{SessionID: "sess-1", Enable: false}, nil)

	_, err := newSvc(us, ss, jwt, nil).GetCurrent(context.Background(), "sess-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestGetCurrent_AttachesUser(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	ss.On("Get", mock.Anything, "sess-1").Return(&domain.Session{SessionID: "sess-1", UserID: "user-123", Enable: true}, nil)
	us.On("Get", mock.Anything, "user-123").Return(activeUser(t), nil)

	sess, err := newSvc(us, ss, jwt, nil).GetCurrent(context.Background(), "sess-1")

	require.NoError(t, err)
	assert.Equal(t, "alice", sess.User.Username)
}

func TestRefresh_RotatesToken(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	sess := &domain.Session{
		SessionID:        "sess-1",
		UserID:           "user-123",
		Enable:           true,
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	ss.On("GetByRefreshToken", mock.Anything, "old-token").Return(sess, nil)
	ss.On("RotateRefreshToken", mock.Anything, "sess-1", mock.Anything, mock.Anything).Return(nil)
	us.On("Get", mock.Anything, "user-123").Return(activeUser(t), nil)
	jwt.On("Sign", "user-123", domain.RoleUser, "sess-1").Return("new-access", nil)

	access, refresh, err := newSvc(us, ss, jwt, nil).Refresh(context.Background(), "old-token")

	require.NoError(t, err)
	assert.Equal(t, "new-access", access)
	assert.NotEmpty(t, refresh)
	assert.NotEqual(t, "old-token", refresh)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	sess := &domain.Session{
		SessionID:        "sess-1",
		UserID:           "user-123",
		Enable:           true,
		RefreshExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}
	ss.On("GetByRefreshToken", mock.Anything, "stale").Return(sess, nil)

	_, _, err := newSvc(us, ss, jwt, nil).Refresh(context.Background(), "stale")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	ss.AssertNotCalled(t, "RotateRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_UnknownToken(t *testing.T) {
	us, ss, jwt := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}

	ss.On("GetByRefreshToken", mock.Anything, "bogus").Return(nil, domain.ErrNotFound)

	_, _, err := newSvc(us, ss, jwt, nil).Refresh(context.Background(), "bogus")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
