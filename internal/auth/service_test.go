package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nexylabs/nexyshop-backend/internal/users"
	pkgauth "github.com/nexylabs/nexyshop-backend/pkg/auth"
	"github.com/nexylabs/nexyshop-backend/pkg/config"
	"github.com/nexylabs/nexyshop-backend/pkg/enums"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
)

const usersDDL = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'customer',
    last_login_at DATETIME,
    created_at DATETIME,
    updated_at DATETIME
);`

type fakeSessions struct {
	started []string
	revoked []string
}

func (f *fakeSessions) Start(ctx context.Context, sessionID string) error {
	f.started = append(f.started, sessionID)
	return nil
}

func (f *fakeSessions) Revoke(ctx context.Context, sessionID string) error {
	f.revoked = append(f.revoked, sessionID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "nexyshop-test",
		ExpirationMinutes: 60,
		SessionTTLMinutes: 120,
	}
}

func newAuthService(t *testing.T) (Service, *fakeSessions) {
	t.Helper()

	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec(usersDDL).Error)

	sessions := &fakeSessions{}
	svc, err := NewService(ServiceParams{
		UserRepo:       users.NewRepository(db),
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
	})
	require.NoError(t, err)
	return svc, sessions
}

func TestRegisterCreatesUserAndSession(t *testing.T) {
	t.Parallel()

	svc, sessions := newAuthService(t)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Awa Diop",
		Email:    "Awa@Example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "awa@example.com", resp.User.Email)
	assert.Equal(t, enums.UserRoleCustomer, resp.User.Role)
	require.Len(t, sessions.started, 1)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleCustomer, claims.Role)
	assert.Equal(t, sessions.started[0], claims.ID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthService(t)
	req := RegisterRequest{Name: "A", Email: "dup@example.com", Password: "hunter2hunter2"}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthService(t)
	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{name: "missing name", req: RegisterRequest{Email: "a@b.c", Password: "hunter2hunter2"}},
		{name: "bad email", req: RegisterRequest{Name: "A", Email: "not-an-email", Password: "hunter2hunter2"}},
		{name: "short password", req: RegisterRequest{Name: "A", Email: "a@b.c", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	t.Parallel()

	svc, sessions := newAuthService(t)
	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Moussa",
		Email:    "moussa@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "moussa@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotNil(t, resp.User.LastLoginAt)
	assert.Len(t, sessions.started, 2)

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "moussa@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever-password",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestMeAndLogout(t *testing.T) {
	t.Parallel()

	svc, sessions := newAuthService(t)
	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Fatou",
		Email:    "fatou@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	me, err := svc.Me(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "fatou@example.com", me.Email)

	_, err = svc.Me(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	require.NoError(t, svc.Logout(context.Background(), sessions.started[0]))
	assert.Equal(t, sessions.started[0], sessions.revoked[0])
}
