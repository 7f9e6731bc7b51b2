package service

import (
	"context"
	"subscriber-journey/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(env.store.Users(), env.mailer, env.codes)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ann@Example.com", "secret1", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	loggedIn, err := svc.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, err = svc.Login(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(env.store.Users(), env.mailer, env.codes)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ann@example.com", "other12", "Another Ann")
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	assert.Equal(t, "User with this email already exists", err.Error())

	n, err := env.store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(env.store.Users(), env.mailer, env.codes)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ann@example.com", "123", "Ann")
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = svc.Register(ctx, "not-an-email", "secret1", "Ann")
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Register(ctx, "ann@example.com", "secret1", "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestAuthService_PasswordResetWorksOnce(t *testing.T) {
	env := newTestEnv(t, "482913")
	svc := NewAuthService(env.store.Users(), env.mailer, env.codes)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "ann@example.com"))
	msg := env.sender.last(t)
	assert.Equal(t, "ann@example.com", msg.To)
	assert.Equal(t, subjectPasswordReset, msg.Subject)
	assert.Contains(t, msg.HTML, "482913")

	assert.ErrorIs(t, svc.ResetPassword(ctx, "ann@example.com", "000000", "newpass1"), domain.ErrInvalidResetCode)
	require.NoError(t, svc.ResetPassword(ctx, "ann@example.com", "482913", "newpass1"))
	assert.ErrorIs(t, svc.ResetPassword(ctx, "ann@example.com", "482913", "again123"), domain.ErrInvalidResetCode)

	_, err = svc.Login(ctx, "ann@example.com", "newpass1")
	assert.NoError(t, err)
	_, err = svc.Login(ctx, "ann@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_PasswordResetUnknownUser(t *testing.T) {
	env := newTestEnv(t, "482913")
	svc := NewAuthService(env.store.Users(), env.mailer, env.codes)

	err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, 0, env.sender.count())
}

func TestAuthService_ConcurrentResetUsesCodeOnce(t *testing.T) {
	env := newTestEnv(t, "482913")
	svc := NewAuthService(env.store.Users(), env.mailer, env.codes)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(ctx, "ann@example.com"))

	won := concurrently(10, func() error {
		return svc.ResetPassword(ctx, "ann@example.com", "482913", "newpass1")
	})
	assert.Equal(t, 1, won)

	user, err := env.store.Users().GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Empty(t, user.ResetCode)
}
