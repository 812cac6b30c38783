package impl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accounts/config"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/usecase"
)

func TestAuthService_Login_Success(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	created, err := fixtures.accounts.CreateUser(ctx, registerInput("login@example.com"))
	require.NoError(t, err)

	output, err := fixtures.auth.Login(ctx, usecase.LoginInput{
		Email:    "login@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, output.AccessToken)
	assert.NotEmpty(t, output.RefreshToken)
	assert.NotEqual(t, output.AccessToken, output.RefreshToken)
	assert.Equal(t, created.PublicID, output.User.PublicID)
}

func TestAuthService_Login_WrongPasswordAndUnknownEmailIndistinguishable(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	_, err := fixtures.accounts.CreateUser(ctx, registerInput("victim@example.com"))
	require.NoError(t, err)

	_, wrongPassErr := fixtures.auth.Login(ctx, usecase.LoginInput{
		Email:    "victim@example.com",
		Password: "WrongPassword1!",
	})
	_, unknownErr := fixtures.auth.Login(ctx, usecase.LoginInput{
		Email:    "ghost@example.com",
		Password: "Password123!",
	})

	assert.ErrorIs(t, wrongPassErr, domainerrors.ErrAuthenticationFailed)
	assert.ErrorIs(t, unknownErr, domainerrors.ErrAuthenticationFailed)
	assert.Equal(t, wrongPassErr.Error(), unknownErr.Error())
}

func TestAuthService_Refresh(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	_, err := fixtures.accounts.CreateUser(ctx, registerInput("refresh@example.com"))
	require.NoError(t, err)

	login, err := fixtures.auth.Login(ctx, usecase.LoginInput{
		Email:    "refresh@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	output, err := fixtures.auth.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, output.AccessToken)

	// An access token is never a valid refresh token.
	_, err = fixtures.auth.Refresh(ctx, login.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)

	_, err = fixtures.auth.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
}

func TestAuthService_Refresh_ExpiredSession(t *testing.T) {
	fixtures := createTestServices(t, func(cfg *config.Config) {
		cfg.Auth.RefreshTokenTTL = -time.Minute
	})
	ctx := context.Background()

	_, err := fixtures.accounts.CreateUser(ctx, registerInput("expired-session@example.com"))
	require.NoError(t, err)

	login, err := fixtures.auth.Login(ctx, usecase.LoginInput{
		Email:    "expired-session@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	_, err = fixtures.auth.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
}

func TestAuthService_Logout(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	_, err := fixtures.accounts.CreateUser(ctx, registerInput("logout@example.com"))
	require.NoError(t, err)

	login, err := fixtures.auth.Login(ctx, usecase.LoginInput{
		Email:    "logout@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	require.NoError(t, fixtures.auth.Logout(ctx, login.RefreshToken))

	_, err = fixtures.auth.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)

	// Logout is idempotent.
	assert.NoError(t, fixtures.auth.Logout(ctx, login.RefreshToken))
}

func TestAuthService_PasswordResetRevokesSessions(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	_, err := fixtures.accounts.CreateUser(ctx, registerInput("revoke@example.com"))
	require.NoError(t, err)

	login, err := fixtures.auth.Login(ctx, usecase.LoginInput{
		Email:    "revoke@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	ok, err := fixtures.accounts.RequestPasswordReset(ctx, "revoke@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = fixtures.accounts.ResetPassword(ctx, fixtures.mailer.lastResetToken(), "BrandNew456!")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = fixtures.auth.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
}
