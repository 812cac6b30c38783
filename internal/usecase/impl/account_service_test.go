package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"accounts/config"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	infraauth "accounts/internal/infra/auth"
	"accounts/internal/infra/persistence/memory"
	"accounts/internal/usecase"
)

// recordingMailer captures the tokens handed to the mailer so tests can walk
// the verification and reset workflows end to end.
type recordingMailer struct {
	mu                sync.Mutex
	verificationToken string
	resetToken        string
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, _ *entity.User, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verificationToken = token

	return nil
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, _ *entity.User, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetToken = token

	return nil
}

func (m *recordingMailer) lastResetToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.resetToken
}

// serviceFixtures wires the services against the in-memory store with real
// hashing and token signing.
type serviceFixtures struct {
	accounts usecase.AccountUsecase
	auth     usecase.AuthUsecase
	store    *memory.Store
	mailer   *recordingMailer
}

func createTestServices(t *testing.T, mutate ...func(*config.Config)) serviceFixtures {
	t.Helper()

	cfg := &config.Config{}
	cfg.SecretKey.Token = "test-workflow-secret"
	cfg.SecretKey.Access = "test-access-secret"
	cfg.SecretKey.Refresh = "test-refresh-secret"
	cfg.Auth = &config.AuthConfig{
		BcryptCost:           bcrypt.MinCost,
		PublicIDLength:       config.DefaultPublicIDLength,
		VerificationTokenTTL: time.Hour,
		ResetTokenTTL:        time.Hour,
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      time.Hour,
	}
	for _, m := range mutate {
		m(cfg)
	}

	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := infraauth.NewBcryptHasher(cfg)
	codec, err := infraauth.NewJWTCodec(cfg)
	require.NoError(t, err)
	idGen := infraauth.NewPublicIDGenerator(cfg)
	mailer := &recordingMailer{}

	accounts := NewAccountService(AccountServiceParams{
		TxManager: store,
		UserRepo:  store.UserRepo(),
		Hasher:    hasher,
		Codec:     codec,
		IDGen:     idGen,
		Mailer:    mailer,
		Logger:    logger,
	})
	auth := NewAuthService(AuthServiceParams{
		UserRepo:         store.UserRepo(),
		RefreshTokenRepo: store.RefreshTokenRepo(),
		Hasher:           hasher,
		Codec:            codec,
		Logger:           logger,
	})

	return serviceFixtures{
		accounts: accounts,
		auth:     auth,
		store:    store,
		mailer:   mailer,
	}
}

func registerInput(email string) usecase.CreateUserInput {
	return usecase.CreateUserInput{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "Password123!",
		Addresses: []usecase.AddressInput{
			{Street: "1 Main St", City: "Springfield", Country: "US", PostalCode: "12345", Type: "shipping"},
		},
	}
}

func TestAccountService_CreateUser_Success(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	profile, err := fixtures.accounts.CreateUser(ctx, registerInput("test@example.com"))
	require.NoError(t, err)

	assert.Len(t, profile.PublicID, config.DefaultPublicIDLength)
	assert.Equal(t, "test@example.com", profile.Email)
	assert.False(t, profile.EmailVerified)
	assert.Equal(t, []string{entity.RoleUser}, profile.Roles)
	require.Len(t, profile.Addresses, 1)
	assert.Equal(t, "Springfield", profile.Addresses[0].City)
	assert.NotEmpty(t, profile.Addresses[0].PublicID)
	assert.NotEqual(t, profile.PublicID, profile.Addresses[0].PublicID)
}

func TestAccountService_CreateUser_DuplicateEmail(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	_, err := fixtures.accounts.CreateUser(ctx, registerInput("dup@example.com"))
	require.NoError(t, err)

	_, err = fixtures.accounts.CreateUser(ctx, registerInput("dup@example.com"))
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateEmail)
}

func TestAccountService_CreateUser_WeakPassword(t *testing.T) {
	fixtures := createTestServices(t, func(cfg *config.Config) {
		cfg.PasswordStrength = &config.PasswordStrengthConfig{
			MinLength:      12,
			RequireNumbers: true,
		}
	})

	input := registerInput("weak@example.com")
	input.Password = "short"

	_, err := fixtures.accounts.CreateUser(context.Background(), input)
	assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)
}

func TestAccountService_GetUser_RoundTrip(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	created, err := fixtures.accounts.CreateUser(ctx, registerInput("round@example.com"))
	require.NoError(t, err)

	byEmail, err := fixtures.accounts.GetUserByEmail(ctx, "round@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.PublicID, byEmail.PublicID)

	byID, err := fixtures.accounts.GetUserByPublicID(ctx, created.PublicID)
	require.NoError(t, err)
	assert.Equal(t, "round@example.com", byID.Email)

	_, err = fixtures.accounts.GetUserByPublicID(ctx, "nonexistent-public-id")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestAccountService_UpdateUser(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	created, err := fixtures.accounts.CreateUser(ctx, registerInput("update@example.com"))
	require.NoError(t, err)

	updated, err := fixtures.accounts.UpdateUser(ctx, created.PublicID, usecase.UpdateUserInput{
		FirstName: "New",
		LastName:  "Name",
	})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.FirstName)
	assert.Equal(t, "Name", updated.LastName)
	assert.Equal(t, "update@example.com", updated.Email)

	_, err = fixtures.accounts.UpdateUser(ctx, "nonexistent-public-id", usecase.UpdateUserInput{})
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestAccountService_DeleteUser(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	created, err := fixtures.accounts.CreateUser(ctx, registerInput("delete@example.com"))
	require.NoError(t, err)

	require.NoError(t, fixtures.accounts.DeleteUser(ctx, created.PublicID))

	_, err = fixtures.accounts.GetUserByPublicID(ctx, created.PublicID)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)

	err = fixtures.accounts.DeleteUser(ctx, created.PublicID)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestAccountService_ListUsers_Pagination(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	emails := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"}
	for _, email := range emails {
		_, err := fixtures.accounts.CreateUser(ctx, registerInput(email))
		require.NoError(t, err)
	}

	page1, err := fixtures.accounts.ListUsers(ctx, 1, 2)
	require.NoError(t, err)
	page2, err := fixtures.accounts.ListUsers(ctx, 2, 2)
	require.NoError(t, err)

	require.Len(t, page1, 2)
	require.Len(t, page2, 2)

	seen := make(map[string]struct{})
	for _, p := range append(page1, page2...) {
		seen[p.PublicID] = struct{}{}
	}
	assert.Len(t, seen, 4, "pages must be disjoint and cover all users")

	page3, err := fixtures.accounts.ListUsers(ctx, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, page3)
}

func TestAccountService_VerifyEmailToken(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	created, err := fixtures.accounts.CreateUser(ctx, registerInput("verify@example.com"))
	require.NoError(t, err)

	stored, err := fixtures.store.UserRepo().FindByEmail(ctx, "verify@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, stored.EmailVerificationToken)

	ok, err := fixtures.accounts.VerifyEmailToken(ctx, stored.EmailVerificationToken)
	require.NoError(t, err)
	assert.True(t, ok)

	profile, err := fixtures.accounts.GetUserByPublicID(ctx, created.PublicID)
	require.NoError(t, err)
	assert.True(t, profile.EmailVerified)

	// Single use: the consumed token never verifies again.
	ok, err = fixtures.accounts.VerifyEmailToken(ctx, stored.EmailVerificationToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccountService_VerifyEmailToken_Expired(t *testing.T) {
	fixtures := createTestServices(t, func(cfg *config.Config) {
		cfg.Auth.VerificationTokenTTL = -time.Minute
	})
	ctx := context.Background()

	_, err := fixtures.accounts.CreateUser(ctx, registerInput("expired@example.com"))
	require.NoError(t, err)

	stored, err := fixtures.store.UserRepo().FindByEmail(ctx, "expired@example.com")
	require.NoError(t, err)

	ok, err := fixtures.accounts.VerifyEmailToken(ctx, stored.EmailVerificationToken)
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := fixtures.store.UserRepo().FindByEmail(ctx, "expired@example.com")
	require.NoError(t, err)
	assert.False(t, after.EmailVerified)
}

func TestAccountService_VerifyEmailToken_Garbage(t *testing.T) {
	fixtures := createTestServices(t)

	ok, err := fixtures.accounts.VerifyEmailToken(context.Background(), "not-a-token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccountService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	fixtures := createTestServices(t)

	ok, err := fixtures.accounts.RequestPasswordReset(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, fixtures.mailer.lastResetToken())
}

func TestAccountService_ResetPassword_Success(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	_, err := fixtures.accounts.CreateUser(ctx, registerInput("reset@example.com"))
	require.NoError(t, err)

	ok, err := fixtures.accounts.RequestPasswordReset(ctx, "reset@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	token := fixtures.mailer.lastResetToken()
	require.NotEmpty(t, token)

	ok, err = fixtures.accounts.ResetPassword(ctx, token, "BrandNew456!")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = fixtures.auth.Login(ctx, usecase.LoginInput{Email: "reset@example.com", Password: "BrandNew456!"})
	assert.NoError(t, err)
	_, err = fixtures.auth.Login(ctx, usecase.LoginInput{Email: "reset@example.com", Password: "Password123!"})
	assert.ErrorIs(t, err, domainerrors.ErrAuthenticationFailed)

	// Single use: a second reset with the same token must fail.
	ok, err = fixtures.accounts.ResetPassword(ctx, token, "AnotherOne789!")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccountService_ResetPassword_ExpiredTokenLeavesHash(t *testing.T) {
	fixtures := createTestServices(t, func(cfg *config.Config) {
		cfg.Auth.ResetTokenTTL = -time.Minute
	})
	ctx := context.Background()

	_, err := fixtures.accounts.CreateUser(ctx, registerInput("stale@example.com"))
	require.NoError(t, err)

	before, err := fixtures.store.UserRepo().FindByEmail(ctx, "stale@example.com")
	require.NoError(t, err)

	ok, err := fixtures.accounts.RequestPasswordReset(ctx, "stale@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = fixtures.accounts.ResetPassword(ctx, fixtures.mailer.lastResetToken(), "BrandNew456!")
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := fixtures.store.UserRepo().FindByEmail(ctx, "stale@example.com")
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestAccountService_ResetPassword_NewRequestSupersedesOld(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	_, err := fixtures.accounts.CreateUser(ctx, registerInput("supersede@example.com"))
	require.NoError(t, err)

	ok, err := fixtures.accounts.RequestPasswordReset(ctx, "supersede@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	firstToken := fixtures.mailer.lastResetToken()

	// Tokens embed issue time at second granularity; wait so the second
	// request produces a distinct token string.
	time.Sleep(1100 * time.Millisecond)

	ok, err = fixtures.accounts.RequestPasswordReset(ctx, "supersede@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	secondToken := fixtures.mailer.lastResetToken()
	require.NotEqual(t, firstToken, secondToken)

	ok, err = fixtures.accounts.ResetPassword(ctx, firstToken, "BrandNew456!")
	require.NoError(t, err)
	assert.False(t, ok, "superseded token must be dead")

	ok, err = fixtures.accounts.ResetPassword(ctx, secondToken, "BrandNew456!")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccountService_LoadCredentials(t *testing.T) {
	fixtures := createTestServices(t)
	ctx := context.Background()

	_, err := fixtures.accounts.CreateUser(ctx, registerInput("principal@example.com"))
	require.NoError(t, err)

	principal, err := fixtures.accounts.LoadCredentials(ctx, "principal@example.com")
	require.NoError(t, err)
	assert.Equal(t, "principal@example.com", principal.Email)
	assert.NotEmpty(t, principal.PasswordHash)
	assert.Contains(t, principal.Authorities, entity.AuthorityReadAll)

	_, err = fixtures.accounts.LoadCredentials(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domainerrors.ErrPrincipalNotFound)
}
