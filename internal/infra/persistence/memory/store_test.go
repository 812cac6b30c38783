package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accounts/internal/domain/entity"
	"accounts/internal/domain/repository"
)

func newUser(email string) *entity.User {
	return &entity.User{
		PublicID:     uuid.New().String(),
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "hash",
	}
}

func TestStore_Execute_RollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	boom := assert.AnError
	err := store.Execute(ctx, func(repos repository.RepositoryFactory) error {
		require.NoError(t, repos.UserRepo().Create(ctx, newUser("tx@example.com")))

		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.UserRepo().FindByEmail(ctx, "tx@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestStore_Execute_CommitsOnSuccess(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.Execute(ctx, func(repos repository.RepositoryFactory) error {
		return repos.UserRepo().Create(ctx, newUser("ok@example.com"))
	})
	require.NoError(t, err)

	user, err := store.UserRepo().FindByEmail(ctx, "ok@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ok@example.com", user.Email)
}

func TestStore_UserRepo_DuplicateEmail(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.UserRepo().Create(ctx, newUser("dup@example.com")))
	err := store.UserRepo().Create(ctx, newUser("dup@example.com"))
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestStore_UserRepo_FindReturnsCopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.UserRepo().Create(ctx, newUser("copy@example.com")))

	first, err := store.UserRepo().FindByEmail(ctx, "copy@example.com")
	require.NoError(t, err)
	first.Email = "mutated@example.com"

	second, err := store.UserRepo().FindByEmail(ctx, "copy@example.com")
	require.NoError(t, err)
	assert.Equal(t, "copy@example.com", second.Email)
}

func TestStore_UserRepo_ListIsStable(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, email := range []string{"1@example.com", "2@example.com", "3@example.com"} {
		require.NoError(t, store.UserRepo().Create(ctx, newUser(email)))
	}

	first, err := store.UserRepo().List(ctx, 0, 10)
	require.NoError(t, err)
	second, err := store.UserRepo().List(ctx, 0, 10)
	require.NoError(t, err)

	require.Len(t, first, 3)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestStore_UserRepo_DeleteCascadesTokens(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	user := newUser("cascade@example.com")
	require.NoError(t, store.UserRepo().Create(ctx, user))
	require.NoError(t, store.ResetTokenRepo().Create(ctx, &entity.PasswordResetToken{
		Token:  "reset-token",
		UserID: user.ID,
	}))
	require.NoError(t, store.RefreshTokenRepo().Create(ctx, &entity.RefreshToken{
		UserID:    user.ID,
		TokenHash: "refresh-hash",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, store.UserRepo().Delete(ctx, user.ID))

	_, err := store.ResetTokenRepo().FindByToken(ctx, "reset-token")
	assert.ErrorIs(t, err, repository.ErrResetTokenNotFound)
	_, err = store.RefreshTokenRepo().FindByHash(ctx, "refresh-hash")
	assert.ErrorIs(t, err, repository.ErrRefreshTokenNotFound)
}

func TestStore_RefreshTokenRepo_ExpiryFiltering(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.RefreshTokenRepo().Create(ctx, &entity.RefreshToken{
		UserID:    uuid.New(),
		TokenHash: "expired-hash",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := store.RefreshTokenRepo().FindByHash(ctx, "expired-hash")
	assert.ErrorIs(t, err, repository.ErrRefreshTokenNotFound)

	require.NoError(t, store.RefreshTokenRepo().DeleteExpired(ctx))
}
