// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"accounts/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrRefreshTokenNotFound is returned when a refresh token is not found.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// RefreshTokenRepository defines the interface for session persistence.
// Raw refresh tokens are never stored; lookups go through their SHA-256 hash.
type RefreshTokenRepository interface {
	// Create persists a new refresh token, representing a user session.
	Create(ctx context.Context, token *entity.RefreshToken) error

	// FindByHash retrieves a non-expired refresh token record by its hash.
	FindByHash(ctx context.Context, tokenHash string) (*entity.RefreshToken, error)

	// DeleteByHash deletes a refresh token by its hash, ending a session.
	DeleteByHash(ctx context.Context, tokenHash string) error

	// DeleteByUserID removes all refresh tokens for a user
	// ("logout from all devices", and cleanup on user deletion).
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired removes all expired refresh tokens. Called periodically
	// for cleanup.
	DeleteExpired(ctx context.Context) error
}
