// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"accounts/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrResetTokenNotFound is returned when a password-reset token row is not found.
var ErrResetTokenNotFound = errors.New("password reset token not found")

// PasswordResetTokenRepository persists the one-live-token-per-user reset rows.
type PasswordResetTokenRepository interface {
	// Create persists a new reset token row linked to a user.
	Create(ctx context.Context, token *entity.PasswordResetToken) error

	// FindByToken retrieves the row holding the given token string.
	FindByToken(ctx context.Context, token string) (*entity.PasswordResetToken, error)

	// Delete removes a reset token row by its ID (single-use enforcement).
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByUserID removes all reset token rows for a user. Called before
	// storing a new token so a fresh request supersedes any prior one, and on
	// user deletion.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}
