// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"accounts/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for user persistence.
var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the store's unique email constraint
	// rejects a write. The pre-check in the service is only a fast path; this
	// error is the authoritative guarantee.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the standard operations for user persistence.
// The application layer depends on this interface, not the concrete implementation.
type UserRepository interface {
	// FindByID retrieves a single user by their internal key.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByPublicID retrieves a single user by their external identifier.
	FindByPublicID(ctx context.Context, publicID string) (*entity.User, error)

	// FindByEmail retrieves a single user by their email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByVerificationToken retrieves the user holding the given
	// email-verification token, if any.
	FindByVerificationToken(ctx context.Context, token string) (*entity.User, error)

	// List returns a bounded page of users in a stable order
	// (creation time, then internal key) so pagination is reproducible.
	List(ctx context.Context, offset, limit int) ([]*entity.User, error)

	// Create persists a new user together with its owned addresses and role
	// associations. Returns ErrDuplicateEmail on a unique-constraint clash.
	Create(ctx context.Context, user *entity.User) error

	// Update modifies an existing user entity in the storage.
	Update(ctx context.Context, user *entity.User) error

	// Delete removes a user and cascades to its owned addresses.
	Delete(ctx context.Context, id uuid.UUID) error
}
