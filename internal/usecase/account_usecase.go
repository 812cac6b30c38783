// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"accounts/internal/domain/entity"
)

// --- Input DTOs ---

// AddressInput defines one address supplied at registration.
type AddressInput struct {
	Street     string
	City       string
	Country    string
	PostalCode string
	Type       string
}

// CreateUserInput defines the data required to register a new account.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Addresses []AddressInput
}

// UpdateUserInput defines the mutable profile fields. Email, password and
// verification state are changed through their own dedicated workflows.
type UpdateUserInput struct {
	FirstName string
	LastName  string
}

// --- Output DTOs ---

// AddressProfile is the external view of one address.
type AddressProfile struct {
	PublicID   string
	Street     string
	City       string
	Country    string
	PostalCode string
	Type       string
}

// Profile is the sanitized external view of an account. It never carries the
// internal storage key, the password hash or the verification token.
type Profile struct {
	PublicID      string
	FirstName     string
	LastName      string
	Email         string
	EmailVerified bool
	Roles         []string
	Addresses     []AddressProfile
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AccountUsecase defines the interface for account management operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AccountUsecase interface {
	// CreateUser registers a new account, issues its verification token and
	// attempts to send the verification email.
	CreateUser(ctx context.Context, input CreateUserInput) (*Profile, error)

	// GetUserByEmail returns the profile registered under the given email.
	GetUserByEmail(ctx context.Context, email string) (*Profile, error)

	// GetUserByPublicID returns the profile with the given external identifier.
	GetUserByPublicID(ctx context.Context, publicID string) (*Profile, error)

	// UpdateUser changes the mutable profile fields of an existing account.
	UpdateUser(ctx context.Context, publicID string, input UpdateUserInput) (*Profile, error)

	// DeleteUser removes an account together with its addresses and tokens.
	DeleteUser(ctx context.Context, publicID string) error

	// ListUsers returns one page of profiles. Page numbers are 1-based and
	// the ordering is stable across calls.
	ListUsers(ctx context.Context, page, limit int) ([]*Profile, error)

	// VerifyEmailToken marks the account holding this token as verified.
	// It reports false for an unknown, expired or already-used token.
	VerifyEmailToken(ctx context.Context, token string) (bool, error)

	// RequestPasswordReset issues a reset token for the account and attempts
	// to email it. It reports whether a token was actually created; callers
	// serving external clients must not leak that distinction.
	RequestPasswordReset(ctx context.Context, email string) (bool, error)

	// ResetPassword sets a new password if the token is valid, unexpired and
	// unused. The token is consumed on success.
	ResetPassword(ctx context.Context, token, newPassword string) (bool, error)

	// LoadCredentials returns the minimal credential view for the
	// authentication layer.
	LoadCredentials(ctx context.Context, email string) (*entity.Principal, error)
}
