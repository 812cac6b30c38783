// Package usecase contains the application-specific business rules.
package usecase

import "context"

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput returns the generated tokens after a successful login.
type LoginOutput struct {
	AccessToken  string
	RefreshToken string
	User         *Profile
}

// RefreshOutput returns the new access token minted from a refresh token.
type RefreshOutput struct {
	AccessToken string
}

// AuthUsecase defines the interface for authentication operations.
type AuthUsecase interface {
	// Login verifies credentials and opens a session. The same failure is
	// reported for an unknown email and a wrong password.
	Login(ctx context.Context, input LoginInput) (*LoginOutput, error)

	// Refresh exchanges a valid refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (*RefreshOutput, error)

	// Logout ends the session identified by the refresh token. Unknown
	// tokens are tolerated so logout is idempotent.
	Logout(ctx context.Context, refreshToken string) error

	// CleanupExpiredSessions removes every expired refresh token row.
	CleanupExpiredSessions(ctx context.Context) error
}
