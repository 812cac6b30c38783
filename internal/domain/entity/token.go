// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken links a signed reset token to a user. At most one live
// token exists per user: a new reset request supersedes the previous row, and
// a successful reset deletes it (single use).
type PasswordResetToken struct {
	ID        uuid.UUID
	Token     string    // The opaque signed token string handed to the user.
	UserID    uuid.UUID // The user this token can reset.
	CreatedAt time.Time
}

// RefreshToken represents a long-lived, authorized user session. It is used
// to obtain a new access token after the old one expires, without requiring
// credentials. Only a SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
