package service

import (
	"context"

	"accounts/internal/domain/entity"
)

// Mailer sends the workflow emails. Sending must be attempted on
// registration and reset requests, but a send failure must never corrupt the
// token state already persisted.
type Mailer interface {
	// SendVerificationEmail delivers the email-verification token to the user.
	SendVerificationEmail(ctx context.Context, user *entity.User, token string) error

	// SendPasswordResetEmail delivers the password-reset token to the user.
	SendPasswordResetEmail(ctx context.Context, user *entity.User, token string) error
}
