// Package mail provides the outbound email side of the verification and
// password-reset workflows.
package mail

import (
	"context"
	"log/slog"

	"accounts/internal/domain/entity"
	"accounts/internal/domain/service"
)

// logMailer records outbound workflow mail through the structured logger
// instead of an external provider. The token state is persisted before any
// send is attempted, so a failing provider can be swapped in later without
// touching the workflow logic.
type logMailer struct {
	logger *slog.Logger
}

// NewLogMailer is the constructor for logMailer.
func NewLogMailer(logger *slog.Logger) service.Mailer {
	return &logMailer{logger: logger}
}

// SendVerificationEmail logs the email-verification delivery.
func (m *logMailer) SendVerificationEmail(ctx context.Context, user *entity.User, token string) error {
	m.logger.InfoContext(ctx, "Sending verification email",
		slog.String("to", user.Email),
		slog.String("firstName", user.FirstName),
		slog.String("template", "email-verification"),
		slog.Int("tokenLength", len(token)),
	)

	return nil
}

// SendPasswordResetEmail logs the password-reset delivery.
func (m *logMailer) SendPasswordResetEmail(ctx context.Context, user *entity.User, token string) error {
	m.logger.InfoContext(ctx, "Sending password reset email",
		slog.String("to", user.Email),
		slog.String("firstName", user.FirstName),
		slog.String("template", "password-reset"),
		slog.Int("tokenLength", len(token)),
	)

	return nil
}
