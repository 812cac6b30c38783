package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type markers carried in the "type" claim so a verification token can
// never be replayed as a reset or session token.
const (
	TokenTypeVerification = "email-verification"
	TokenTypeReset        = "password-reset"
	TokenTypeAccess       = "access"
	TokenTypeRefresh      = "refresh"
)

// Claims defines the custom claims for all tokens issued by the codec.
// Subject is the user's public id; it is signed but not confidential.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	Type  string   `json:"type"`
	jwt.RegisteredClaims
}

// TokenCodec creates and verifies signed, time-bound tokens. Signing keys are
// injected once through the constructor; the codec is immutable after init
// and safe for unlimited concurrent use.
type TokenCodec interface {
	// IssueVerificationToken creates a long-TTL email-verification token
	// for the given subject (user public id).
	IssueVerificationToken(subject string) (string, error)

	// IssueResetToken creates a short-TTL password-reset token.
	IssueResetToken(subject string) (string, error)

	// IssueSessionTokens creates an access/refresh token pair for a login.
	IssueSessionTokens(subject string, roles []string) (accessToken, refreshToken string, err error)

	// IssueAccessToken creates a new access token only, used when a session
	// is renewed from an existing refresh token.
	IssueAccessToken(subject string, roles []string) (string, error)

	// ValidateToken parses and verifies a token, returning its claims.
	ValidateToken(token string) (*Claims, error)

	// HasExpired reports whether a workflow token is expired. Fail-closed:
	// any parse or signature failure also reports true, so a token that does
	// not validate is never usable.
	HasExpired(token string) bool

	// HashToken returns the SHA-256 hex digest of a raw token, used to store
	// refresh tokens without keeping the raw value.
	HashToken(token string) string

	// RefreshTokenDuration returns the configured refresh token lifetime.
	RefreshTokenDuration() time.Duration
}
