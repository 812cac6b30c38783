// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"accounts/config"
	"accounts/internal/domain/service"
)

// jwtCodec is a concrete implementation of the TokenCodec interface using HS256 JWTs.
// All keys and lifetimes are fixed at construction; the codec holds no mutable state.
type jwtCodec struct {
	workflowSecret  string // Signs email-verification and password-reset tokens.
	accessSecret    string // Signs session access tokens.
	refreshSecret   string // Signs session refresh tokens.
	verificationTTL time.Duration
	resetTTL        time.Duration
	accessTTL       time.Duration
	refreshTTL      time.Duration
}

// NewJWTCodec is the constructor for jwtCodec.
// The signing keys come from configuration and must not be empty.
func NewJWTCodec(cfg *config.Config) (service.TokenCodec, error) {
	if cfg.SecretKey.Token == "" || cfg.SecretKey.Access == "" || cfg.SecretKey.Refresh == "" {
		return nil, errors.New("jwt secrets must be provided")
	}

	return &jwtCodec{
		workflowSecret:  cfg.SecretKey.Token,
		accessSecret:    cfg.SecretKey.Access,
		refreshSecret:   cfg.SecretKey.Refresh,
		verificationTTL: cfg.Auth.VerificationTokenTTL,
		resetTTL:        cfg.Auth.ResetTokenTTL,
		accessTTL:       cfg.Auth.AccessTokenTTL,
		refreshTTL:      cfg.Auth.RefreshTokenTTL,
	}, nil
}

// IssueVerificationToken creates a long-TTL email-verification token.
func (c *jwtCodec) IssueVerificationToken(subject string) (string, error) {
	return c.sign(subject, nil, service.TokenTypeVerification, c.verificationTTL, c.workflowSecret)
}

// IssueResetToken creates a short-TTL password-reset token.
func (c *jwtCodec) IssueResetToken(subject string) (string, error) {
	return c.sign(subject, nil, service.TokenTypeReset, c.resetTTL, c.workflowSecret)
}

// IssueAccessToken creates a new access token for an already authenticated session.
func (c *jwtCodec) IssueAccessToken(subject string, roles []string) (string, error) {
	return c.sign(subject, roles, service.TokenTypeAccess, c.accessTTL, c.accessSecret)
}

// IssueSessionTokens creates an access/refresh token pair for a login.
func (c *jwtCodec) IssueSessionTokens(subject string, roles []string) (string, string, error) {
	accessToken, err := c.IssueAccessToken(subject, roles)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := c.sign(subject, nil, service.TokenTypeRefresh, c.refreshTTL, c.refreshSecret)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// ValidateToken parses and verifies a token against the secret matching its
// declared type, rejecting unexpected signing methods.
func (c *jwtCodec) ValidateToken(tokenString string) (*service.Claims, error) {
	claims := &service.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return []byte(c.secretFor(claims.Type)), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to validate token")
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	return claims, nil
}

// HasExpired reports whether a workflow token is expired. Fail-closed: any
// parse or signature failure also reports true, mirroring the invariant that
// a token which does not validate is never usable.
func (c *jwtCodec) HasExpired(tokenString string) bool {
	claims, err := c.ValidateToken(tokenString)
	if err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}

	return claims.ExpiresAt.Before(time.Now())
}

// HashToken returns the SHA-256 hex digest of a raw token for storage.
func (c *jwtCodec) HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RefreshTokenDuration returns the configured refresh token lifetime.
func (c *jwtCodec) RefreshTokenDuration() time.Duration {
	return c.refreshTTL
}

// secretFor maps a token type to its signing secret. Unknown types fall back
// to the workflow secret, which can only fail validation.
func (c *jwtCodec) secretFor(tokenType string) string {
	switch tokenType {
	case service.TokenTypeAccess:
		return c.accessSecret
	case service.TokenTypeRefresh:
		return c.refreshSecret
	default:
		return c.workflowSecret
	}
}

// sign builds a signed token with the standard claim set.
func (c *jwtCodec) sign(subject string, roles []string, tokenType string, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	claims := &service.Claims{
		Roles: roles,
		Type:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}
