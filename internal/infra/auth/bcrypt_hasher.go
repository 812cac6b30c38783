// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"accounts/config"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/service"
)

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost     int
	strength *config.PasswordStrengthConfig
}

// NewBcryptHasher is the constructor for bcryptHasher.
// It returns the implementation as a service.PasswordHasher interface.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	cost := bcrypt.DefaultCost
	if cfg.Auth != nil && cfg.Auth.BcryptCost >= bcrypt.MinCost && cfg.Auth.BcryptCost <= bcrypt.MaxCost {
		cost = cfg.Auth.BcryptCost
	}

	return &bcryptHasher{
		cost:     cost,
		strength: cfg.PasswordStrength,
	}
}

// Hash generates a salted hash from a plaintext password using bcrypt.
// bcrypt automatically handles salt generation.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return string(bytes), err
}

// Check compares a plaintext password with a bcrypt hash.
// bcrypt's comparison is constant-time; a malformed hash simply yields false.
func (h *bcryptHasher) Check(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	// err is nil if the password and hash match.
	return err == nil
}

// ValidateStrength checks the candidate password against the configured
// strength requirements. With no configuration, every password passes.
func (h *bcryptHasher) ValidateStrength(password string) error {
	if h.strength == nil {
		return nil
	}

	if h.strength.MinLength > 0 && len(password) < h.strength.MinLength {
		return domainerrors.ErrPasswordStrength.WrapMessage("password too short")
	}
	if h.strength.MaxLength > 0 && len(password) > h.strength.MaxLength {
		return domainerrors.ErrPasswordStrength.WrapMessage("password too long")
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	var missing []string
	if h.strength.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if h.strength.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if h.strength.RequireNumbers && !hasNumber {
		missing = append(missing, "number")
	}
	if h.strength.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return domainerrors.ErrPasswordStrength.WrapMessage("missing required " + strings.Join(missing, ", "))
	}

	return nil
}
