package postgres

import (
	"strings"

	"gorm.io/gorm"

	"accounts/internal/errors"
)

// isUniqueConstraintViolation reports whether err comes from a unique index
// rejection. GORM translates most driver errors, but the raw pq/pgx message is
// checked as a fallback (SQLSTATE 23505).
func isUniqueConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()

	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
