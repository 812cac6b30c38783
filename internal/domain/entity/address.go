// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Address is a physical location owned by exactly one user. Its lifecycle is
// bound to the owning user: deleting the user cascades to its addresses.
type Address struct {
	ID         uuid.UUID // Internal storage key.
	PublicID   string    // Opaque identifier for external use.
	UserID     uuid.UUID // The owning user.
	Street     string
	City       string
	Country    string
	PostalCode string
	Type       string // A user-facing label, e.g. "shipping", "billing".
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
