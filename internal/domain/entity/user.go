// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core entity in the system, representing a single account.
// The internal ID is a database key and never leaves the service; PublicID is
// the opaque identifier exposed through the API.
type User struct {
	ID                     uuid.UUID  // Internal storage key, never exposed externally.
	PublicID               string     // Opaque, fixed-length alphanumeric identifier for external use.
	FirstName              string     // The user's first name.
	LastName               string     // The user's last name.
	Email                  string     // Login identifier; unique across all users.
	PasswordHash           string     // bcrypt hash of the user's password. Never the plaintext.
	EmailVerificationToken string     // Signed verification token; cleared once verification succeeds.
	EmailVerified          bool       // Whether the email address has been verified.
	Roles                  []*Role    // Shared reference data; not owned by the user.
	Addresses              []*Address // Owned by the user, deleted with it.
	CreatedAt              time.Time  // Timestamp of when this account was created.
	UpdatedAt              time.Time  // Timestamp of the last modification.
}

// AuthorityNames flattens the authorities of all roles into a deduplicated
// list of permission strings, as needed by the authentication layer.
func (u *User) AuthorityNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, role := range u.Roles {
		for _, authority := range role.Authorities {
			if _, ok := seen[authority.Name]; ok {
				continue
			}
			seen[authority.Name] = struct{}{}
			names = append(names, authority.Name)
		}
	}

	return names
}

// RoleNames returns the names of all roles assigned to the user.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}

	return names
}

// Principal is the minimal credential view handed to the authentication
// layer. It deliberately carries no profile data and never the plaintext
// password.
type Principal struct {
	Email        string
	PasswordHash string
	Authorities  []string
}
