// Package entity contains the core business objects of the project.
package entity

import "github.com/google/uuid"

// Default role and authority names seeded at startup.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"

	AuthorityReadAll   = "READ_AUTHORITY"
	AuthorityWriteAll  = "WRITE_AUTHORITY"
	AuthorityDeleteAll = "DELETE_AUTHORITY"
)

// Role is shared reference data grouping a set of authorities. Roles are not
// owned by any single user.
type Role struct {
	ID          uuid.UUID
	Name        string // Unique role name, e.g. "ROLE_USER".
	Authorities []*Authority
}

// Authority is a single named permission, attached to roles many-to-many.
type Authority struct {
	ID   uuid.UUID
	Name string // Unique permission string.
}
