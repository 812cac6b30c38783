// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"accounts/internal/domain/entity"
)

// ErrRoleNotFound is returned when a role is not found.
var ErrRoleNotFound = errors.New("role not found")

// RoleRepository manages the shared role/authority reference data.
type RoleRepository interface {
	// FindByName retrieves a role with its authorities materialized.
	FindByName(ctx context.Context, name string) (*entity.Role, error)

	// Save persists a role and its authority associations, creating
	// authorities that do not exist yet. Used for seeding reference data.
	Save(ctx context.Context, role *entity.Role) error
}
