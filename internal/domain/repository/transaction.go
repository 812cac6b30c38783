package repository

import "context"

// TransactionManager defines the interface for managing database transactions.
// The store is the transaction boundary: a user update and a concurrent token
// deletion on the same user must not interleave partially.
type TransactionManager interface {
	// Execute runs a function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// Otherwise it is committed. All repository operations obtained from the
	// factory use the same underlying transaction.
	Execute(ctx context.Context, fn func(repos RepositoryFactory) error) error
}

// RepositoryFactory provides repository instances bound to one transaction.
type RepositoryFactory interface {
	// UserRepo returns a UserRepository bound to the current transaction.
	UserRepo() UserRepository

	// RoleRepo returns a RoleRepository bound to the current transaction.
	RoleRepo() RoleRepository

	// ResetTokenRepo returns a PasswordResetTokenRepository bound to the current transaction.
	ResetTokenRepo() PasswordResetTokenRepository

	// RefreshTokenRepo returns a RefreshTokenRepository bound to the current transaction.
	RefreshTokenRepo() RefreshTokenRepository
}
