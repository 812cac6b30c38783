// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "accounts/internal/delivery/context"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/domain/service"
	"accounts/internal/usecase"
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 100
)

// accountService implements the AccountUsecase interface.
type accountService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	hasher    service.PasswordHasher
	codec     service.TokenCodec
	idGen     service.PublicIDGenerator
	mailer    service.Mailer
	logger    *slog.Logger
}

// AccountServiceParams holds dependencies for accountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	Hasher    service.PasswordHasher
	Codec     service.TokenCodec
	IDGen     service.PublicIDGenerator
	Mailer    service.Mailer
	Logger    *slog.Logger
}

// NewAccountService is the constructor for accountService. It receives all dependencies as interfaces.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	return &accountService{
		txManager: params.TxManager,
		userRepo:  params.UserRepo,
		hasher:    params.Hasher,
		codec:     params.Codec,
		idGen:     params.IDGen,
		mailer:    params.Mailer,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateUser orchestrates the complete registration process: strength check,
// hashing, identifier and verification-token issuance, the transactional
// write and finally the verification email.
func (srv *accountService) CreateUser(ctx context.Context, input usecase.CreateUserInput) (*usecase.Profile, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	if err := srv.hasher.ValidateStrength(input.Password); err != nil {
		return nil, domainerrors.ErrPasswordStrength.WrapMessage(err.Error())
	}

	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, domainerrors.ErrPasswordHashFailed.WrapMessage(err.Error())
	}

	user, err := srv.buildNewUser(input, passwordHash)
	if err != nil {
		return nil, err
	}

	err = srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		userRepo := repos.UserRepo()

		if _, findErr := userRepo.FindByEmail(ctx, input.Email); findErr == nil {
			return domainerrors.ErrDuplicateEmail
		} else if !errors.Is(findErr, repository.ErrUserNotFound) {
			return errors.Wrap(findErr, "failed to check email uniqueness")
		}

		role, roleErr := srv.ensureRole(ctx, repos.RoleRepo(), entity.RoleUser)
		if roleErr != nil {
			return roleErr
		}
		user.Roles = []*entity.Role{role}

		if createErr := userRepo.Create(ctx, user); createErr != nil {
			if errors.Is(createErr, repository.ErrDuplicateEmail) {
				return domainerrors.ErrDuplicateEmail
			}

			return domainerrors.ErrUserCreationFailed.WrapMessage(createErr.Error())
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Token state is already persisted; a failed send must not undo it.
	if sendErr := srv.mailer.SendVerificationEmail(ctx, user, user.EmailVerificationToken); sendErr != nil {
		srv.log(ctx).Warn("Failed to send verification email",
			slog.String("publicId", user.PublicID), slog.Any("error", sendErr))
	}

	srv.log(ctx).Info("User registered", slog.String("publicId", user.PublicID))

	return toProfile(user), nil
}

func (srv *accountService) buildNewUser(input usecase.CreateUserInput, passwordHash string) (*entity.User, error) {
	publicID, err := srv.idGen.Generate()
	if err != nil {
		return nil, domainerrors.ErrInternalError.WrapMessage("failed to generate public id")
	}

	verificationToken, err := srv.codec.IssueVerificationToken(publicID)
	if err != nil {
		return nil, domainerrors.ErrInternalError.WrapMessage("failed to issue verification token")
	}

	user := &entity.User{
		PublicID:               publicID,
		FirstName:              input.FirstName,
		LastName:               input.LastName,
		Email:                  input.Email,
		PasswordHash:           passwordHash,
		EmailVerificationToken: verificationToken,
		EmailVerified:          false,
	}
	for _, addr := range input.Addresses {
		addrPublicID, idErr := srv.idGen.Generate()
		if idErr != nil {
			return nil, domainerrors.ErrInternalError.WrapMessage("failed to generate address public id")
		}
		user.Addresses = append(user.Addresses, &entity.Address{
			PublicID:   addrPublicID,
			Street:     addr.Street,
			City:       addr.City,
			Country:    addr.Country,
			PostalCode: addr.PostalCode,
			Type:       addr.Type,
		})
	}

	return user, nil
}

// ensureRole looks up a role, seeding it with its default authorities when it
// does not exist yet.
func (srv *accountService) ensureRole(ctx context.Context, roleRepo repository.RoleRepository, name string) (*entity.Role, error) {
	role, err := roleRepo.FindByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, repository.ErrRoleNotFound) {
		return nil, errors.Wrap(err, "failed to find role")
	}

	role = defaultRole(name)
	if saveErr := roleRepo.Save(ctx, role); saveErr != nil {
		return nil, errors.Wrap(saveErr, "failed to seed role")
	}

	return role, nil
}

func defaultRole(name string) *entity.Role {
	authorities := []*entity.Authority{{Name: entity.AuthorityReadAll}}
	if name == entity.RoleAdmin {
		authorities = append(authorities,
			&entity.Authority{Name: entity.AuthorityWriteAll},
			&entity.Authority{Name: entity.AuthorityDeleteAll},
		)
	}

	return &entity.Role{Name: name, Authorities: authorities}
}

// GetUserByEmail returns the profile registered under the given email.
func (srv *accountService) GetUserByEmail(ctx context.Context, email string) (*usecase.Profile, error) {
	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find user by email")
	}

	return toProfile(user), nil
}

// GetUserByPublicID returns the profile with the given external identifier.
func (srv *accountService) GetUserByPublicID(ctx context.Context, publicID string) (*usecase.Profile, error) {
	user, err := srv.userRepo.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find user by public id")
	}

	return toProfile(user), nil
}

// UpdateUser changes the mutable profile fields of an existing account.
func (srv *accountService) UpdateUser(ctx context.Context, publicID string, input usecase.UpdateUserInput) (*usecase.Profile, error) {
	var updated *entity.User
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		userRepo := repos.UserRepo()

		user, findErr := userRepo.FindByPublicID(ctx, publicID)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound
			}

			return errors.Wrap(findErr, "failed to find user")
		}

		user.FirstName = input.FirstName
		user.LastName = input.LastName

		if updateErr := userRepo.Update(ctx, user); updateErr != nil {
			return domainerrors.ErrUserUpdateFailed.WrapMessage(updateErr.Error())
		}
		updated = user

		return nil
	})
	if err != nil {
		return nil, err
	}

	return toProfile(updated), nil
}

// DeleteUser removes an account with its addresses and every token that
// references it.
func (srv *accountService) DeleteUser(ctx context.Context, publicID string) error {
	return srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		userRepo := repos.UserRepo()

		user, findErr := userRepo.FindByPublicID(ctx, publicID)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound
			}

			return errors.Wrap(findErr, "failed to find user")
		}

		if err := repos.ResetTokenRepo().DeleteByUserID(ctx, user.ID); err != nil {
			return errors.Wrap(err, "failed to delete reset tokens")
		}
		if err := repos.RefreshTokenRepo().DeleteByUserID(ctx, user.ID); err != nil {
			return errors.Wrap(err, "failed to delete refresh tokens")
		}
		if err := userRepo.Delete(ctx, user.ID); err != nil {
			return errors.Wrap(err, "failed to delete user")
		}

		srv.log(ctx).Info("User deleted", slog.String("publicId", publicID))

		return nil
	})
}

// ListUsers returns one page of profiles in a stable order. Page numbers are
// 1-based; out-of-range pages yield an empty list, not an error.
func (srv *accountService) ListUsers(ctx context.Context, page, limit int) ([]*usecase.Profile, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	users, err := srv.userRepo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list users")
	}

	profiles := make([]*usecase.Profile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, toProfile(user))
	}

	return profiles, nil
}

// VerifyEmailToken marks the token holder as verified and clears the token so
// it cannot be used twice. Expired or unknown tokens report false.
func (srv *accountService) VerifyEmailToken(ctx context.Context, token string) (bool, error) {
	if srv.codec.HasExpired(token) {
		return false, nil
	}

	verified := false
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		userRepo := repos.UserRepo()

		user, findErr := userRepo.FindByVerificationToken(ctx, token)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrUserNotFound) {
				return nil
			}

			return errors.Wrap(findErr, "failed to find user by verification token")
		}

		user.EmailVerified = true
		user.EmailVerificationToken = ""
		if updateErr := userRepo.Update(ctx, user); updateErr != nil {
			return errors.Wrap(updateErr, "failed to mark user verified")
		}
		verified = true

		return nil
	})
	if err != nil {
		return false, domainerrors.NewDatabaseExecuteError(err, "email verification failed")
	}

	return verified, nil
}

// RequestPasswordReset issues a reset token for the account, superseding any
// earlier one, and attempts to email it. The bool result says whether a token
// was created; the HTTP layer keeps that indistinguishable to callers.
func (srv *accountService) RequestPasswordReset(ctx context.Context, email string) (bool, error) {
	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, nil
		}

		return false, domainerrors.NewDatabaseExecuteError(err, "failed to find user by email")
	}

	token, err := srv.codec.IssueResetToken(user.PublicID)
	if err != nil {
		return false, domainerrors.ErrInternalError.WrapMessage("failed to issue reset token")
	}

	err = srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		resetRepo := repos.ResetTokenRepo()

		// A fresh request supersedes any earlier live token.
		if delErr := resetRepo.DeleteByUserID(ctx, user.ID); delErr != nil {
			return errors.Wrap(delErr, "failed to supersede reset tokens")
		}

		return resetRepo.Create(ctx, &entity.PasswordResetToken{
			Token:  token,
			UserID: user.ID,
		})
	})
	if err != nil {
		return false, domainerrors.NewDatabaseExecuteError(err, "failed to store reset token")
	}

	if sendErr := srv.mailer.SendPasswordResetEmail(ctx, user, token); sendErr != nil {
		srv.log(ctx).Warn("Failed to send password reset email",
			slog.String("publicId", user.PublicID), slog.Any("error", sendErr))
	}

	return true, nil
}

// ResetPassword sets a new password if the token is valid, unexpired and
// unused, consuming the token and every open session of the user. The result
// is confirmed by re-reading the stored hash.
func (srv *accountService) ResetPassword(ctx context.Context, token, newPassword string) (bool, error) {
	if srv.codec.HasExpired(token) {
		return false, nil
	}
	if err := srv.hasher.ValidateStrength(newPassword); err != nil {
		return false, domainerrors.ErrPasswordStrength.WrapMessage(err.Error())
	}

	passwordHash, err := srv.hasher.Hash(newPassword)
	if err != nil {
		return false, domainerrors.ErrPasswordHashFailed.WrapMessage(err.Error())
	}

	var userID uuid.UUID
	applied := false
	err = srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		resetRepo := repos.ResetTokenRepo()
		userRepo := repos.UserRepo()

		row, findErr := resetRepo.FindByToken(ctx, token)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrResetTokenNotFound) {
				return nil
			}

			return errors.Wrap(findErr, "failed to find reset token")
		}

		user, userErr := userRepo.FindByID(ctx, row.UserID)
		if userErr != nil {
			if errors.Is(userErr, repository.ErrUserNotFound) {
				// Orphaned token row, consume it anyway.
				return resetRepo.Delete(ctx, row.ID)
			}

			return errors.Wrap(userErr, "failed to find token holder")
		}

		user.PasswordHash = passwordHash
		if updateErr := userRepo.Update(ctx, user); updateErr != nil {
			return errors.Wrap(updateErr, "failed to update password")
		}

		// Single use, and open sessions die with the old password.
		if delErr := resetRepo.Delete(ctx, row.ID); delErr != nil {
			return errors.Wrap(delErr, "failed to consume reset token")
		}
		if delErr := repos.RefreshTokenRepo().DeleteByUserID(ctx, user.ID); delErr != nil {
			return errors.Wrap(delErr, "failed to revoke sessions")
		}

		userID = user.ID
		applied = true

		return nil
	})
	if err != nil {
		return false, domainerrors.NewDatabaseExecuteError(err, "password reset failed")
	}
	if !applied {
		return false, nil
	}

	// Confirm the write landed before reporting success.
	saved, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return false, domainerrors.NewDatabaseExecuteError(err, "failed to confirm password reset")
	}

	return srv.hasher.Check(newPassword, saved.PasswordHash), nil
}

// LoadCredentials returns the minimal credential view for the authentication layer.
func (srv *accountService) LoadCredentials(ctx context.Context, email string) (*entity.Principal, error) {
	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrPrincipalNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to load credentials")
	}

	return &entity.Principal{
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Authorities:  user.AuthorityNames(),
	}, nil
}

// toProfile maps a user entity to its sanitized external view.
func toProfile(user *entity.User) *usecase.Profile {
	profile := &usecase.Profile{
		PublicID:      user.PublicID,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		Roles:         user.RoleNames(),
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
	for _, addr := range user.Addresses {
		profile.Addresses = append(profile.Addresses, usecase.AddressProfile{
			PublicID:   addr.PublicID,
			Street:     addr.Street,
			City:       addr.City,
			Country:    addr.Country,
			PostalCode: addr.PostalCode,
			Type:       addr.Type,
		})
	}

	return profile
}
