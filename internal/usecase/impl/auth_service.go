package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "accounts/internal/delivery/context"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/domain/service"
	"accounts/internal/usecase"
)

// authService implements the AuthUsecase interface.
type authService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	hasher           service.PasswordHasher
	codec            service.TokenCodec
	logger           *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Hasher           service.PasswordHasher
	Codec            service.TokenCodec
	Logger           *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		userRepo:         params.UserRepo,
		refreshTokenRepo: params.RefreshTokenRepo,
		hasher:           params.Hasher,
		codec:            params.Codec,
		logger:           params.Logger,
	}
}

func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Login verifies credentials and opens a session. An unknown email and a
// wrong password are indistinguishable to the caller.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrAuthenticationFailed
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find user for login")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		return nil, domainerrors.ErrAuthenticationFailed
	}

	accessToken, refreshToken, err := srv.codec.IssueSessionTokens(user.PublicID, user.RoleNames())
	if err != nil {
		return nil, domainerrors.ErrInternalError.WrapMessage("failed to issue session tokens")
	}

	session := &entity.RefreshToken{
		UserID:    user.ID,
		TokenHash: srv.codec.HashToken(refreshToken),
		ExpiresAt: time.Now().Add(srv.codec.RefreshTokenDuration()),
	}
	if err := srv.refreshTokenRepo.Create(ctx, session); err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to store session")
	}

	srv.log(ctx).Info("User logged in", slog.String("publicId", user.PublicID))

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         toProfile(user),
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The token
// must carry a valid signature, be of refresh type and still exist as a live
// session row.
func (srv *authService) Refresh(ctx context.Context, refreshToken string) (*usecase.RefreshOutput, error) {
	claims, err := srv.codec.ValidateToken(refreshToken)
	if err != nil || claims.Type != service.TokenTypeRefresh {
		return nil, domainerrors.ErrRefreshTokenInvalid
	}

	if _, err := srv.refreshTokenRepo.FindByHash(ctx, srv.codec.HashToken(refreshToken)); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil, domainerrors.ErrRefreshTokenInvalid
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to look up session")
	}

	// Roles come from the store, not the old claims, so revocations apply on
	// the next refresh.
	user, err := srv.userRepo.FindByPublicID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrRefreshTokenInvalid
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find session user")
	}

	accessToken, err := srv.codec.IssueAccessToken(user.PublicID, user.RoleNames())
	if err != nil {
		return nil, domainerrors.ErrInternalError.WrapMessage("failed to issue access token")
	}

	return &usecase.RefreshOutput{AccessToken: accessToken}, nil
}

// Logout ends the session identified by the refresh token. Unknown tokens are
// tolerated so logout is idempotent.
func (srv *authService) Logout(ctx context.Context, refreshToken string) error {
	if err := srv.refreshTokenRepo.DeleteByHash(ctx, srv.codec.HashToken(refreshToken)); err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to end session")
	}

	return nil
}

// CleanupExpiredSessions removes every expired refresh token row.
func (srv *authService) CleanupExpiredSessions(ctx context.Context) error {
	if err := srv.refreshTokenRepo.DeleteExpired(ctx); err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to clean up sessions")
	}

	srv.log(ctx).Info("Expired sessions cleaned up")

	return nil
}
