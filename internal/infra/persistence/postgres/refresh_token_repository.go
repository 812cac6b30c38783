package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"accounts/internal/domain/repository"

	"accounts/internal/domain/entity"
	"accounts/internal/errors"
	"accounts/internal/infra/persistence/model"
)

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a GORM-backed RefreshTokenRepository.
func NewRefreshTokenRepository(db *gorm.DB) repository.RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	m := toRefreshTokenModel(token)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return errors.Wrap(err, "failed to create refresh token")
	}

	token.ID = m.ID
	token.CreatedAt = m.CreatedAt

	return nil
}

func (r *refreshTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*entity.RefreshToken, error) {
	var m model.RefreshTokenModel
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND expires_at > ?", tokenHash, time.Now()).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRefreshTokenNotFound
		}

		return nil, errors.Wrap(err, "failed to find refresh token")
	}

	return toRefreshTokenEntity(&m), nil
}

func (r *refreshTokenRepository) DeleteByHash(ctx context.Context, tokenHash string) error {
	err := r.db.WithContext(ctx).
		Delete(&model.RefreshTokenModel{}, "token_hash = ?", tokenHash).Error
	if err != nil {
		return errors.Wrap(err, "failed to delete refresh token")
	}

	return nil
}

func (r *refreshTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Delete(&model.RefreshTokenModel{}, "user_id = ?", userID).Error
	if err != nil {
		return errors.Wrap(err, "failed to delete refresh tokens for user")
	}

	return nil
}

func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Delete(&model.RefreshTokenModel{}, "expires_at <= ?", time.Now()).Error
	if err != nil {
		return errors.Wrap(err, "failed to delete expired refresh tokens")
	}

	return nil
}
