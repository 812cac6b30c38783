package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"accounts/internal/domain/repository"

	"accounts/internal/domain/entity"
	"accounts/internal/errors"
	"accounts/internal/infra/persistence/model"
)

type resetTokenRepository struct {
	db *gorm.DB
}

// NewPasswordResetTokenRepository creates a GORM-backed PasswordResetTokenRepository.
func NewPasswordResetTokenRepository(db *gorm.DB) repository.PasswordResetTokenRepository {
	return &resetTokenRepository{db: db}
}

func (r *resetTokenRepository) Create(ctx context.Context, token *entity.PasswordResetToken) error {
	m := toResetTokenModel(token)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return errors.Wrap(err, "failed to create password reset token")
	}

	token.ID = m.ID
	token.CreatedAt = m.CreatedAt

	return nil
}

func (r *resetTokenRepository) FindByToken(ctx context.Context, token string) (*entity.PasswordResetToken, error) {
	var m model.PasswordResetTokenModel
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrResetTokenNotFound
		}

		return nil, errors.Wrap(err, "failed to find password reset token")
	}

	return toResetTokenEntity(&m), nil
}

func (r *resetTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Delete(&model.PasswordResetTokenModel{}, "id = ?", id).Error
	if err != nil {
		return errors.Wrap(err, "failed to delete password reset token")
	}

	return nil
}

func (r *resetTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Delete(&model.PasswordResetTokenModel{}, "user_id = ?", userID).Error
	if err != nil {
		return errors.Wrap(err, "failed to delete password reset tokens for user")
	}

	return nil
}
