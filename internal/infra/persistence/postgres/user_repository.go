package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"accounts/internal/domain/repository"

	"accounts/internal/domain/entity"
	"accounts/internal/errors"
	"accounts/internal/infra/persistence/model"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a GORM-backed UserRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) FindByPublicID(ctx context.Context, publicID string) (*entity.User, error) {
	return r.findOne(ctx, "public_id = ?", publicID)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) FindByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	return r.findOne(ctx, "email_verification_token = ?", token)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	var m model.UserModel
	err := r.db.WithContext(ctx).
		Preload("Addresses").
		Preload("Roles.Authorities").
		Where(query, arg).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return toUserEntity(&m), nil
}

func (r *userRepository) List(ctx context.Context, offset, limit int) ([]*entity.User, error) {
	var models []*model.UserModel
	err := r.db.WithContext(ctx).
		Preload("Addresses").
		Preload("Roles.Authorities").
		Order("created_at, id").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	users := make([]*entity.User, 0, len(models))
	for _, m := range models {
		users = append(users, toUserEntity(m))
	}

	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	m := toUserModel(user)

	// Roles are shared reference data. Omit("Roles.*") writes the join rows
	// without upserting the role rows themselves.
	err := r.db.WithContext(ctx).
		Omit("Roles.*").
		Create(m).Error
	if err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateEmail
		}

		return errors.Wrap(err, "failed to create user")
	}

	user.ID = m.ID
	user.CreatedAt = m.CreatedAt
	user.UpdatedAt = m.UpdatedAt
	for i, addr := range m.Addresses {
		user.Addresses[i].ID = addr.ID
		user.Addresses[i].UserID = addr.UserID
	}

	return nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	m := toUserModel(user)

	// Select the scalar columns explicitly so zero values such as a cleared
	// verification token or EmailVerified=false are still written.
	result := r.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", user.ID).
		Select("first_name", "last_name", "email", "password_hash",
			"email_verification_token", "email_verified").
		Updates(m)
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return repository.ErrDuplicateEmail
		}

		return errors.Wrap(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Select(clause.Associations).
		Delete(&model.UserModel{ID: id})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}
