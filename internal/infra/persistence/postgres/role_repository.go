package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"accounts/internal/domain/repository"

	"accounts/internal/domain/entity"
	"accounts/internal/errors"
	"accounts/internal/infra/persistence/model"
)

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a GORM-backed RoleRepository.
func NewRoleRepository(db *gorm.DB) repository.RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*entity.Role, error) {
	var m model.RoleModel
	err := r.db.WithContext(ctx).
		Preload("Authorities").
		Where("name = ?", name).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoleNotFound
		}

		return nil, errors.Wrap(err, "failed to find role")
	}

	return toRoleEntity(&m), nil
}

func (r *roleRepository) Save(ctx context.Context, role *entity.Role) error {
	m := toRoleModel(role)

	// Idempotent seeding: existing roles and authorities keep their rows,
	// the name unique index resolves the conflict.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(m).Error
	if err != nil {
		return errors.Wrap(err, "failed to save role")
	}

	role.ID = m.ID

	return nil
}
