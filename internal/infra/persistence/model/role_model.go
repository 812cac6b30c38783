package model

import "github.com/google/uuid"

// RoleModel mirrors the 'roles' table. Roles are shared reference data.
type RoleModel struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name string    `gorm:"type:varchar(50);unique;not null"`

	Authorities []*AuthorityModel `gorm:"many2many:roles_authorities"`
}

// TableName explicitly sets the table name for GORM.
func (RoleModel) TableName() string {
	return "roles"
}

// AuthorityModel mirrors the 'authorities' table.
type AuthorityModel struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name string    `gorm:"type:varchar(50);unique;not null"`
}

// TableName explicitly sets the table name for GORM.
func (AuthorityModel) TableName() string {
	return "authorities"
}
