package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. The internal UUID key never leaves the
// service; PublicID is the externally exposed identifier.
type UserModel struct {
	ID                     uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	PublicID               string    `gorm:"type:varchar(64);unique;not null"`
	FirstName              string    `gorm:"type:varchar(50);not null"`
	LastName               string    `gorm:"type:varchar(50);not null"`
	Email                  string    `gorm:"type:varchar(120);unique;not null"`
	PasswordHash           string    `gorm:"type:varchar(255);not null"`
	EmailVerificationToken *string   `gorm:"type:text;index"`
	EmailVerified          bool      `gorm:"not null;default:false"`
	CreatedAt              time.Time
	UpdatedAt              time.Time

	Addresses []*AddressModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Roles     []*RoleModel    `gorm:"many2many:users_roles"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// AddressModel mirrors the 'addresses' table. Rows are owned by a user and
// removed with it via the FK cascade.
type AddressModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	PublicID   string    `gorm:"type:varchar(64);unique;not null"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Street     string    `gorm:"type:varchar(120)"`
	City       string    `gorm:"type:varchar(60)"`
	Country    string    `gorm:"type:varchar(60)"`
	PostalCode string    `gorm:"type:varchar(16)"`
	Type       string    `gorm:"type:varchar(20)"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (AddressModel) TableName() string {
	return "addresses"
}
