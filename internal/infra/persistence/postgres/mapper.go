package postgres

import (
	"accounts/internal/domain/entity"
	"accounts/internal/infra/persistence/model"
)

// Mapping between domain entities and GORM models. The two sides evolve
// independently, so the translation is explicit rather than shared structs.

func toUserModel(user *entity.User) *model.UserModel {
	m := &model.UserModel{
		ID:            user.ID,
		PublicID:      user.PublicID,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Email:         user.Email,
		PasswordHash:  user.PasswordHash,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
	if user.EmailVerificationToken != "" {
		token := user.EmailVerificationToken
		m.EmailVerificationToken = &token
	}
	for _, addr := range user.Addresses {
		m.Addresses = append(m.Addresses, toAddressModel(addr))
	}
	for _, role := range user.Roles {
		m.Roles = append(m.Roles, toRoleModel(role))
	}

	return m
}

func toUserEntity(m *model.UserModel) *entity.User {
	user := &entity.User{
		ID:            m.ID,
		PublicID:      m.PublicID,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Email:         m.Email,
		PasswordHash:  m.PasswordHash,
		EmailVerified: m.EmailVerified,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.EmailVerificationToken != nil {
		user.EmailVerificationToken = *m.EmailVerificationToken
	}
	for _, addr := range m.Addresses {
		user.Addresses = append(user.Addresses, toAddressEntity(addr))
	}
	for _, role := range m.Roles {
		user.Roles = append(user.Roles, toRoleEntity(role))
	}

	return user
}

func toAddressModel(addr *entity.Address) *model.AddressModel {
	return &model.AddressModel{
		ID:         addr.ID,
		PublicID:   addr.PublicID,
		UserID:     addr.UserID,
		Street:     addr.Street,
		City:       addr.City,
		Country:    addr.Country,
		PostalCode: addr.PostalCode,
		Type:       addr.Type,
		CreatedAt:  addr.CreatedAt,
		UpdatedAt:  addr.UpdatedAt,
	}
}

func toAddressEntity(m *model.AddressModel) *entity.Address {
	return &entity.Address{
		ID:         m.ID,
		PublicID:   m.PublicID,
		UserID:     m.UserID,
		Street:     m.Street,
		City:       m.City,
		Country:    m.Country,
		PostalCode: m.PostalCode,
		Type:       m.Type,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toRoleModel(role *entity.Role) *model.RoleModel {
	m := &model.RoleModel{
		ID:   role.ID,
		Name: role.Name,
	}
	for _, authority := range role.Authorities {
		m.Authorities = append(m.Authorities, &model.AuthorityModel{
			ID:   authority.ID,
			Name: authority.Name,
		})
	}

	return m
}

func toRoleEntity(m *model.RoleModel) *entity.Role {
	role := &entity.Role{
		ID:   m.ID,
		Name: m.Name,
	}
	for _, authority := range m.Authorities {
		role.Authorities = append(role.Authorities, &entity.Authority{
			ID:   authority.ID,
			Name: authority.Name,
		})
	}

	return role
}

func toResetTokenModel(token *entity.PasswordResetToken) *model.PasswordResetTokenModel {
	return &model.PasswordResetTokenModel{
		ID:        token.ID,
		Token:     token.Token,
		UserID:    token.UserID,
		CreatedAt: token.CreatedAt,
	}
}

func toResetTokenEntity(m *model.PasswordResetTokenModel) *entity.PasswordResetToken {
	return &entity.PasswordResetToken{
		ID:        m.ID,
		Token:     m.Token,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
	}
}

func toRefreshTokenModel(token *entity.RefreshToken) *model.RefreshTokenModel {
	return &model.RefreshTokenModel{
		ID:        token.ID,
		UserID:    token.UserID,
		TokenHash: token.TokenHash,
		ExpiresAt: token.ExpiresAt,
		CreatedAt: token.CreatedAt,
	}
}

func toRefreshTokenEntity(m *model.RefreshTokenModel) *entity.RefreshToken {
	return &entity.RefreshToken{
		ID:        m.ID,
		UserID:    m.UserID,
		TokenHash: m.TokenHash,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}
}
