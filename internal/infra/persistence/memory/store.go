// Package memory provides an in-memory implementation of the persistence
// interfaces. It backs local development when no database is configured and
// serves as the test double for the application layer.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"accounts/internal/domain/entity"
	"accounts/internal/domain/repository"
)

// Store holds all account state in process memory. A single mutex serializes
// access, which also gives Execute its transaction boundary.
type Store struct {
	mu sync.Mutex

	users         map[uuid.UUID]*entity.User
	roles         map[string]*entity.Role
	resetTokens   map[uuid.UUID]*entity.PasswordResetToken
	refreshTokens map[string]*entity.RefreshToken
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*entity.User),
		roles:         make(map[string]*entity.Role),
		resetTokens:   make(map[uuid.UUID]*entity.PasswordResetToken),
		refreshTokens: make(map[string]*entity.RefreshToken),
	}
}

// UserRepo returns a UserRepository view over the store.
func (s *Store) UserRepo() repository.UserRepository {
	return &userRepo{store: s, lock: true}
}

// RoleRepo returns a RoleRepository view over the store.
func (s *Store) RoleRepo() repository.RoleRepository {
	return &roleRepo{store: s, lock: true}
}

// ResetTokenRepo returns a PasswordResetTokenRepository view over the store.
func (s *Store) ResetTokenRepo() repository.PasswordResetTokenRepository {
	return &resetTokenRepo{store: s, lock: true}
}

// RefreshTokenRepo returns a RefreshTokenRepository view over the store.
func (s *Store) RefreshTokenRepo() repository.RefreshTokenRepository {
	return &refreshTokenRepo{store: s, lock: true}
}

// Execute runs fn under the store mutex. The state is snapshotted first and
// restored when fn returns an error or panics, so partial writes never become
// visible.
func (s *Store) Execute(_ context.Context, fn func(repos repository.RepositoryFactory) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshotLocked()

	defer func() {
		if r := recover(); r != nil {
			s.restoreLocked(snapshot)
			panic(r)
		}
	}()

	factory := &txFactory{store: s}
	if err := fn(factory); err != nil {
		s.restoreLocked(snapshot)

		return err
	}

	return nil
}

// txFactory hands out repository views that skip locking because Execute
// already holds the store mutex.
type txFactory struct {
	store *Store
}

func (f *txFactory) UserRepo() repository.UserRepository {
	return &userRepo{store: f.store}
}

func (f *txFactory) RoleRepo() repository.RoleRepository {
	return &roleRepo{store: f.store}
}

func (f *txFactory) ResetTokenRepo() repository.PasswordResetTokenRepository {
	return &resetTokenRepo{store: f.store}
}

func (f *txFactory) RefreshTokenRepo() repository.RefreshTokenRepository {
	return &refreshTokenRepo{store: f.store}
}

type storeSnapshot struct {
	users         map[uuid.UUID]*entity.User
	roles         map[string]*entity.Role
	resetTokens   map[uuid.UUID]*entity.PasswordResetToken
	refreshTokens map[string]*entity.RefreshToken
}

func (s *Store) snapshotLocked() storeSnapshot {
	snap := storeSnapshot{
		users:         make(map[uuid.UUID]*entity.User, len(s.users)),
		roles:         make(map[string]*entity.Role, len(s.roles)),
		resetTokens:   make(map[uuid.UUID]*entity.PasswordResetToken, len(s.resetTokens)),
		refreshTokens: make(map[string]*entity.RefreshToken, len(s.refreshTokens)),
	}
	for id, user := range s.users {
		snap.users[id] = cloneUser(user)
	}
	for name, role := range s.roles {
		snap.roles[name] = cloneRole(role)
	}
	for id, token := range s.resetTokens {
		t := *token
		snap.resetTokens[id] = &t
	}
	for hash, token := range s.refreshTokens {
		t := *token
		snap.refreshTokens[hash] = &t
	}

	return snap
}

func (s *Store) restoreLocked(snap storeSnapshot) {
	s.users = snap.users
	s.roles = snap.roles
	s.resetTokens = snap.resetTokens
	s.refreshTokens = snap.refreshTokens
}

func cloneUser(user *entity.User) *entity.User {
	clone := *user
	clone.Roles = make([]*entity.Role, 0, len(user.Roles))
	for _, role := range user.Roles {
		clone.Roles = append(clone.Roles, cloneRole(role))
	}
	clone.Addresses = make([]*entity.Address, 0, len(user.Addresses))
	for _, addr := range user.Addresses {
		a := *addr
		clone.Addresses = append(clone.Addresses, &a)
	}

	return &clone
}

func cloneRole(role *entity.Role) *entity.Role {
	clone := *role
	clone.Authorities = make([]*entity.Authority, 0, len(role.Authorities))
	for _, authority := range role.Authorities {
		a := *authority
		clone.Authorities = append(clone.Authorities, &a)
	}

	return &clone
}

type userRepo struct {
	store *Store
	lock  bool
}

func (r *userRepo) guard() func() {
	if !r.lock {
		return func() {}
	}
	r.store.mu.Lock()

	return r.store.mu.Unlock
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	defer r.guard()()

	user, ok := r.store.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return cloneUser(user), nil
}

func (r *userRepo) FindByPublicID(_ context.Context, publicID string) (*entity.User, error) {
	defer r.guard()()

	for _, user := range r.store.users {
		if user.PublicID == publicID {
			return cloneUser(user), nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	defer r.guard()()

	for _, user := range r.store.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *userRepo) FindByVerificationToken(_ context.Context, token string) (*entity.User, error) {
	defer r.guard()()

	if token == "" {
		return nil, repository.ErrUserNotFound
	}
	for _, user := range r.store.users {
		if user.EmailVerificationToken == token {
			return cloneUser(user), nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *userRepo) List(_ context.Context, offset, limit int) ([]*entity.User, error) {
	defer r.guard()()

	all := make([]*entity.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		all = append(all, user)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}

		return all[i].ID.String() < all[j].ID.String()
	})

	if offset >= len(all) {
		return []*entity.User{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	page := make([]*entity.User, 0, end-offset)
	for _, user := range all[offset:end] {
		page = append(page, cloneUser(user))
	}

	return page, nil
}

func (r *userRepo) Create(_ context.Context, user *entity.User) error {
	defer r.guard()()

	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	for _, addr := range user.Addresses {
		if addr.ID == uuid.Nil {
			addr.ID = uuid.New()
		}
		addr.UserID = user.ID
		addr.CreatedAt = now
		addr.UpdatedAt = now
	}

	r.store.users[user.ID] = cloneUser(user)

	return nil
}

func (r *userRepo) Update(_ context.Context, user *entity.User) error {
	defer r.guard()()

	existing, ok := r.store.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for id, other := range r.store.users {
		if id != user.ID && other.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}

	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.Email = user.Email
	existing.PasswordHash = user.PasswordHash
	existing.EmailVerificationToken = user.EmailVerificationToken
	existing.EmailVerified = user.EmailVerified
	existing.UpdatedAt = time.Now()
	user.UpdatedAt = existing.UpdatedAt

	return nil
}

func (r *userRepo) Delete(_ context.Context, id uuid.UUID) error {
	defer r.guard()()

	if _, ok := r.store.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.store.users, id)

	// Mirror the database FK cascades.
	for tokenID, token := range r.store.resetTokens {
		if token.UserID == id {
			delete(r.store.resetTokens, tokenID)
		}
	}
	for hash, token := range r.store.refreshTokens {
		if token.UserID == id {
			delete(r.store.refreshTokens, hash)
		}
	}

	return nil
}

type roleRepo struct {
	store *Store
	lock  bool
}

func (r *roleRepo) guard() func() {
	if !r.lock {
		return func() {}
	}
	r.store.mu.Lock()

	return r.store.mu.Unlock
}

func (r *roleRepo) FindByName(_ context.Context, name string) (*entity.Role, error) {
	defer r.guard()()

	role, ok := r.store.roles[name]
	if !ok {
		return nil, repository.ErrRoleNotFound
	}

	return cloneRole(role), nil
}

func (r *roleRepo) Save(_ context.Context, role *entity.Role) error {
	defer r.guard()()

	if existing, ok := r.store.roles[role.Name]; ok {
		role.ID = existing.ID

		return nil
	}

	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	for _, authority := range role.Authorities {
		if authority.ID == uuid.Nil {
			authority.ID = uuid.New()
		}
	}
	r.store.roles[role.Name] = cloneRole(role)

	return nil
}

type resetTokenRepo struct {
	store *Store
	lock  bool
}

func (r *resetTokenRepo) guard() func() {
	if !r.lock {
		return func() {}
	}
	r.store.mu.Lock()

	return r.store.mu.Unlock
}

func (r *resetTokenRepo) Create(_ context.Context, token *entity.PasswordResetToken) error {
	defer r.guard()()

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	t := *token
	r.store.resetTokens[token.ID] = &t

	return nil
}

func (r *resetTokenRepo) FindByToken(_ context.Context, token string) (*entity.PasswordResetToken, error) {
	defer r.guard()()

	for _, row := range r.store.resetTokens {
		if row.Token == token {
			t := *row

			return &t, nil
		}
	}

	return nil, repository.ErrResetTokenNotFound
}

func (r *resetTokenRepo) Delete(_ context.Context, id uuid.UUID) error {
	defer r.guard()()

	delete(r.store.resetTokens, id)

	return nil
}

func (r *resetTokenRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	defer r.guard()()

	for id, token := range r.store.resetTokens {
		if token.UserID == userID {
			delete(r.store.resetTokens, id)
		}
	}

	return nil
}

type refreshTokenRepo struct {
	store *Store
	lock  bool
}

func (r *refreshTokenRepo) guard() func() {
	if !r.lock {
		return func() {}
	}
	r.store.mu.Lock()

	return r.store.mu.Unlock
}

func (r *refreshTokenRepo) Create(_ context.Context, token *entity.RefreshToken) error {
	defer r.guard()()

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	t := *token
	r.store.refreshTokens[token.TokenHash] = &t

	return nil
}

func (r *refreshTokenRepo) FindByHash(_ context.Context, tokenHash string) (*entity.RefreshToken, error) {
	defer r.guard()()

	token, ok := r.store.refreshTokens[tokenHash]
	if !ok || !token.ExpiresAt.After(time.Now()) {
		return nil, repository.ErrRefreshTokenNotFound
	}
	t := *token

	return &t, nil
}

func (r *refreshTokenRepo) DeleteByHash(_ context.Context, tokenHash string) error {
	defer r.guard()()

	delete(r.store.refreshTokens, tokenHash)

	return nil
}

func (r *refreshTokenRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	defer r.guard()()

	for hash, token := range r.store.refreshTokens {
		if token.UserID == userID {
			delete(r.store.refreshTokens, hash)
		}
	}

	return nil
}

func (r *refreshTokenRepo) DeleteExpired(_ context.Context) error {
	defer r.guard()()

	now := time.Now()
	for hash, token := range r.store.refreshTokens {
		if !token.ExpiresAt.After(now) {
			delete(r.store.refreshTokens, hash)
		}
	}

	return nil
}
