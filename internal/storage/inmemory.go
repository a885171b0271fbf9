package storage

import (
	"context"
	"sync"
	"time"

	"auth_api/internal/apperror"
	"auth_api/internal/models"

	"github.com/gofrs/uuid"
)

// InMemoryStorage keeps users in a map. It mirrors the postgres semantics
// (email uniqueness, not-found mapping) and backs the service and handler tests.
type InMemoryStorage struct {
	mu      sync.Mutex
	users   map[uuid.UUID]models.User
	byEmail map[string]uuid.UUID
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		users:   make(map[uuid.UUID]models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (m *InMemoryStorage) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[email]
	if !ok {
		return models.User{}, apperror.ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *InMemoryStorage) GetUserByID(_ context.Context, userID uuid.UUID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return models.User{}, apperror.ErrUserNotFound
	}
	return user, nil
}

func (m *InMemoryStorage) CreateUser(_ context.Context, params CreateUserParams) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[params.Email]; ok {
		return models.User{}, apperror.ErrEmailTaken
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	user := models.User{
		ID:             id,
		Email:          params.Email,
		FullName:       params.FullName,
		AvatarURL:      params.AvatarURL,
		HashedPassword: params.HashedPassword,
		IsActive:       params.IsActive,
		IsAdmin:        params.IsAdmin,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	m.users[id] = user
	m.byEmail[params.Email] = id

	return user, nil
}

func (m *InMemoryStorage) UpdateUser(_ context.Context, userID uuid.UUID, upd UserUpdate) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return models.User{}, apperror.ErrUserNotFound
	}

	if upd.FullName != nil {
		user.FullName = *upd.FullName
	}
	if upd.AvatarURL != nil {
		user.AvatarURL = upd.AvatarURL
	}
	if upd.HashedPassword != nil {
		user.HashedPassword = *upd.HashedPassword
	}
	if upd.ClearRefreshToken {
		user.HashedRefreshToken = nil
	} else if upd.HashedRefreshToken != nil {
		hash := *upd.HashedRefreshToken
		user.HashedRefreshToken = &hash
	}
	if upd.IsActive != nil {
		user.IsActive = *upd.IsActive
	}
	user.UpdatedAt = time.Now().UTC()

	m.users[userID] = user

	return user, nil
}

func (m *InMemoryStorage) Close() {}
