package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tuition/internal/model"
	"tuition/internal/storage"
)

const (
	// UsersKey is the store key of the user directory snapshot.
	UsersKey = "users"
	// SessionKey is the store key of the active session snapshot.
	SessionKey = "activeSession"
)

// UserRepository persists the user directory and the active session.
type UserRepository interface {
	// LoadUsers returns found=false when no snapshot has been written yet.
	LoadUsers(ctx context.Context) (users []model.User, found bool, err error)
	SaveUsers(ctx context.Context, users []model.User) error
	// LoadSession returns nil when no session is stored.
	LoadSession(ctx context.Context) (*model.User, error)
	SaveSession(ctx context.Context, user model.User) error
	ClearSession(ctx context.Context) error
}

// userRecord is the persisted form of model.User; unlike the API form it
// carries the password hash.
type userRecord struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	Role         model.Role `json:"role"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func toRecord(u model.User) userRecord {
	u = u.Clone()
	return userRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		LastLogin:    u.LastLogin,
	}
}

func (r userRecord) toModel() model.User {
	return model.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
		LastLogin:    r.LastLogin,
	}
}

type userRepository struct {
	store storage.Store
}

// NewUserRepository builds a snapshot-backed user repository.
func NewUserRepository(store storage.Store) UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) LoadUsers(ctx context.Context) ([]model.User, bool, error) {
	data, err := r.store.Get(ctx, UsersKey)
	if err != nil {
		return nil, false, fmt.Errorf("load users: %w", err)
	}
	if data == nil {
		return nil, false, nil
	}

	var records []userRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("decode users: %w", err)
	}
	users := make([]model.User, 0, len(records))
	for _, rec := range records {
		users = append(users, rec.toModel())
	}
	return users, true, nil
}

func (r *userRepository) SaveUsers(ctx context.Context, users []model.User) error {
	records := make([]userRecord, 0, len(users))
	for _, u := range users {
		records = append(records, toRecord(u))
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return r.store.Set(ctx, UsersKey, payload)
}

func (r *userRepository) LoadSession(ctx context.Context) (*model.User, error) {
	data, err := r.store.Get(ctx, SessionKey)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	u := rec.toModel()
	return &u, nil
}

func (r *userRepository) SaveSession(ctx context.Context, user model.User) error {
	payload, err := json.Marshal(toRecord(user))
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.store.Set(ctx, SessionKey, payload)
}

func (r *userRepository) ClearSession(ctx context.Context) error {
	return r.store.Delete(ctx, SessionKey)
}
