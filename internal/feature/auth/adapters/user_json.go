// Package adapters provides repository implementations for the auth feature.
package adapters

import (
	"context"
	"sync"

	"petserver/internal/feature/auth/domain/entity"
	"petserver/internal/feature/auth/usecase"
	"petserver/internal/platform/jsonstore"
)

// UsersDocument is the storage document holding email -> user.
const UsersDocument = "users.json"

// userJSON keeps users in memory and mirrors the whole table to users.json on every write.
type userJSON struct {
	mu    sync.RWMutex
	store *jsonstore.Store
	users map[string]entity.User
}

// Compile-time check to ensure userJSON implements UserRepository.
var _ usecase.UserRepository = (*userJSON)(nil)

// NewUserJSON loads users.json from store, creating it when missing.
func NewUserJSON(store *jsonstore.Store) (*userJSON, error) {
	users, err := jsonstore.Load[entity.User](store, UsersDocument, nil)
	if err != nil {
		return nil, err
	}
	return &userJSON{store: store, users: users}, nil
}

// FindByEmail returns a copy of the stored user.
func (r *userJSON) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return nil, usecase.ErrUserNotFound
	}
	return &u, nil
}

// Upsert merges patch into the stored user and writes the table.
// The memory change is kept even when the write fails.
func (r *userJSON) Upsert(_ context.Context, patch *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.users[patch.Email]
	u.Merge(patch)
	r.users[patch.Email] = u

	return r.store.Save(UsersDocument, r.users)
}

// Reset empties the table and removes users.json.
func (r *userJSON) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = map[string]entity.User{}
	return r.store.Remove(UsersDocument)
}
