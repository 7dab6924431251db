package adapters

import (
	"context"
	"sync"

	"petserver/internal/feature/auth/usecase"
	"petserver/internal/platform/jsonstore"
)

// SessionsDocument is the storage document holding token -> email.
const SessionsDocument = "userSessions.json"

// sessionJSON keeps sessions in memory and mirrors them to userSessions.json on every write.
type sessionJSON struct {
	mu       sync.RWMutex
	store    *jsonstore.Store
	sessions map[string]string
}

// Compile-time check to ensure sessionJSON implements SessionRepository.
var _ usecase.SessionRepository = (*sessionJSON)(nil)

// NewSessionJSON loads userSessions.json from store, creating it when missing.
func NewSessionJSON(store *jsonstore.Store) (*sessionJSON, error) {
	sessions, err := jsonstore.Load[string](store, SessionsDocument, nil)
	if err != nil {
		return nil, err
	}
	return &sessionJSON{store: store, sessions: sessions}, nil
}

// Create stores token -> email and writes the table.
func (r *sessionJSON) Create(_ context.Context, token, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[token] = email
	return r.store.Save(SessionsDocument, r.sessions)
}

// FindEmail returns the email owning token.
func (r *sessionJSON) FindEmail(_ context.Context, token string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email, ok := r.sessions[token]
	if !ok {
		return "", usecase.ErrSessionNotFound
	}
	return email, nil
}

// Delete removes token and writes the table.
func (r *sessionJSON) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[token]; !ok {
		return usecase.ErrSessionNotFound
	}
	delete(r.sessions, token)
	return r.store.Save(SessionsDocument, r.sessions)
}

// Reset empties the table and removes userSessions.json.
func (r *sessionJSON) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = map[string]string{}
	return r.store.Remove(SessionsDocument)
}
