package usecase

import (
	"context"

	"petserver/internal/feature/auth/domain/entity"
)

// SessionRepository abstracts the session table.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
// Sessions are always keyed by token; the value is the owning email.
type SessionRepository interface {
	// Create stores token -> email.
	Create(ctx context.Context, token, email string) error

	// FindEmail returns the email owning token, or ErrSessionNotFound.
	FindEmail(ctx context.Context, token string) (string, error)

	// Delete removes token, or returns ErrSessionNotFound.
	Delete(ctx context.Context, token string) error

	// Reset removes every session.
	Reset(ctx context.Context) error
}

// PendingSignupRepository holds signups waiting for their emailed code. Entries are never persisted.
type PendingSignupRepository interface {
	// Put stores or replaces the pending signup for email.
	Put(ctx context.Context, email string, pending *entity.PendingSignup) error

	// Find returns the pending signup for email, or ErrSignupNotFound.
	Find(ctx context.Context, email string) (*entity.PendingSignup, error)

	// Reset removes every pending signup.
	Reset(ctx context.Context) error
}
