package adapters

import (
	"context"
	"sync"

	"petserver/internal/feature/auth/domain/entity"
	"petserver/internal/feature/auth/usecase"
)

// pendingMemory holds pending signups in process memory only; they are lost on restart.
type pendingMemory struct {
	mu      sync.RWMutex
	pending map[string]entity.PendingSignup
}

// Compile-time check to ensure pendingMemory implements PendingSignupRepository.
var _ usecase.PendingSignupRepository = (*pendingMemory)(nil)

// NewPendingMemory creates an empty pending signup table.
func NewPendingMemory() *pendingMemory {
	return &pendingMemory{pending: map[string]entity.PendingSignup{}}
}

func (r *pendingMemory) Put(_ context.Context, email string, p *entity.PendingSignup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending[email] = *p
	return nil
}

func (r *pendingMemory) Find(_ context.Context, email string) (*entity.PendingSignup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pending[email]
	if !ok {
		return nil, usecase.ErrSignupNotFound
	}
	return &p, nil
}

func (r *pendingMemory) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = map[string]entity.PendingSignup{}
	return nil
}
