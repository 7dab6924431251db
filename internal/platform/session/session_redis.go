// Package session provides a Redis-backed session table.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petserver/internal/feature/auth/usecase"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// SessionRedis implements usecase.SessionRepository using Redis.
// Each session is a string key <prefix>:<token> holding the email.
type SessionRedis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Compile-time check to ensure SessionRedis implements SessionRepository.
var _ usecase.SessionRepository = (*SessionRedis)(nil)

// NewSessionRedis creates a new SessionRedis instance. A ttl of 0 keeps sessions forever.
func NewSessionRedis(client *redis.Client, prefix string, ttl time.Duration) *SessionRedis {
	if prefix == "" {
		prefix = "session"
	}
	return &SessionRedis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// sessionKey returns the Redis key for a session.
func (r *SessionRedis) sessionKey(token string) string {
	return fmt.Sprintf("%s:%s", r.prefix, token)
}

// Create stores token -> email.
func (r *SessionRedis) Create(ctx context.Context, token, email string) error {
	return r.client.Set(ctx, r.sessionKey(token), email, r.ttl).Err()
}

// FindEmail returns the email owning token.
func (r *SessionRedis) FindEmail(ctx context.Context, token string) (string, error) {
	email, err := r.client.Get(ctx, r.sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", usecase.ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return email, nil
}

// Delete removes the session.
func (r *SessionRedis) Delete(ctx context.Context, token string) error {
	n, err := r.client.Del(ctx, r.sessionKey(token)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// Reset deletes every key under the prefix.
func (r *SessionRedis) Reset(ctx context.Context) error {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+":*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
