package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionDenylist stores revoked token ids in Redis until they expire on their own.
type SessionDenylist struct {
	client *redis.Client
}

// NewSessionDenylist creates a Redis-backed session denylist.
func NewSessionDenylist(client *redis.Client) *SessionDenylist {
	return &SessionDenylist{client: client}
}

// Revoke marks a token id as invalid for the remaining token lifetime.
func (s *SessionDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, "auth:denylist:"+tokenID, "1", ttl).Err()
}

// IsRevoked reports whether a token id has been revoked.
func (s *SessionDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, "auth:denylist:"+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ResetTokenStore keeps short-lived password-reset tokens keyed by email.
type ResetTokenStore struct {
	client *redis.Client
}

// NewResetTokenStore creates a Redis-backed reset token store.
func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

// Put stores the reset token for email with the given TTL, replacing any prior one.
func (s *ResetTokenStore) Put(ctx context.Context, email, token string, ttl time.Duration) error {
	return s.client.Set(ctx, "auth:reset:"+email, token, ttl).Err()
}

// Check reports whether token is the current reset token for email.
func (s *ResetTokenStore) Check(ctx context.Context, email, token string) (bool, error) {
	stored, err := s.client.Get(ctx, "auth:reset:"+email).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return stored == token, nil
}

// Delete consumes the reset token for email.
func (s *ResetTokenStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, "auth:reset:"+email).Err()
}
