// Package session maps opaque bearer tokens to user ids. Tokens are random,
// carry no claims, and are resolved against Redis on every request.
package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for unknown or expired tokens.
var ErrNotFound = errors.New("session not found")

const keyPrefix = "session:"

// Store issues and resolves session tokens backed by Redis with a TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a session store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

// Create issues a fresh token for the user.
func (s *Store) Create(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, keyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the user id behind a token, refreshing its TTL. Malformed
// and unknown tokens both yield ErrNotFound, never a fault.
func (s *Store) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrNotFound
	}
	raw, err := s.client.Get(ctx, keyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrNotFound
	}
	// sliding expiry
	_ = s.client.Expire(ctx, keyPrefix+token, s.ttl).Err()
	return userID, nil
}

// Delete revokes a token. Unknown tokens are not an error.
func (s *Store) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.client.Del(ctx, keyPrefix+token).Err()
}
