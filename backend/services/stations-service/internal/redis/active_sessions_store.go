package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chargemap/backend/services/stations-service/internal/models"
)

// ErrMiss is returned when no active session is cached for the user.
var ErrMiss = errors.New("redisstore: cache miss")

// Store caches each user's active charging session.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(userID int64) string {
	return fmt.Sprintf("sessions:active:user:%d", userID)
}

// Save caches the session under its user.
func (s *Store) Save(ctx context.Context, session models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.UserID), data, s.ttl).Err()
}

// Get returns the cached active session or ErrMiss.
func (s *Store) Get(ctx context.Context, userID int64) (*models.Session, error) {
	result, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	var session models.Session
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes the cached session.
func (s *Store) Delete(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}
