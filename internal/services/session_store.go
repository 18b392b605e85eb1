package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/temcen/moviepick/pkg/models"
)

// SessionStore keeps the last result generated for each user. Saving a new
// result overwrites the previous one.
type SessionStore interface {
	Save(ctx context.Context, userID int, result *models.RecommendationResult) error
	Load(ctx context.Context, userID int) (*models.RecommendationResult, error)
	Ping(ctx context.Context) error
}

type RedisSessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{redis: client, ttl: ttl}
}

func sessionKey(userID int) string {
	return fmt.Sprintf("session:recommendations:%d", userID)
}

func (s *RedisSessionStore) Save(ctx context.Context, userID int, result *models.RecommendationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal session result: %w", err)
	}

	if err := s.redis.Set(ctx, sessionKey(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session result: %w", err)
	}
	return nil
}

// Load returns models.ErrMissingData when the user has no stored result.
func (s *RedisSessionStore) Load(ctx context.Context, userID int) (*models.RecommendationResult, error) {
	data, err := s.redis.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: no recommendations for user %d, generate first", models.ErrMissingData, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session result: %w", err)
	}

	var result models.RecommendationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session result: %w", err)
	}
	return &result, nil
}

func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}
