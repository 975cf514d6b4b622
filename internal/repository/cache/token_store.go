package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/domain/repository"
)

const sessionKeyPrefix = "session:"

type redisTokenStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTokenStore хранит токены сессий в Redis
func NewRedisTokenStore(redis *Redis) repository.TokenStore {
	return &redisTokenStore{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (s *redisTokenStore) Get(ctx context.Context, sessionID string) (domain.Tokens, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return domain.Tokens{}, nil
	}
	if err != nil {
		s.logger.Error("Failed to load session", zap.String("session_id", sessionID), zap.Error(err))
		return domain.Tokens{}, fmt.Errorf("session get error: %w", err)
	}

	var tokens domain.Tokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return domain.Tokens{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return tokens, nil
}

func (s *redisTokenStore) Save(ctx context.Context, sessionID string, tokens domain.Tokens, ttl time.Duration) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+sessionID, data, ttl).Err(); err != nil {
		s.logger.Error("Failed to save session", zap.String("session_id", sessionID), zap.Error(err))
		return fmt.Errorf("session set error: %w", err)
	}
	return nil
}

func (s *redisTokenStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		s.logger.Error("Failed to delete session", zap.String("session_id", sessionID), zap.Error(err))
		return fmt.Errorf("session delete error: %w", err)
	}
	return nil
}
