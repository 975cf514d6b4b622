package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/domain/repository"
)

type memoryTokenStore struct {
	cache *gocache.Cache
}

// NewMemoryTokenStore - хранилище сессий в памяти процесса (SESSION_STORE=memory).
// Сессии теряются при рестарте.
func NewMemoryTokenStore(defaultTTL time.Duration) repository.TokenStore {
	return &memoryTokenStore{
		cache: gocache.New(defaultTTL, 10*time.Minute),
	}
}

func (s *memoryTokenStore) Get(_ context.Context, sessionID string) (domain.Tokens, error) {
	v, ok := s.cache.Get(sessionID)
	if !ok {
		return domain.Tokens{}, nil
	}
	return v.(domain.Tokens), nil
}

func (s *memoryTokenStore) Save(_ context.Context, sessionID string, tokens domain.Tokens, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.cache.Set(sessionID, tokens, ttl)
	return nil
}

func (s *memoryTokenStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}
