package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/domain/repository"
)

type memoryCacheRepository struct {
	cache *gocache.Cache
}

// NewMemoryCacheRepository - кеш в памяти процесса, используется без Redis
func NewMemoryCacheRepository(defaultTTL time.Duration) repository.CacheRepository {
	return &memoryCacheRepository{
		cache: gocache.New(defaultTTL, 10*time.Minute),
	}
}

func (r *memoryCacheRepository) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := r.cache.Get(key)
	if !ok {
		return nil, nil // Cache miss
	}
	return v.([]byte), nil
}

func (r *memoryCacheRepository) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	r.cache.Set(key, value, expiration(ttl))
	return nil
}

func (r *memoryCacheRepository) Delete(_ context.Context, key string) error {
	r.cache.Delete(key)
	return nil
}

func (r *memoryCacheRepository) Exists(_ context.Context, key string) (bool, error) {
	_, ok := r.cache.Get(key)
	return ok, nil
}

func (r *memoryCacheRepository) GetProfile(_ context.Context, userID string) (*domain.ProfileSummary, error) {
	v, ok := r.cache.Get(profileKeyPrefix + userID)
	if !ok {
		return nil, nil
	}
	profile := v.(domain.ProfileSummary)
	return &profile, nil
}

func (r *memoryCacheRepository) SetProfile(_ context.Context, profile *domain.ProfileSummary, ttl time.Duration) error {
	r.cache.Set(profileKeyPrefix+profile.UserID, *profile, expiration(ttl))
	return nil
}

func (r *memoryCacheRepository) DeleteProfile(_ context.Context, userID string) error {
	r.cache.Delete(profileKeyPrefix + userID)
	return nil
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.DefaultExpiration
	}
	return ttl
}
