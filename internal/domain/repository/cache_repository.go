package repository

import (
	"context"
	"time"

	"github.com/kairos-service/internal/domain"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// Exists проверяет существование ключа
	Exists(ctx context.Context, key string) (bool, error)

	// GetProfile получает публичный профиль пользователя. nil, nil - промах кеша
	GetProfile(ctx context.Context, userID string) (*domain.ProfileSummary, error)

	// SetProfile сохраняет публичный профиль пользователя
	SetProfile(ctx context.Context, profile *domain.ProfileSummary, ttl time.Duration) error

	// DeleteProfile удаляет профиль после изменения или удаления аккаунта
	DeleteProfile(ctx context.Context, userID string) error
}
