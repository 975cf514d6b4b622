package repository

import (
	"context"
	"time"

	"github.com/kairos-service/internal/domain"
)

// TokenStore хранит пары токенов браузерных сессий
type TokenStore interface {
	// Get возвращает токены сессии. Пустые токены без ошибки - сессии нет
	Get(ctx context.Context, sessionID string) (domain.Tokens, error)

	// Save сохраняет токены сессии с TTL
	Save(ctx context.Context, sessionID string, tokens domain.Tokens, ttl time.Duration) error

	// Delete удаляет сессию
	Delete(ctx context.Context, sessionID string) error
}
