package repository

import (
	"context"

	"github.com/kairos-service/internal/domain"
)

// AuthRepository - аутентификация во внешнем Kairos API
type AuthRepository interface {
	// Login обменивает логин и пароль на пару токенов
	Login(ctx context.Context, creds domain.Credentials) (domain.Tokens, error)

	// Signup регистрирует нового пользователя
	Signup(ctx context.Context, data domain.SignupData) (*domain.User, error)

	// Refresh получает новую пару токенов по refresh токену
	Refresh(ctx context.Context, refreshToken string) (domain.Tokens, error)

	// RequestPasswordReset отправляет письмо со ссылкой сброса пароля
	RequestPasswordReset(ctx context.Context, email string) error

	// UpdatePassword устанавливает новый пароль по токену из письма
	UpdatePassword(ctx context.Context, token, newPassword string) error

	// VerifyEmail подтверждает email по токену из письма
	VerifyEmail(ctx context.Context, token string) error
}

// UserRepository - пользователи
type UserRepository interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) (*domain.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// JourneyRepository - путешествия текущего пользователя
type JourneyRepository interface {
	List(ctx context.Context, userID string) ([]domain.Journey, error)

	// Active возвращает активное путешествие или nil, если его нет
	Active(ctx context.Context, userID string) (*domain.Journey, error)

	Get(ctx context.Context, journeyID string) (*domain.Journey, error)
	Create(ctx context.Context, draft domain.JourneyDraft) (*domain.Journey, error)
	Delete(ctx context.Context, journeyID string) error

	// ToggleActive переключает флаг active на сервере
	ToggleActive(ctx context.Context, journeyID string) (*domain.Journey, error)

	SetCompleted(ctx context.Context, journeyID string, completed bool) (*domain.Journey, error)
}

// MarkerRepository - маркеры путешествий
type MarkerRepository interface {
	ListMarkers(ctx context.Context, journeyID string) ([]domain.Marker, error)

	// NearbyJourneyIDs возвращает id путешествий, пересекающихся с данным
	NearbyJourneyIDs(ctx context.Context, journeyID string) ([]string, error)

	CreateMarker(ctx context.Context, journeyID string, draft domain.MarkerDraft) (*domain.Marker, error)
	UpdateMarker(ctx context.Context, marker domain.Marker) (*domain.Marker, error)
	DeleteMarker(ctx context.Context, journeyID, markerID string) error
}
