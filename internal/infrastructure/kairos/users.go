package kairos

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kairos-service/internal/domain"
)

func (s *Session) CurrentUser(ctx context.Context) (*domain.User, error) {
	var dto userDTO
	if err := s.call(ctx, request{
		method:   http.MethodGet,
		path:     "/api/v1/users/me",
		endpoint: "users.me",
	}, &dto); err != nil {
		return nil, err
	}
	user := dto.toDomain()
	return &user, nil
}

func (s *Session) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var dto userDTO
	if err := s.call(ctx, request{
		method:   http.MethodGet,
		path:     "/api/v1/users/" + url.PathEscape(userID),
		endpoint: "users.get",
	}, &dto); err != nil {
		return nil, err
	}
	user := dto.toDomain()
	return &user, nil
}

// UpdateUser сохраняет профиль пользователя целиком
func (s *Session) UpdateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	var dto userDTO
	if err := s.call(ctx, request{
		method:   http.MethodPut,
		path:     "/api/v1/users/" + url.PathEscape(user.ID),
		endpoint: "users.update",
		body:     userToUpdateDTO(user),
	}, &dto); err != nil {
		return nil, err
	}
	updated := dto.toDomain()
	if updated.ID == "" {
		updated = user
	}
	return &updated, nil
}

func (s *Session) DeleteUser(ctx context.Context, userID string) error {
	return s.call(ctx, request{
		method:   http.MethodDelete,
		path:     "/api/v1/users/" + url.PathEscape(userID),
		endpoint: "users.delete",
	}, nil)
}
