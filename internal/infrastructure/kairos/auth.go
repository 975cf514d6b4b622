package kairos

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/pkg/errors"
)

// Login обменивает email и пароль на пару токенов (OAuth2 password grant)
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.Tokens, error) {
	form := url.Values{}
	form.Set("username", creds.Email)
	form.Set("password", creds.Password)
	form.Set("grant_type", "password")

	var dto tokenDTO
	err := c.call(ctx, request{
		method:   http.MethodPost,
		path:     "/api/v1/auth/token",
		endpoint: "auth.token",
		form:     form,
	}, &dto)
	if err != nil {
		if errors.Is(err, errors.ErrAuthExpired) || errors.Is(err, errors.ErrValidation) {
			return domain.Tokens{}, errors.ErrInvalidCredentials
		}
		return domain.Tokens{}, err
	}

	c.logger.Debug("Logged in to Kairos API", zap.String("email", creds.Email))
	return dto.toDomain(), nil
}

// Refresh получает новую пару токенов
func (c *Client) Refresh(ctx context.Context, refreshToken string) (domain.Tokens, error) {
	form := url.Values{}
	form.Set("refresh_token", refreshToken)

	var dto tokenDTO
	err := c.call(ctx, request{
		method:   http.MethodPost,
		path:     "/api/v1/auth/refresh",
		endpoint: "auth.refresh",
		form:     form,
	}, &dto)
	if err != nil {
		return domain.Tokens{}, err
	}
	if dto.AccessToken == "" {
		return domain.Tokens{}, errors.ErrAuthExpired.WithMessage("Refresh returned no access token")
	}
	return dto.toDomain(), nil
}

// Signup регистрирует пользователя
func (c *Client) Signup(ctx context.Context, data domain.SignupData) (*domain.User, error) {
	var dto userDTO
	err := c.call(ctx, request{
		method:   http.MethodPost,
		path:     "/api/v1/users",
		endpoint: "users.create",
		body: signupDTO{
			Name:     data.Name,
			Email:    data.Email,
			Password: data.Password,
		},
	}, &dto)
	if err != nil {
		return nil, err
	}

	user := dto.toDomain()
	return &user, nil
}

// RequestPasswordReset просит API отправить письмо со ссылкой сброса пароля.
// 404 для неизвестного email не считается ошибкой.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	query := url.Values{}
	query.Set("email", email)

	err := c.call(ctx, request{
		method:   http.MethodPost,
		path:     "/api/v1/users/reset-password",
		endpoint: "users.reset_password",
		query:    query,
	}, nil)
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	return err
}

// UpdatePassword устанавливает новый пароль по токену из письма
func (c *Client) UpdatePassword(ctx context.Context, token, newPassword string) error {
	query := url.Values{}
	query.Set("token", token)
	query.Set("new_password", newPassword)

	return tokenError(c.call(ctx, request{
		method:   http.MethodPost,
		path:     "/api/v1/users/update-password",
		endpoint: "users.update_password",
		query:    query,
	}, nil))
}

// VerifyEmail подтверждает email по токену из письма
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	query := url.Values{}
	query.Set("token", token)

	return tokenError(c.call(ctx, request{
		method:   http.MethodGet,
		path:     "/api/v1/users/verify-email",
		endpoint: "users.verify_email",
		query:    query,
	}, nil))
}

// tokenError - отказ API по токену из письма означает недействительную ссылку
func tokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errors.ErrAuthExpired), errors.Is(err, errors.ErrNotFound), errors.Is(err, errors.ErrValidation):
		return errors.ErrInvalidToken.Wrap(err)
	default:
		return err
	}
}
