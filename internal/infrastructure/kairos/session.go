package kairos

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/domain/repository"
	"github.com/kairos-service/internal/pkg/errors"
)

var (
	_ repository.AuthRepository    = (*Client)(nil)
	_ repository.UserRepository    = (*Session)(nil)
	_ repository.JourneyRepository = (*Session)(nil)
	_ repository.MarkerRepository  = (*Session)(nil)
)

// Session - клиент Kairos API, привязанный к токенам одной браузерной сессии.
// Реализует UserRepository, JourneyRepository и MarkerRepository.
type Session struct {
	client    *Client
	refresher *Refresher
	logger    *zap.Logger
}

// NewSession создает сессионный клиент. onChange получает новые токены после refresh.
func (c *Client) NewSession(tokens domain.Tokens, onChange func(domain.Tokens)) *Session {
	return &Session{
		client:    c,
		refresher: NewRefresher(tokens, c.Refresh, onChange, c.logger),
		logger:    c.logger,
	}
}

// Tokens возвращает текущую пару токенов
func (s *Session) Tokens() domain.Tokens {
	return s.refresher.Tokens()
}

// SetTokens заменяет токены после логина или логаута
func (s *Session) SetTokens(tokens domain.Tokens) {
	s.refresher.Set(tokens)
}

// call выполняет авторизованный запрос. При 401 ждет единый refresh и повторяет запрос один раз.
func (s *Session) call(ctx context.Context, req request, out interface{}) error {
	token := s.refresher.AccessToken()
	if token == "" {
		return errors.ErrUnauthenticated
	}

	req.token = token
	resp, err := s.client.do(ctx, req)
	if err != nil {
		return err
	}

	if resp.status == http.StatusUnauthorized {
		s.logger.Debug("Access token rejected, waiting for refresh",
			zap.String("endpoint", req.endpoint))

		fresh, err := s.refresher.Refresh(ctx, token)
		if err != nil {
			return err
		}
		req.token = fresh
		resp, err = s.client.do(ctx, req)
		if err != nil {
			return err
		}
		if resp.status == http.StatusUnauthorized {
			s.logger.Warn("Refreshed token rejected, session cleared",
				zap.String("endpoint", req.endpoint))
			s.refresher.Clear()
			return errors.ErrAuthExpired
		}
	}

	return s.client.decode(resp, req, out)
}
