package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/domain/repository"
	"github.com/kairos-service/internal/pkg/errors"
	"github.com/kairos-service/internal/pkg/validator"
	"github.com/kairos-service/internal/usecase/dto"
)

const tokenStoreTimeout = 5 * time.Second

// KairosSession - клиент внешнего API, привязанный к токенам одной сессии
type KairosSession interface {
	repository.UserRepository
	repository.JourneyRepository
	repository.MarkerRepository

	Tokens() domain.Tokens
	SetTokens(tokens domain.Tokens)
}

// KairosSessionFactory создает клиент сессии. onChange вызывается при смене токенов после refresh.
type KairosSessionFactory func(tokens domain.Tokens, onChange func(domain.Tokens)) KairosSession

// Session - явный контекст сессии: токены и текущий пользователь
type Session struct {
	id     string
	auth   repository.AuthRepository
	remote KairosSession
	store  repository.TokenStore
	maxTTL time.Duration
	logger *zap.Logger

	mu      sync.RWMutex
	user    *domain.User
	onReset []func()
}

func NewSession(
	id string,
	tokens domain.Tokens,
	auth repository.AuthRepository,
	store repository.TokenStore,
	factory KairosSessionFactory,
	maxTTL time.Duration,
	logger *zap.Logger,
) *Session {
	s := &Session{
		id:     id,
		auth:   auth,
		store:  store,
		maxTTL: maxTTL,
		logger: logger.With(zap.String("session_id", id)),
	}
	s.remote = factory(tokens, s.persistTokens)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Remote - клиент внешнего API этой сессии
func (s *Session) Remote() KairosSession {
	return s.remote
}

// OnReset регистрирует сброс зависимого состояния при выходе или истечении сессии
func (s *Session) OnReset(fn func()) {
	s.mu.Lock()
	s.onReset = append(s.onReset, fn)
	s.mu.Unlock()
}

func (s *Session) Authenticated() bool {
	return !s.remote.Tokens().Empty()
}

// CurrentUser возвращает копию текущего пользователя или nil
func (s *Session) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// User возвращает текущего пользователя, при необходимости загружая его
func (s *Session) User(ctx context.Context) (*domain.User, error) {
	if u := s.CurrentUser(); u != nil {
		return u, nil
	}
	return s.RefreshUser(ctx)
}

// Login получает токены, загружает пользователя и сохраняет сессию
func (s *Session) Login(ctx context.Context, req dto.LoginRequest) (*domain.User, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	tokens, err := s.auth.Login(ctx, domain.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		s.logger.Info("Login failed", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	s.remote.SetTokens(tokens)
	user, err := s.remote.CurrentUser(ctx)
	if err != nil {
		s.remote.SetTokens(domain.Tokens{})
		return nil, err
	}

	if err := s.save(ctx, tokens); err != nil {
		s.remote.SetTokens(domain.Tokens{})
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	s.logger.Info("User logged in", zap.String("user_id", user.ID))
	return s.CurrentUser(), nil
}

// Logout очищает токены и все состояние сессии
func (s *Session) Logout(ctx context.Context) error {
	s.remote.SetTokens(domain.Tokens{})
	err := s.store.Delete(ctx, s.id)
	if err != nil {
		s.logger.Error("Failed to delete session", zap.Error(err))
	}
	s.reset()
	s.logger.Info("User logged out")
	if err != nil {
		return errors.ErrCacheError.Wrap(err)
	}
	return nil
}

// RefreshUser перечитывает текущего пользователя из API
func (s *Session) RefreshUser(ctx context.Context) (*domain.User, error) {
	if !s.Authenticated() {
		return nil, errors.ErrUnauthenticated
	}

	user, err := s.remote.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return s.CurrentUser(), nil
}

// Signup регистрирует пользователя. Ошибки формы не доходят до сети.
func (s *Session) Signup(ctx context.Context, req dto.SignupRequest) (*domain.User, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.auth.Signup(ctx, domain.SignupData{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User signed up", zap.String("user_id", user.ID))
	return user, nil
}

// RequestPasswordReset отправляет письмо со ссылкой сброса. Неизвестный email не раскрывается.
func (s *Session) RequestPasswordReset(ctx context.Context, req dto.ForgotPasswordRequest) error {
	if err := validator.Validate(req); err != nil {
		return err
	}
	if err := s.auth.RequestPasswordReset(ctx, req.Email); err != nil {
		s.logger.Warn("Password reset request failed", zap.String("email", req.Email), zap.Error(err))
		return err
	}
	s.logger.Info("Password reset requested", zap.String("email", req.Email))
	return nil
}

// ResetPassword устанавливает новый пароль по токену из письма
func (s *Session) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	if err := validator.Validate(req); err != nil {
		return err
	}
	if err := s.auth.UpdatePassword(ctx, req.Token, req.Password); err != nil {
		s.logger.Info("Password reset failed", zap.Error(err))
		return err
	}
	s.logger.Info("Password updated")
	return nil
}

// VerifyEmail подтверждает email. Для вошедшего пользователя профиль перечитывается.
func (s *Session) VerifyEmail(ctx context.Context, req dto.VerifyEmailRequest) (*domain.User, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.auth.VerifyEmail(ctx, req.Token); err != nil {
		s.logger.Info("Email verification failed", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Email verified")

	if !s.Authenticated() {
		return nil, nil
	}
	user, err := s.RefreshUser(ctx)
	if err != nil {
		s.logger.Warn("Failed to reload user after verification", zap.Error(err))
		return nil, nil
	}
	return user, nil
}

// persistTokens сохраняет токены после refresh; пустые токены означают истекшую сессию
func (s *Session) persistTokens(tokens domain.Tokens) {
	ctx, cancel := context.WithTimeout(context.Background(), tokenStoreTimeout)
	defer cancel()

	if tokens.Empty() {
		if err := s.store.Delete(ctx, s.id); err != nil {
			s.logger.Error("Failed to delete expired session", zap.Error(err))
		}
		s.reset()
		s.logger.Info("Session expired")
		return
	}

	if err := s.save(ctx, tokens); err != nil {
		s.logger.Error("Failed to persist refreshed tokens", zap.Error(err))
	}
}

func (s *Session) save(ctx context.Context, tokens domain.Tokens) error {
	if err := s.store.Save(ctx, s.id, tokens, SessionTTL(tokens, s.maxTTL)); err != nil {
		return errors.ErrCacheError.Wrap(err)
	}
	return nil
}

func (s *Session) reset() {
	s.mu.Lock()
	s.user = nil
	hooks := append([]func(){}, s.onReset...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// SessionTTL - время жизни сессии по exp refresh токена, не больше maxTTL.
// Подпись не проверяется: токен выдан внешним API и используется только для срока хранения.
func SessionTTL(tokens domain.Tokens, maxTTL time.Duration) time.Duration {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokens.RefreshToken, &claims); err != nil {
		return maxTTL
	}
	if claims.ExpiresAt == nil {
		return maxTTL
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl > 0 && ttl < maxTTL {
		return ttl
	}
	return maxTTL
}
