package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/domain/repository"
	"github.com/kairos-service/internal/pkg/errors"
	"github.com/kairos-service/internal/pkg/validator"
	"github.com/kairos-service/internal/projection"
	"github.com/kairos-service/internal/route"
	"github.com/kairos-service/internal/usecase/dto"
)

// UserDirectory - пользователи и их активные путешествия с маркерами
type UserDirectory interface {
	repository.UserRepository
	Active(ctx context.Context, userID string) (*domain.Journey, error)
	ListMarkers(ctx context.Context, journeyID string) ([]domain.Marker, error)
}

// UserUseCase - публичные профили пользователей с кешированием и настройки аккаунта
type UserUseCase struct {
	users     UserDirectory
	cacheRepo repository.CacheRepository
	cacheTTL  time.Duration
	opts      MapOptions
	logger    *zap.Logger
}

func NewUserUseCase(users UserDirectory, cacheRepo repository.CacheRepository, cacheTTL time.Duration, opts MapOptions, logger *zap.Logger) *UserUseCase {
	return &UserUseCase{
		users:     users,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
		opts:      opts,
		logger:    logger,
	}
}

// Profile возвращает публичный профиль. Ошибки кеша не мешают запросу к API.
func (uc *UserUseCase) Profile(ctx context.Context, userID string) (*domain.ProfileSummary, error) {
	if uc.cacheRepo != nil {
		cached, err := uc.cacheRepo.GetProfile(ctx, userID)
		if err != nil {
			uc.logger.Warn("Failed to get profile from cache", zap.String("user_id", userID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := uc.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := user.Summary()
	if uc.cacheRepo != nil {
		if err := uc.cacheRepo.SetProfile(ctx, &profile, uc.cacheTTL); err != nil {
			uc.logger.Warn("Failed to cache profile", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return &profile, nil
}

// UpdateAccount сохраняет настройки текущего пользователя; email и флаги не меняются
func (uc *UserUseCase) UpdateAccount(ctx context.Context, current *domain.User, req dto.UpdateAccountRequest) (*domain.User, error) {
	if current == nil {
		return nil, errors.ErrUnauthenticated
	}
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	updated := *current
	updated.Name = strings.TrimSpace(req.Name)
	updated.Country = strings.TrimSpace(req.Country)
	updated.Phone = strings.TrimSpace(req.Phone)
	updated.Instagram = strings.TrimSpace(req.Instagram)

	user, err := uc.users.UpdateUser(ctx, updated)
	if err != nil {
		uc.logger.Error("Failed to update account", zap.String("user_id", current.ID), zap.Error(err))
		return nil, err
	}

	uc.forget(ctx, current.ID)
	uc.logger.Info("Account updated", zap.String("user_id", current.ID))
	return user, nil
}

// DeleteAccount удаляет аккаунт во внешнем API
func (uc *UserUseCase) DeleteAccount(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.ErrUnauthenticated
	}
	if err := uc.users.DeleteUser(ctx, userID); err != nil {
		uc.logger.Error("Failed to delete account", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	uc.forget(ctx, userID)
	uc.logger.Info("Account deleted", zap.String("user_id", userID))
	return nil
}

// Page - публичная страница пользователя: профиль и маршрут его активного путешествия.
// Недоступные путешествие или маркеры дают страницу без маршрута.
func (uc *UserUseCase) Page(ctx context.Context, userID, viewerID string) (*dto.UserPageResponse, error) {
	user, err := uc.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.ErrNotFound
	}

	page := &dto.UserPageResponse{
		Profile: user.Summary(),
		Routes:  []domain.ProcessedRoute{},
	}

	var markers []domain.Marker
	active, err := uc.users.Active(ctx, userID)
	if err != nil {
		uc.logger.Warn("Failed to load active journey for user page", zap.String("user_id", userID), zap.Error(err))
	} else if active != nil {
		page.ActiveJourney = dto.ToJourneyResponse(active)
		markers, err = uc.users.ListMarkers(ctx, active.ID)
		if err != nil {
			uc.logger.Warn("Failed to load markers for user page", zap.String("journey_id", active.ID), zap.Error(err))
			markers = nil
		}
		if len(markers) > 0 {
			page.Routes = route.BuildRoutes(markers)
		}
	}

	page.Scene = projection.Project(page.Routes, route.Unordered(markers), viewerID, nil, uc.opts.Projection)
	page.Scene.Viewport = projection.FitViewport(projection.SceneCoordinates(page.Scene), uc.opts.DefaultViewport, uc.opts.Viewport)
	return page, nil
}

func (uc *UserUseCase) forget(ctx context.Context, userID string) {
	if uc.cacheRepo == nil {
		return
	}
	if err := uc.cacheRepo.DeleteProfile(ctx, userID); err != nil {
		uc.logger.Warn("Failed to drop cached profile", zap.String("user_id", userID), zap.Error(err))
	}
}
