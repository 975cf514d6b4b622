package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/domain/repository"
	"github.com/kairos-service/internal/pkg/validator"
	"github.com/kairos-service/internal/usecase/dto"
)

// UserResolver отдает текущего пользователя, загружая его при необходимости
type UserResolver interface {
	User(ctx context.Context) (*domain.User, error)
}

// JourneyUseCase - путешествия текущего пользователя
type JourneyUseCase struct {
	repo   repository.JourneyRepository
	users  UserResolver
	store  *MarkerStore
	logger *zap.Logger
}

func NewJourneyUseCase(repo repository.JourneyRepository, users UserResolver, store *MarkerStore, logger *zap.Logger) *JourneyUseCase {
	return &JourneyUseCase{
		repo:   repo,
		users:  users,
		store:  store,
		logger: logger,
	}
}

func (uc *JourneyUseCase) List(ctx context.Context) ([]domain.Journey, error) {
	user, err := uc.users.User(ctx)
	if err != nil {
		return nil, err
	}
	return uc.repo.List(ctx, user.ID)
}

// Active возвращает активное путешествие или nil
func (uc *JourneyUseCase) Active(ctx context.Context) (*domain.Journey, error) {
	user, err := uc.users.User(ctx)
	if err != nil {
		return nil, err
	}
	return uc.repo.Active(ctx, user.ID)
}

func (uc *JourneyUseCase) Get(ctx context.Context, journeyID string) (*domain.Journey, error) {
	return uc.repo.Get(ctx, journeyID)
}

func (uc *JourneyUseCase) Create(ctx context.Context, req dto.CreateJourneyRequest) (*domain.Journey, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	journey, err := uc.repo.Create(ctx, domain.JourneyDraft{Name: req.Name, Description: req.Description})
	if err != nil {
		uc.logger.Error("Failed to create journey", zap.Error(err))
		return nil, err
	}

	uc.logger.Info("Journey created", zap.String("journey_id", journey.ID))
	return journey, nil
}

func (uc *JourneyUseCase) Delete(ctx context.Context, journeyID string) error {
	if err := uc.repo.Delete(ctx, journeyID); err != nil {
		uc.logger.Error("Failed to delete journey", zap.String("journey_id", journeyID), zap.Error(err))
		return err
	}
	if uc.store.ActiveJourneyID() == journeyID {
		uc.store.SetActiveJourney("")
	}
	return nil
}

// SetActive делает путешествие активным. Прежнее активное сначала выключается,
// и только после ответа сервера включается новое. При ошибке состояние перечитывается.
func (uc *JourneyUseCase) SetActive(ctx context.Context, journeyID string) (*domain.Journey, error) {
	current, err := uc.Active(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil && current.ID == journeyID {
		uc.store.SetActiveJourney(journeyID)
		return current, nil
	}

	if current != nil {
		if _, err := uc.repo.ToggleActive(ctx, current.ID); err != nil {
			uc.logger.Error("Failed to deactivate journey",
				zap.String("journey_id", current.ID),
				zap.Error(err))
			uc.reload(ctx)
			return nil, err
		}
	}

	activated, err := uc.repo.ToggleActive(ctx, journeyID)
	if err != nil {
		uc.logger.Error("Failed to activate journey",
			zap.String("journey_id", journeyID),
			zap.Error(err))
		uc.reload(ctx)
		return nil, err
	}

	uc.store.SetActiveJourney(journeyID)
	uc.logger.Info("Active journey changed", zap.String("journey_id", journeyID))
	return activated, nil
}

// ToggleActive переключает флаг active без выключения других путешествий
func (uc *JourneyUseCase) ToggleActive(ctx context.Context, journeyID string) (*domain.Journey, error) {
	journey, err := uc.repo.ToggleActive(ctx, journeyID)
	if err != nil {
		return nil, err
	}

	switch {
	case journey.Active:
		uc.store.SetActiveJourney(journeyID)
	case uc.store.ActiveJourneyID() == journeyID:
		uc.store.SetActiveJourney("")
	}
	return journey, nil
}

func (uc *JourneyUseCase) SetCompleted(ctx context.Context, journeyID string, completed bool) (*domain.Journey, error) {
	journey, err := uc.repo.SetCompleted(ctx, journeyID, completed)
	if err != nil {
		uc.logger.Error("Failed to update journey",
			zap.String("journey_id", journeyID),
			zap.Error(err))
		return nil, err
	}
	return journey, nil
}

// reload синхронизирует активное путешествие с сервером после неудачного переключения
func (uc *JourneyUseCase) reload(ctx context.Context) {
	active, err := uc.Active(ctx)
	if err != nil {
		uc.logger.Warn("Failed to reload active journey", zap.Error(err))
		return
	}
	if active == nil {
		uc.store.SetActiveJourney("")
		return
	}
	uc.store.SetActiveJourney(active.ID)
}
