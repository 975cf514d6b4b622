package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/domain/repository"
	"github.com/kairos-service/internal/projection"
	"github.com/kairos-service/internal/route"
	"github.com/kairos-service/internal/usecase/dto"
)

const warnNearbyUnavailable = "Nearby journeys are temporarily unavailable"

// MapOptions - параметры отрисовки карты
type MapOptions struct {
	Projection      projection.Options
	Viewport        projection.ViewportOptions
	DefaultViewport projection.Viewport
}

// SessionUser - текущий пользователь с ленивой загрузкой
type SessionUser interface {
	UserResolver
	CurrentUserProvider
}

// MapViewUseCase собирает данные карты: загрузка по явным триггерам
// (вход на карту, обновление) и проекция из того, что уже загружено.
type MapViewUseCase struct {
	users       SessionUser
	journeys    repository.JourneyRepository
	store       *MarkerStore
	interaction *InteractionController
	opts        MapOptions
	logger      *zap.Logger

	mu            sync.Mutex
	viewport      projection.Viewport
	activeJourney *domain.Journey
	warnings      []string
}

func NewMapViewUseCase(
	users SessionUser,
	journeys repository.JourneyRepository,
	store *MarkerStore,
	interaction *InteractionController,
	opts MapOptions,
	logger *zap.Logger,
) *MapViewUseCase {
	return &MapViewUseCase{
		users:       users,
		journeys:    journeys,
		store:       store,
		interaction: interaction,
		opts:        opts,
		logger:      logger,
		viewport:    opts.DefaultViewport,
	}
}

// Load - вход на карту: активное путешествие, его маркеры и соседние маркеры
func (uc *MapViewUseCase) Load(ctx context.Context) (*dto.MapViewResponse, error) {
	user, err := uc.users.User(ctx)
	if err != nil {
		return nil, err
	}

	active, err := uc.journeys.Active(ctx, user.ID)
	if err != nil {
		uc.logger.Error("Failed to load active journey", zap.Error(err))
		return nil, err
	}

	uc.mu.Lock()
	uc.activeJourney = active
	uc.warnings = nil
	uc.mu.Unlock()

	if active == nil {
		uc.store.SetActiveJourney("")
		uc.fit()
		return uc.View(), nil
	}

	uc.store.SetActiveJourney(active.ID)
	if err := uc.loadMarkers(ctx, active.ID); err != nil {
		return nil, err
	}
	uc.fit()
	return uc.View(), nil
}

// Refresh перечитывает маркеры текущего активного путешествия
func (uc *MapViewUseCase) Refresh(ctx context.Context) (*dto.MapViewResponse, error) {
	journeyID := uc.store.ActiveJourneyID()
	if journeyID == "" {
		return uc.Load(ctx)
	}

	uc.mu.Lock()
	uc.warnings = nil
	uc.mu.Unlock()

	if err := uc.loadMarkers(ctx, journeyID); err != nil {
		return nil, err
	}
	uc.fit()
	return uc.View(), nil
}

func (uc *MapViewUseCase) loadMarkers(ctx context.Context, journeyID string) error {
	if _, err := uc.store.LoadMarkers(ctx, journeyID); err != nil {
		return err
	}
	if _, err := uc.store.LoadNearby(ctx, journeyID); err != nil {
		uc.mu.Lock()
		uc.warnings = append(uc.warnings, warnNearbyUnavailable)
		uc.mu.Unlock()
	}
	return nil
}

// Routes - обработанные маршруты всех загруженных путешествий
func (uc *MapViewUseCase) Routes() []domain.ProcessedRoute {
	return route.BuildRoutes(uc.store.AllMarkers())
}

// View строит сцену из текущего состояния без запросов к API
func (uc *MapViewUseCase) View() *dto.MapViewResponse {
	scene, state := uc.project()

	uc.mu.Lock()
	defer uc.mu.Unlock()

	scene.Viewport = uc.viewport
	resp := &dto.MapViewResponse{
		Scene:       scene,
		Interaction: ToInteractionResponse(state),
		Warnings:    append([]string(nil), uc.warnings...),
	}
	if uc.activeJourney != nil && uc.activeJourney.ID == uc.store.ActiveJourneyID() {
		resp.ActiveJourney = dto.ToJourneyResponse(uc.activeJourney)
	}
	return resp
}

func (uc *MapViewUseCase) project() (projection.Scene, InteractionState) {
	all := uc.store.AllMarkers()
	state := uc.interaction.State()

	viewerID := ""
	if user := uc.users.CurrentUser(); user != nil {
		viewerID = user.ID
	}

	scene := projection.Project(route.BuildRoutes(all), route.Unordered(all), viewerID, state.Pending, uc.opts.Projection)
	return scene, state
}

// fit подгоняет viewport под все загруженные точки
func (uc *MapViewUseCase) fit() {
	scene, _ := uc.project()

	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.viewport = projection.FitViewport(projection.SceneCoordinates(scene), uc.viewport, uc.opts.Viewport)
}

// Reset - сброс при выходе из сессии
func (uc *MapViewUseCase) Reset() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.viewport = uc.opts.DefaultViewport
	uc.activeJourney = nil
	uc.warnings = nil
}

// ToInteractionResponse переводит состояние контроллера в ответ API
func ToInteractionResponse(st InteractionState) dto.InteractionResponse {
	resp := dto.InteractionResponse{
		Mode:    st.Mode.String(),
		Pending: st.Pending,
		Warning: st.Warning,
	}

	switch d := st.Dialog.(type) {
	case nil:
	case CreateMarkerDialog:
		c := d.Coordinates
		resp.Dialog = &dto.DialogResponse{
			Kind:        d.Kind().String(),
			Coordinates: &c,
			Actions:     []string{"confirm_create", "cancel"},
		}
	case OwnedMarkerDialog:
		m := dto.ToMarkerResponse(d.Marker)
		resp.Dialog = &dto.DialogResponse{
			Kind:    d.Kind().String(),
			Marker:  &m,
			Actions: []string{"update", "delete", "close"},
		}
	case UpdateMarkerDialog:
		m := dto.ToMarkerResponse(d.Marker)
		resp.Dialog = &dto.DialogResponse{
			Kind:        d.Kind().String(),
			Marker:      &m,
			NewPosition: d.NewPosition,
			Actions:     []string{"reposition", "confirm_update", "delete", "close"},
		}
	case NearbyMarkerDialog:
		m := dto.ToMarkerResponse(d.Marker)
		resp.Dialog = &dto.DialogResponse{
			Kind:    d.Kind().String(),
			Marker:  &m,
			Owner:   d.Owner,
			Actions: []string{"close"},
		}
	}
	return resp
}
