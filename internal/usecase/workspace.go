package usecase

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/domain/repository"
	"github.com/kairos-service/internal/pkg/errors"
)

// Workspace - состояние одной браузерной сессии
type Workspace struct {
	ID          string
	Session     *Session
	Journeys    *JourneyUseCase
	Users       *UserUseCase
	Markers     *MarkerStore
	Interaction *InteractionController
	MapView     *MapViewUseCase
}

type WorkspaceConfig struct {
	SessionTTL      time.Duration
	IdleTimeout     time.Duration
	ProfileCacheTTL time.Duration
	Map             MapOptions
}

// WorkspaceRegistry хранит рабочие пространства сессий в памяти и восстанавливает их из TokenStore
type WorkspaceRegistry struct {
	auth    repository.AuthRepository
	tokens  repository.TokenStore
	cache   repository.CacheRepository
	factory KairosSessionFactory
	cfg     WorkspaceConfig
	logger  *zap.Logger

	workspaces *gocache.Cache
	group      singleflight.Group
}

func NewWorkspaceRegistry(
	auth repository.AuthRepository,
	tokens repository.TokenStore,
	cache repository.CacheRepository,
	factory KairosSessionFactory,
	cfg WorkspaceConfig,
	logger *zap.Logger,
) *WorkspaceRegistry {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	return &WorkspaceRegistry{
		auth:       auth,
		tokens:     tokens,
		cache:      cache,
		factory:    factory,
		cfg:        cfg,
		logger:     logger,
		workspaces: gocache.New(cfg.IdleTimeout, cfg.IdleTimeout/2),
	}
}

// Get возвращает рабочее пространство сессии. В памяти хранятся только сессии с токенами,
// для анонимного id каждый раз строится временное пространство.
func (r *WorkspaceRegistry) Get(ctx context.Context, sessionID string) (*Workspace, error) {
	if v, ok := r.workspaces.Get(sessionID); ok {
		ws := v.(*Workspace)
		r.workspaces.SetDefault(sessionID, ws)
		return ws, nil
	}

	v, err, _ := r.group.Do(sessionID, func() (interface{}, error) {
		if v, ok := r.workspaces.Get(sessionID); ok {
			return v, nil
		}

		tokens, err := r.tokens.Get(ctx, sessionID)
		if err != nil {
			r.logger.Error("Failed to restore session", zap.String("session_id", sessionID), zap.Error(err))
			return nil, errors.ErrCacheError.Wrap(err)
		}

		ws := r.build(sessionID, tokens)
		if !tokens.Empty() {
			r.workspaces.SetDefault(sessionID, ws)
		}
		return ws, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Workspace), nil
}

// Keep сохраняет временное пространство после входа. Уже сохраненное не заменяется.
func (r *WorkspaceRegistry) Keep(ws *Workspace) {
	if ws == nil || !ws.Session.Authenticated() {
		return
	}
	if err := r.workspaces.Add(ws.ID, ws, gocache.DefaultExpiration); err == nil {
		r.logger.Debug("Workspace kept", zap.String("session_id", ws.ID))
	}
}

// Remove забывает рабочее пространство (после выхода)
func (r *WorkspaceRegistry) Remove(sessionID string) {
	r.workspaces.Delete(sessionID)
}

// Count - число активных рабочих пространств
func (r *WorkspaceRegistry) Count() int {
	return r.workspaces.ItemCount()
}

func (r *WorkspaceRegistry) build(sessionID string, tokens domain.Tokens) *Workspace {
	logger := r.logger.With(zap.String("session_id", sessionID))

	session := NewSession(sessionID, tokens, r.auth, r.tokens, r.factory, r.cfg.SessionTTL, r.logger)
	remote := session.Remote()

	store := NewMarkerStore(remote, logger)
	users := NewUserUseCase(remote, r.cache, r.cfg.ProfileCacheTTL, r.cfg.Map, logger)
	interaction := NewInteractionController(store, session, users, logger)
	mapView := NewMapViewUseCase(session, remote, store, interaction, r.cfg.Map, logger)

	session.OnReset(store.Reset)
	session.OnReset(interaction.Reset)
	session.OnReset(mapView.Reset)

	return &Workspace{
		ID:          sessionID,
		Session:     session,
		Journeys:    NewJourneyUseCase(remote, session, store, logger),
		Users:       users,
		Markers:     store,
		Interaction: interaction,
		MapView:     mapView,
	}
}
