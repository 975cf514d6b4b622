package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/pkg/errors"
)

// Mode - режим карты
type Mode int

const (
	ModeIdle Mode = iota
	ModeCapturingPoint
	ModeRepositioning
)

func (m Mode) String() string {
	switch m {
	case ModeCapturingPoint:
		return "capturing_point"
	case ModeRepositioning:
		return "repositioning"
	default:
		return "idle"
	}
}

type DialogKind int

const (
	DialogNone DialogKind = iota
	DialogCreateMarker
	DialogOwnedMarker
	DialogUpdateMarker
	DialogNearbyMarker
)

func (k DialogKind) String() string {
	switch k {
	case DialogCreateMarker:
		return "create_marker"
	case DialogOwnedMarker:
		return "owned_marker"
	case DialogUpdateMarker:
		return "update_marker"
	case DialogNearbyMarker:
		return "nearby_marker"
	default:
		return "none"
	}
}

// Dialog - открытый диалог карты. Закрытый набор вариантов, nil означает DialogNone.
type Dialog interface {
	Kind() DialogKind
	dialog()
}

// CreateMarkerDialog - создание маркера в захваченной точке
type CreateMarkerDialog struct {
	Coordinates domain.Coordinates
}

// OwnedMarkerDialog - свой маркер: доступны Update и Delete
type OwnedMarkerDialog struct {
	Marker domain.Marker
}

// UpdateMarkerDialog - редактирование своего маркера.
// NewPosition заполняется после выбора новой точки на карте.
type UpdateMarkerDialog struct {
	Marker      domain.Marker
	NewPosition *domain.Coordinates
}

// NearbyMarkerDialog - чужой маркер, только просмотр с профилем владельца
type NearbyMarkerDialog struct {
	Marker domain.Marker
	Owner  *domain.ProfileSummary
}

func (CreateMarkerDialog) Kind() DialogKind { return DialogCreateMarker }
func (OwnedMarkerDialog) Kind() DialogKind  { return DialogOwnedMarker }
func (UpdateMarkerDialog) Kind() DialogKind { return DialogUpdateMarker }
func (NearbyMarkerDialog) Kind() DialogKind { return DialogNearbyMarker }

func (CreateMarkerDialog) dialog() {}
func (OwnedMarkerDialog) dialog()  {}
func (UpdateMarkerDialog) dialog() {}
func (NearbyMarkerDialog) dialog() {}

// DialogKindOf возвращает вид диалога, DialogNone для nil
func DialogKindOf(d Dialog) DialogKind {
	if d == nil {
		return DialogNone
	}
	return d.Kind()
}

// InteractionState - снимок состояния контроллера
type InteractionState struct {
	Mode    Mode
	Dialog  Dialog
	Pending *domain.Coordinates
	Warning string
}

// CurrentUserProvider отдает текущего пользователя сессии
type CurrentUserProvider interface {
	CurrentUser() *domain.User
}

// ProfileProvider отдает публичный профиль пользователя
type ProfileProvider interface {
	Profile(ctx context.Context, userID string) (*domain.ProfileSummary, error)
}

// InteractionController - машина состояний кликов по карте и маркерам.
// Запросы к API выполняются без c.mu; seq меняется при каждом открытии и закрытии
// диалога, поэтому ответ, пришедший после сброса или закрытия, не трогает новый диалог.
type InteractionController struct {
	store    *MarkerStore
	users    CurrentUserProvider
	profiles ProfileProvider
	logger   *zap.Logger

	mu      sync.Mutex
	mode    Mode
	dialog  Dialog
	seq     uint64
	busy    bool
	pending *domain.Coordinates
	warning string
}

func NewInteractionController(store *MarkerStore, users CurrentUserProvider, profiles ProfileProvider, logger *zap.Logger) *InteractionController {
	return &InteractionController{
		store:    store,
		users:    users,
		profiles: profiles,
		logger:   logger,
	}
}

// State возвращает снимок состояния
func (c *InteractionController) State() InteractionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *InteractionController) snapshot() InteractionState {
	st := InteractionState{Mode: c.mode, Dialog: c.dialog, Warning: c.warning}
	if c.pending != nil {
		p := *c.pending
		st.Pending = &p
	}
	return st
}

// openDialog и closeDialog - единственные мутаторы диалога, вызываются под c.mu
func (c *InteractionController) openDialog(d Dialog) {
	c.dialog = d
	c.seq++
	c.busy = false
	c.warning = ""
}

func (c *InteractionController) closeDialog() {
	c.dialog = nil
	c.seq++
	c.busy = false
	c.mode = ModeIdle
	c.pending = nil
}

// locked выполняет fn под c.mu и возвращает снимок состояния
func (c *InteractionController) locked(fn func() error) (InteractionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := fn()
	return c.snapshot(), err
}

// begin помечает открытый диалог занятым на время запроса, вызывается под c.mu
func (c *InteractionController) begin() (uint64, error) {
	if c.busy {
		return 0, errors.ErrInvalidState.WithMessage("Previous action is still in progress")
	}
	c.busy = true
	return c.seq, nil
}

// finish снимает пометку занятости. false - диалог за время запроса сменился.
func (c *InteractionController) finish(seq uint64) bool {
	if c.seq != seq {
		return false
	}
	c.busy = false
	return true
}

// ToggleAddPoint включает и выключает режим захвата точки
func (c *InteractionController) ToggleAddPoint() (InteractionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeCapturingPoint:
		c.mode = ModeIdle
		c.pending = nil
	case ModeIdle:
		if c.store.ActiveJourneyID() == "" {
			return c.snapshot(), errors.ErrNoActiveJourney
		}
		c.closeDialog()
		c.mode = ModeCapturingPoint
	default:
		return c.snapshot(), errors.ErrInvalidState.WithMessage("Finish repositioning before adding a point")
	}
	c.warning = ""
	return c.snapshot(), nil
}

// MapClick обрабатывает клик по карте в зависимости от режима
func (c *InteractionController) MapClick(at domain.Coordinates) (InteractionState, error) {
	if !at.Valid() {
		return c.State(), errors.ErrInvalidCoordinates
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeCapturingPoint:
		p := at
		c.pending = &p
		c.mode = ModeIdle
		c.openDialog(CreateMarkerDialog{Coordinates: at})
	case ModeRepositioning:
		d, ok := c.dialog.(UpdateMarkerDialog)
		if !ok {
			c.closeDialog()
			return c.snapshot(), errors.ErrInvalidState
		}
		p := at
		d.NewPosition = &p
		c.pending = &p
		c.mode = ModeIdle
		c.openDialog(d)
	}
	return c.snapshot(), nil
}

// ClickMarker открывает диалог маркера. Свой маркер - Update/Delete, чужой - профиль владельца.
func (c *InteractionController) ClickMarker(ctx context.Context, markerID string) (InteractionState, error) {
	var (
		marker domain.Marker
		owned  bool
		seq    uint64
	)
	st, err := c.locked(func() error {
		if c.mode != ModeIdle {
			return errors.ErrInvalidState.WithMessage("Map is capturing a point")
		}
		m, ok := c.store.Marker(markerID)
		if !ok {
			return errors.ErrNotFound.WithMessage("Marker not found")
		}
		marker = m
		if c.ownedByCurrentUser(m) {
			owned = true
			c.pending = nil
			c.openDialog(OwnedMarkerDialog{Marker: m})
		}
		seq = c.seq
		return nil
	})
	if err != nil || owned {
		return st, err
	}

	owner := c.ownerProfile(ctx, marker)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq != seq || c.mode != ModeIdle {
		c.logger.Debug("Map state changed while loading owner profile", zap.String("marker_id", markerID))
		return c.snapshot(), nil
	}
	c.pending = nil
	c.openDialog(NearbyMarkerDialog{Marker: marker, Owner: owner})
	return c.snapshot(), nil
}

func (c *InteractionController) ownerProfile(ctx context.Context, marker domain.Marker) *domain.ProfileSummary {
	if marker.OwnerID == "" || c.profiles == nil {
		return nil
	}
	profile, err := c.profiles.Profile(ctx, marker.OwnerID)
	if err != nil {
		c.logger.Warn("Failed to load marker owner profile",
			zap.String("owner_id", marker.OwnerID),
			zap.Error(err))
		return nil
	}
	return profile
}

// ConfirmCreate создает маркер в захваченной точке. При ошибке диалог остается открытым.
func (c *InteractionController) ConfirmCreate(ctx context.Context, draft domain.MarkerDraft) (*domain.Marker, InteractionState, error) {
	var (
		userID    string
		journeyID string
		seq       uint64
	)
	st, err := c.locked(func() error {
		d, ok := c.dialog.(CreateMarkerDialog)
		if !ok {
			return errors.ErrInvalidState.WithMessage("No point selected")
		}
		user := c.users.CurrentUser()
		if user == nil {
			return errors.ErrUnauthenticated
		}
		journeyID = c.store.ActiveJourneyID()
		if journeyID == "" {
			return errors.ErrNoActiveJourney
		}
		userID = user.ID
		draft.Coordinates = d.Coordinates

		var err error
		seq, err = c.begin()
		return err
	})
	if err != nil {
		return nil, st, err
	}

	created, err := c.store.AddMarker(ctx, journeyID, userID, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.finish(seq)
	if err != nil {
		return nil, c.snapshot(), err
	}
	if current {
		c.closeDialog()
	}
	return created, c.snapshot(), nil
}

// Cancel отменяет текущий шаг: захват точки, выбор новой позиции или диалог создания
func (c *InteractionController) Cancel() InteractionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeCapturingPoint:
		c.mode = ModeIdle
		c.pending = nil
	case ModeRepositioning:
		c.mode = ModeIdle
	default:
		c.closeDialog()
	}
	return c.snapshot()
}

// BeginUpdate переходит из диалога своего маркера в редактирование
func (c *InteractionController) BeginUpdate() (InteractionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.dialog.(OwnedMarkerDialog)
	if !ok || !c.ownedByCurrentUser(d.Marker) {
		return c.snapshot(), errors.ErrInvalidState.WithMessage("Only your own markers can be edited")
	}
	c.openDialog(UpdateMarkerDialog{Marker: d.Marker})
	return c.snapshot(), nil
}

// BeginReposition ждет клик по карте с новой позицией маркера
func (c *InteractionController) BeginReposition() (InteractionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.dialog.(UpdateMarkerDialog); !ok {
		return c.snapshot(), errors.ErrInvalidState.WithMessage("Open the edit dialog first")
	}
	c.mode = ModeRepositioning
	return c.snapshot(), nil
}

// ConfirmUpdate сохраняет изменения. Новая позиция из карты используется, если patch ее не задает.
func (c *InteractionController) ConfirmUpdate(ctx context.Context, patch domain.MarkerPatch) (*domain.Marker, InteractionState, error) {
	var (
		marker domain.Marker
		seq    uint64
	)
	st, err := c.locked(func() error {
		d, ok := c.dialog.(UpdateMarkerDialog)
		if !ok || !c.ownedByCurrentUser(d.Marker) {
			return errors.ErrInvalidState.WithMessage("Only your own markers can be edited")
		}
		if patch.Coordinates == nil && d.NewPosition != nil {
			p := *d.NewPosition
			patch.Coordinates = &p
		}
		marker = d.Marker

		var err error
		seq, err = c.begin()
		return err
	})
	if err != nil {
		return nil, st, err
	}

	updated, err := c.store.UpdateMarker(ctx, marker.JourneyID, marker.ID, patch)

	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.finish(seq)
	if err != nil {
		if current && errors.Is(err, errors.ErrStaleMarker) {
			c.warning = errors.ErrStaleMarker.Message
		}
		return nil, c.snapshot(), err
	}
	if current {
		c.closeDialog()
	}
	return updated, c.snapshot(), nil
}

// Delete удаляет маркер из открытого диалога.
// Неподтвержденный маркер не удаляется: только локальное предупреждение.
func (c *InteractionController) Delete(ctx context.Context) (InteractionState, error) {
	var (
		marker domain.Marker
		seq    uint64
	)
	st, err := c.locked(func() error {
		switch d := c.dialog.(type) {
		case OwnedMarkerDialog:
			marker = d.Marker
		case UpdateMarkerDialog:
			marker = d.Marker
		default:
			return errors.ErrInvalidState.WithMessage("No marker selected")
		}
		if !c.ownedByCurrentUser(marker) {
			return errors.ErrInvalidState.WithMessage("Only your own markers can be deleted")
		}
		if marker.IsTemporary() {
			c.warning = "Marker is still being saved and cannot be deleted yet"
			c.logger.Warn("Delete of unconfirmed marker ignored", zap.String("marker_id", marker.ID))
			return errors.ErrStaleMarker
		}

		var err error
		seq, err = c.begin()
		return err
	})
	if err != nil {
		return st, err
	}

	err = c.store.DeleteMarker(ctx, marker.JourneyID, marker.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.finish(seq)
	if err != nil {
		if current && errors.Is(err, errors.ErrStaleMarker) {
			c.warning = errors.ErrStaleMarker.Message
		}
		return c.snapshot(), err
	}
	if current {
		c.closeDialog()
	}
	return c.snapshot(), nil
}

// Close закрывает любой диалог и возвращает карту в Idle
func (c *InteractionController) Close() InteractionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeDialog()
	c.warning = ""
	return c.snapshot()
}

// Reset - сброс при выходе из сессии
func (c *InteractionController) Reset() {
	c.Close()
}

func (c *InteractionController) ownedByCurrentUser(m domain.Marker) bool {
	user := c.users.CurrentUser()
	if user == nil {
		return false
	}
	return m.OwnedBy(user.ID)
}
