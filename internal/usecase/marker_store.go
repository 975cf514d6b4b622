package usecase

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/domain/repository"
	"github.com/kairos-service/internal/pkg/errors"
)

const nearbyFetchConcurrency = 4

// MarkerStore - маркеры активного путешествия и соседних путешествий одной сессии.
// Каждая смена активного путешествия начинает новое поколение; ответы на запросы
// прежнего поколения отбрасываются, даже если путешествие снова стало активным.
type MarkerStore struct {
	repo   repository.MarkerRepository
	logger *zap.Logger
	group  singleflight.Group

	mu              sync.RWMutex
	generation      uint64
	activeJourneyID string
	markers         []domain.Marker
	nearbyOrder     []string
	nearby          map[string][]domain.Marker
}

func NewMarkerStore(repo repository.MarkerRepository, logger *zap.Logger) *MarkerStore {
	return &MarkerStore{
		repo:   repo,
		logger: logger,
		nearby: make(map[string][]domain.Marker),
	}
}

// SetActiveJourney переключает активное путешествие. При смене данные прежнего сбрасываются.
func (s *MarkerStore) SetActiveJourney(journeyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeJourneyID == journeyID {
		return
	}
	s.activeJourneyID = journeyID
	s.clear()
}

// clear вызывается под s.mu
func (s *MarkerStore) clear() {
	s.generation++
	s.markers = nil
	s.nearbyOrder = nil
	s.nearby = make(map[string][]domain.Marker)
}

func (s *MarkerStore) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *MarkerStore) ActiveJourneyID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeJourneyID
}

// Reset очищает состояние (выход из сессии)
func (s *MarkerStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeJourneyID = ""
	s.clear()
}

// LoadMarkers загружает маркеры путешествия. Одновременные вызовы для одного
// путешествия объединяются в один запрос. При ошибке состояние не меняется.
func (s *MarkerStore) LoadMarkers(ctx context.Context, journeyID string) ([]domain.Marker, error) {
	gen := s.currentGeneration()
	key := "markers:" + journeyID + ":" + strconv.FormatUint(gen, 10)
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.repo.ListMarkers(ctx, journeyID)
	})
	if err != nil {
		s.logger.Error("Failed to load markers",
			zap.String("journey_id", journeyID),
			zap.Error(err))
		return nil, err
	}
	loaded := v.([]domain.Marker)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen || s.activeJourneyID != journeyID {
		s.logger.Debug("Discarding stale markers response",
			zap.String("journey_id", journeyID),
			zap.String("active_journey_id", s.activeJourneyID))
		return cloneMarkers(loaded), nil
	}

	// подтвержденные сервером маркеры заменяют список, незавершенные добавления сохраняются
	next := cloneMarkers(loaded)
	for _, m := range s.markers {
		if m.IsTemporary() {
			next = append(next, m)
		}
	}
	s.markers = next

	s.logger.Debug("Markers loaded",
		zap.String("journey_id", journeyID),
		zap.Int("count", len(loaded)),
		zap.Bool("shared", shared))
	return cloneMarkers(s.markers), nil
}

// LoadNearby загружает маркеры соседних путешествий параллельно.
// Ошибка одного путешествия дает пустой список для него и не блокирует остальные.
func (s *MarkerStore) LoadNearby(ctx context.Context, journeyID string) (map[string][]domain.Marker, error) {
	gen := s.currentGeneration()
	ids, err := s.repo.NearbyJourneyIDs(ctx, journeyID)
	if err != nil {
		s.logger.Error("Failed to load nearby journeys",
			zap.String("journey_id", journeyID),
			zap.Error(err))
		return nil, err
	}

	results := make([][]domain.Marker, len(ids))
	var g errgroup.Group
	g.SetLimit(nearbyFetchConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			markers, err := s.repo.ListMarkers(ctx, id)
			if err != nil {
				s.logger.Warn("Failed to load nearby journey markers",
					zap.String("journey_id", id),
					zap.Error(err))
				results[i] = []domain.Marker{}
				return nil
			}
			results[i] = markers
			return nil
		})
	}
	_ = g.Wait()

	nearby := make(map[string][]domain.Marker, len(ids))
	for i, id := range ids {
		nearby[id] = results[i]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen || s.activeJourneyID != journeyID {
		s.logger.Debug("Discarding stale nearby markers response",
			zap.String("journey_id", journeyID))
		return nearby, nil
	}
	s.nearbyOrder = ids
	s.nearby = nearby
	return cloneNearby(nearby), nil
}

// AddMarker добавляет маркер: сначала временная запись, после ответа сервера - настоящая.
// При ошибке временная запись удаляется.
func (s *MarkerStore) AddMarker(ctx context.Context, journeyID, ownerID string, draft domain.MarkerDraft) (*domain.Marker, error) {
	if !draft.Kind.Valid() {
		return nil, errors.ErrValidation.WithDetails(map[string]interface{}{"kind": "must be one of: past plan"})
	}
	if !draft.Coordinates.Valid() {
		return nil, errors.ErrInvalidCoordinates
	}

	tempID := domain.TempMarkerPrefix + uuid.NewString()
	placeholder := draft.ToMarker(tempID, journeyID, ownerID).Normalize()

	s.mu.Lock()
	if s.activeJourneyID == journeyID {
		s.markers = append(s.markers, placeholder)
	}
	s.mu.Unlock()

	created, err := s.repo.CreateMarker(ctx, journeyID, draft)
	if err != nil {
		s.mu.Lock()
		s.markers = removeMarker(s.markers, tempID)
		s.mu.Unlock()

		s.logger.Error("Failed to create marker, rolled back",
			zap.String("journey_id", journeyID),
			zap.Error(err))
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.ErrNetwork.Wrap(err)
	}

	if created.OwnerID == "" {
		created.OwnerID = ownerID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeJourneyID == journeyID {
		if idx := indexOf(s.markers, tempID); idx >= 0 {
			s.markers[idx] = *created
		} else if indexOf(s.markers, created.ID) < 0 {
			s.markers = append(s.markers, *created)
		}
	}

	s.logger.Info("Marker created",
		zap.String("journey_id", journeyID),
		zap.String("marker_id", created.ID))
	return created, nil
}

// UpdateMarker применяет patch. Временные и неизвестные маркеры не отправляются: STALE_MARKER.
func (s *MarkerStore) UpdateMarker(ctx context.Context, journeyID, markerID string, patch domain.MarkerPatch) (*domain.Marker, error) {
	current, err := s.confirmed(journeyID, markerID)
	if err != nil {
		return nil, err
	}

	updated := patch.Apply(current)
	if !updated.Kind.Valid() {
		return nil, errors.ErrValidation.WithDetails(map[string]interface{}{"kind": "must be one of: past plan"})
	}
	if !updated.Coordinates.Valid() {
		return nil, errors.ErrInvalidCoordinates
	}

	saved, err := s.repo.UpdateMarker(ctx, updated)
	if err != nil {
		s.logger.Error("Failed to update marker",
			zap.String("marker_id", markerID),
			zap.Error(err))
		return nil, err
	}
	if saved.OwnerID == "" {
		saved.OwnerID = current.OwnerID
	}

	s.mu.Lock()
	if idx := indexOf(s.markers, markerID); idx >= 0 {
		s.markers[idx] = *saved
	}
	s.mu.Unlock()

	return saved, nil
}

// DeleteMarker удаляет маркер. Временные и неизвестные маркеры не отправляются: STALE_MARKER.
func (s *MarkerStore) DeleteMarker(ctx context.Context, journeyID, markerID string) error {
	if _, err := s.confirmed(journeyID, markerID); err != nil {
		return err
	}

	if err := s.repo.DeleteMarker(ctx, journeyID, markerID); err != nil {
		s.logger.Error("Failed to delete marker",
			zap.String("marker_id", markerID),
			zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.markers = removeMarker(s.markers, markerID)
	s.mu.Unlock()

	s.logger.Info("Marker deleted",
		zap.String("journey_id", journeyID),
		zap.String("marker_id", markerID))
	return nil
}

// confirmed возвращает локальную копию подтвержденного маркера активного путешествия
func (s *MarkerStore) confirmed(journeyID, markerID string) (domain.Marker, error) {
	if markerID == "" || (domain.Marker{ID: markerID}).IsTemporary() {
		s.logger.Warn("Rejected mutation of unconfirmed marker", zap.String("marker_id", markerID))
		return domain.Marker{}, errors.ErrStaleMarker
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := indexOf(s.markers, markerID)
	if idx < 0 || s.markers[idx].JourneyID != journeyID {
		s.logger.Warn("Rejected mutation of unknown marker",
			zap.String("journey_id", journeyID),
			zap.String("marker_id", markerID))
		return domain.Marker{}, errors.ErrStaleMarker
	}
	return s.markers[idx], nil
}

// Marker ищет маркер среди своих и соседних
func (s *MarkerStore) Marker(markerID string) (domain.Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := indexOf(s.markers, markerID); idx >= 0 {
		return s.markers[idx], true
	}
	for _, id := range s.nearbyOrder {
		if idx := indexOf(s.nearby[id], markerID); idx >= 0 {
			return s.nearby[id][idx], true
		}
	}
	return domain.Marker{}, false
}

// Markers - копия маркеров активного путешествия
func (s *MarkerStore) Markers() []domain.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMarkers(s.markers)
}

// NearbyMarkers - копия маркеров соседних путешествий в порядке ответа API
func (s *MarkerStore) NearbyMarkers() []domain.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Marker, 0)
	for _, id := range s.nearbyOrder {
		out = append(out, s.nearby[id]...)
	}
	return out
}

// AllMarkers - свои и соседние маркеры вместе
func (s *MarkerStore) AllMarkers() []domain.Marker {
	return append(s.Markers(), s.NearbyMarkers()...)
}

func indexOf(markers []domain.Marker, id string) int {
	for i := range markers {
		if markers[i].ID == id {
			return i
		}
	}
	return -1
}

func removeMarker(markers []domain.Marker, id string) []domain.Marker {
	out := markers[:0]
	for _, m := range markers {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

func cloneMarkers(markers []domain.Marker) []domain.Marker {
	out := make([]domain.Marker, len(markers))
	copy(out, markers)
	return out
}

func cloneNearby(nearby map[string][]domain.Marker) map[string][]domain.Marker {
	out := make(map[string][]domain.Marker, len(nearby))
	for id, markers := range nearby {
		out[id] = cloneMarkers(markers)
	}
	return out
}
