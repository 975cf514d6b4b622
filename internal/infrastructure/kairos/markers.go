package kairos

import (
	"context"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/pkg/errors"
)

func markerPath(journeyID, markerID string) string {
	return journeyPath(journeyID) + "/markers/" + url.PathEscape(markerID)
}

func (s *Session) ListMarkers(ctx context.Context, journeyID string) ([]domain.Marker, error) {
	var dtos []markerDTO
	if err := s.call(ctx, request{
		method:   http.MethodGet,
		path:     journeyPath(journeyID) + "/markers",
		endpoint: "markers.list",
	}, &dtos); err != nil {
		return nil, err
	}

	markers := make([]domain.Marker, 0, len(dtos))
	for _, d := range dtos {
		m := d.toDomain()
		if m.JourneyID == "" {
			m.JourneyID = journeyID
		}
		markers = append(markers, m)
	}
	return markers, nil
}

// NearbyJourneyIDs нормализует ответ nearby к списку id путешествий
func (s *Session) NearbyJourneyIDs(ctx context.Context, journeyID string) ([]string, error) {
	var raw json.RawMessage
	if err := s.call(ctx, request{
		method:   http.MethodGet,
		path:     journeyPath(journeyID) + "/journeys/nearby",
		endpoint: "journeys.nearby",
	}, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []string{}, nil
	}

	ids, err := nearbyIDs(raw)
	if err != nil {
		s.logger.Error("Unexpected nearby journeys payload",
			zap.String("journey_id", journeyID),
			zap.Error(err))
		return nil, errors.ErrNetwork.Wrap(err)
	}

	filtered := ids[:0]
	for _, id := range ids {
		if id != journeyID {
			filtered = append(filtered, id)
		}
	}
	return filtered, nil
}

func (s *Session) CreateMarker(ctx context.Context, journeyID string, draft domain.MarkerDraft) (*domain.Marker, error) {
	body := markerToDTO(draft.ToMarker("", journeyID, ""))

	var dto markerDTO
	if err := s.call(ctx, request{
		method:   http.MethodPost,
		path:     journeyPath(journeyID) + "/markers",
		endpoint: "markers.create",
		body:     body,
	}, &dto); err != nil {
		return nil, err
	}

	m := dto.toDomain()
	if m.JourneyID == "" {
		m.JourneyID = journeyID
	}
	return &m, nil
}

func (s *Session) UpdateMarker(ctx context.Context, marker domain.Marker) (*domain.Marker, error) {
	var dto markerDTO
	if err := s.call(ctx, request{
		method:   http.MethodPut,
		path:     markerPath(marker.JourneyID, marker.ID),
		endpoint: "markers.update",
		body:     markerToDTO(marker),
	}, &dto); err != nil {
		return nil, err
	}

	m := dto.toDomain()
	if m.ID == "" {
		return &marker, nil
	}
	if m.JourneyID == "" {
		m.JourneyID = marker.JourneyID
	}
	return &m, nil
}

func (s *Session) DeleteMarker(ctx context.Context, journeyID, markerID string) error {
	return s.call(ctx, request{
		method:   http.MethodDelete,
		path:     markerPath(journeyID, markerID),
		endpoint: "markers.delete",
	}, nil)
}
