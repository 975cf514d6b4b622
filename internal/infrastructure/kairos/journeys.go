package kairos

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/pkg/errors"
)

func journeyPath(journeyID string) string {
	return "/api/v1/journeys/" + url.PathEscape(journeyID)
}

func (s *Session) List(ctx context.Context, userID string) ([]domain.Journey, error) {
	var dtos []journeyDTO
	if err := s.call(ctx, request{
		method:   http.MethodGet,
		path:     "/api/v1/users/" + url.PathEscape(userID) + "/journeys",
		endpoint: "journeys.list",
	}, &dtos); err != nil {
		return nil, err
	}

	journeys := make([]domain.Journey, 0, len(dtos))
	for _, d := range dtos {
		journeys = append(journeys, d.toDomain())
	}
	return journeys, nil
}

// Active возвращает активное путешествие; nil, nil если его нет (404 или null)
func (s *Session) Active(ctx context.Context, userID string) (*domain.Journey, error) {
	var raw json.RawMessage
	err := s.call(ctx, request{
		method:   http.MethodGet,
		path:     "/api/v1/users/" + url.PathEscape(userID) + "/journeys/active",
		endpoint: "journeys.active",
	}, &raw)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var dto journeyDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, errors.ErrNetwork.Wrap(err)
	}
	if dto.ID == "" {
		return nil, nil
	}
	j := dto.toDomain()
	return &j, nil
}

func (s *Session) Get(ctx context.Context, journeyID string) (*domain.Journey, error) {
	var dto journeyDTO
	if err := s.call(ctx, request{
		method:   http.MethodGet,
		path:     journeyPath(journeyID),
		endpoint: "journeys.get",
	}, &dto); err != nil {
		return nil, err
	}
	j := dto.toDomain()
	return &j, nil
}

func (s *Session) Create(ctx context.Context, draft domain.JourneyDraft) (*domain.Journey, error) {
	var dto journeyDTO
	if err := s.call(ctx, request{
		method:   http.MethodPost,
		path:     "/api/v1/journeys",
		endpoint: "journeys.create",
		body: journeyDTO{
			Name:        draft.Name,
			Description: draft.Description,
		},
	}, &dto); err != nil {
		return nil, err
	}
	j := dto.toDomain()
	return &j, nil
}

func (s *Session) Delete(ctx context.Context, journeyID string) error {
	return s.call(ctx, request{
		method:   http.MethodDelete,
		path:     journeyPath(journeyID),
		endpoint: "journeys.delete",
	}, nil)
}

// ToggleActive переключает флаг active на сервере
func (s *Session) ToggleActive(ctx context.Context, journeyID string) (*domain.Journey, error) {
	var dto journeyDTO
	if err := s.call(ctx, request{
		method:   http.MethodPatch,
		path:     journeyPath(journeyID) + "/active",
		endpoint: "journeys.toggle_active",
	}, &dto); err != nil {
		return nil, err
	}
	j := dto.toDomain()
	if j.ID == "" {
		j.ID = journeyID
	}
	return &j, nil
}

func (s *Session) SetCompleted(ctx context.Context, journeyID string, completed bool) (*domain.Journey, error) {
	var dto journeyDTO
	if err := s.call(ctx, request{
		method:   http.MethodPatch,
		path:     journeyPath(journeyID),
		endpoint: "journeys.update",
		body:     map[string]bool{"completed": completed},
	}, &dto); err != nil {
		return nil, err
	}
	j := dto.toDomain()
	if j.ID == "" {
		j.ID = journeyID
	}
	return &j, nil
}
