package dto

import (
	"strings"
	"time"

	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/pkg/errors"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseDate разбирает дату из формы: RFC3339, datetime-local или только дату
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, errors.ErrValidation.WithDetails(map[string]interface{}{
		"time": "must be a date (YYYY-MM-DD) or RFC3339 timestamp",
	})
}

// MapClickRequest - клик по карте
type MapClickRequest struct {
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
}

func (r MapClickRequest) Coordinates() domain.Coordinates {
	return domain.NewCoordinates(r.Lng, r.Lat)
}

// CreateMarkerRequest - подтверждение диалога создания маркера.
// Координаты берутся из точки, захваченной кликом по карте.
type CreateMarkerRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Notes string `json:"notes" validate:"max=500"`
	Kind  string `json:"kind" validate:"required,oneof=past plan"`
	// Time - timestamp для past или ETA для plan
	Time string `json:"time" validate:"required"`
}

func (r CreateMarkerRequest) ToDraft(at domain.Coordinates) (domain.MarkerDraft, error) {
	t, err := ParseDate(r.Time)
	if err != nil {
		return domain.MarkerDraft{}, err
	}
	return domain.MarkerDraft{
		Name:        strings.TrimSpace(r.Name),
		Notes:       strings.TrimSpace(r.Notes),
		Coordinates: at,
		Kind:        domain.MarkerKind(r.Kind),
		Time:        t,
	}, nil
}

// UpdateMarkerRequest - частичное обновление, отсутствующие поля не меняются
type UpdateMarkerRequest struct {
	Name  *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Notes *string  `json:"notes,omitempty" validate:"omitempty,max=500"`
	Kind  *string  `json:"kind,omitempty" validate:"omitempty,oneof=past plan"`
	Time  *string  `json:"time,omitempty"`
	Lng   *float64 `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`
	Lat   *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
}

func (r UpdateMarkerRequest) ToPatch() (domain.MarkerPatch, error) {
	var p domain.MarkerPatch
	p.Name = r.Name
	p.Notes = r.Notes
	if r.Kind != nil {
		k := domain.MarkerKind(*r.Kind)
		p.Kind = &k
	}
	if r.Time != nil {
		t, err := ParseDate(*r.Time)
		if err != nil {
			return domain.MarkerPatch{}, err
		}
		p.Time = t
	}
	if (r.Lng == nil) != (r.Lat == nil) {
		return domain.MarkerPatch{}, errors.ErrInvalidCoordinates
	}
	if r.Lng != nil {
		c := domain.NewCoordinates(*r.Lng, *r.Lat)
		p.Coordinates = &c
	}
	return p, nil
}

type MarkerResponse struct {
	ID               string             `json:"id"`
	JourneyID        string             `json:"journey_id"`
	OwnerID          string             `json:"owner_id"`
	Name             string             `json:"name"`
	Notes            string             `json:"notes,omitempty"`
	Coordinates      domain.Coordinates `json:"coordinates"`
	Kind             domain.MarkerKind  `json:"kind"`
	Timestamp        *time.Time         `json:"timestamp,omitempty"`
	EstimatedArrival *time.Time         `json:"estimated_arrival,omitempty"`
	Pending          bool               `json:"pending"`
}

func ToMarkerResponse(m domain.Marker) MarkerResponse {
	return MarkerResponse{
		ID:               m.ID,
		JourneyID:        m.JourneyID,
		OwnerID:          m.OwnerID,
		Name:             m.Name,
		Notes:            m.Notes,
		Coordinates:      m.Coordinates,
		Kind:             m.Kind,
		Timestamp:        m.Timestamp,
		EstimatedArrival: m.EstimatedArrival,
		Pending:          m.IsTemporary(),
	}
}
