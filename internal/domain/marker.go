package domain

import (
	"strings"
	"time"
)

// TempMarkerPrefix помечает маркеры, которые еще не подтверждены сервером
const TempMarkerPrefix = "temp-"

// MarkerKind - тип маркера
type MarkerKind string

const (
	MarkerKindPast MarkerKind = "past"
	MarkerKindPlan MarkerKind = "plan"
)

// Valid проверяет, что тип маркера известен
func (k MarkerKind) Valid() bool {
	return k == MarkerKindPast || k == MarkerKindPlan
}

// Marker - точка интереса на маршруте путешествия.
// Для past значим Timestamp, для plan значим EstimatedArrival.
type Marker struct {
	ID               string      `json:"id"`
	JourneyID        string      `json:"journey_id"`
	OwnerID          string      `json:"owner_id"`
	Name             string      `json:"name"`
	Notes            string      `json:"notes,omitempty"`
	Coordinates      Coordinates `json:"coordinates"`
	Kind             MarkerKind  `json:"kind"`
	Timestamp        *time.Time  `json:"timestamp,omitempty"`
	EstimatedArrival *time.Time  `json:"estimated_arrival,omitempty"`
}

// IsTemporary возвращает true для маркеров без серверного id
func (m Marker) IsTemporary() bool {
	return m.ID == "" || strings.HasPrefix(m.ID, TempMarkerPrefix)
}

// OwnedBy - чистое сравнение владельца с текущим пользователем
func (m Marker) OwnedBy(userID string) bool {
	return userID != "" && m.OwnerID == userID
}

// SortTime возвращает время, по которому маркер упорядочивается на маршруте.
// ok=false, если поле, соответствующее типу, отсутствует.
func (m Marker) SortTime() (time.Time, bool) {
	switch m.Kind {
	case MarkerKindPast:
		if m.Timestamp != nil {
			return *m.Timestamp, true
		}
	case MarkerKindPlan:
		if m.EstimatedArrival != nil {
			return *m.EstimatedArrival, true
		}
	}
	return time.Time{}, false
}

// Normalize оставляет только поле времени, соответствующее типу маркера
func (m Marker) Normalize() Marker {
	switch m.Kind {
	case MarkerKindPast:
		m.EstimatedArrival = nil
	case MarkerKindPlan:
		m.Timestamp = nil
	}
	return m
}

// MarkerDraft - данные для создания маркера (без id)
type MarkerDraft struct {
	Name        string
	Notes       string
	Coordinates Coordinates
	Kind        MarkerKind
	Time        *time.Time
}

// ToMarker собирает маркер из черновика
func (d MarkerDraft) ToMarker(id, journeyID, ownerID string) Marker {
	m := Marker{
		ID:          id,
		JourneyID:   journeyID,
		OwnerID:     ownerID,
		Name:        d.Name,
		Notes:       d.Notes,
		Coordinates: d.Coordinates,
		Kind:        d.Kind,
	}
	if d.Kind == MarkerKindPast {
		m.Timestamp = d.Time
	} else {
		m.EstimatedArrival = d.Time
	}
	return m
}

// MarkerPatch - частичное обновление маркера, nil означает "без изменений"
type MarkerPatch struct {
	Name        *string
	Notes       *string
	Coordinates *Coordinates
	Kind        *MarkerKind
	Time        *time.Time
}

// Apply применяет patch к копии маркера.
// При смене типа время переносится в поле нового типа.
func (p MarkerPatch) Apply(m Marker) Marker {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
	if p.Coordinates != nil {
		m.Coordinates = *p.Coordinates
	}
	if p.Kind != nil && *p.Kind != m.Kind {
		t, _ := m.SortTime()
		m.Kind = *p.Kind
		if !t.IsZero() {
			m.Timestamp, m.EstimatedArrival = nil, nil
			if m.Kind == MarkerKindPast {
				m.Timestamp = &t
			} else {
				m.EstimatedArrival = &t
			}
		}
	}
	if p.Time != nil {
		t := *p.Time
		if m.Kind == MarkerKindPast {
			m.Timestamp = &t
		} else {
			m.EstimatedArrival = &t
		}
	}
	return m.Normalize()
}
