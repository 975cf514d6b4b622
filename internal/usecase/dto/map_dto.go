package dto

import (
	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/projection"
)

// DialogResponse - открытый диалог; Actions перечисляет доступные действия
type DialogResponse struct {
	Kind        string                 `json:"kind"`
	Marker      *MarkerResponse        `json:"marker,omitempty"`
	Coordinates *domain.Coordinates    `json:"coordinates,omitempty"`
	NewPosition *domain.Coordinates    `json:"new_position,omitempty"`
	Owner       *domain.ProfileSummary `json:"owner,omitempty"`
	Actions     []string               `json:"actions"`
}

type InteractionResponse struct {
	Mode    string              `json:"mode"`
	Dialog  *DialogResponse     `json:"dialog,omitempty"`
	Pending *domain.Coordinates `json:"pending,omitempty"`
	Warning string              `json:"warning,omitempty"`
}

// MapViewResponse - сцена карты и состояние взаимодействия
type MapViewResponse struct {
	ActiveJourney *JourneyResponse    `json:"active_journey"`
	Scene         projection.Scene    `json:"scene"`
	Interaction   InteractionResponse `json:"interaction"`
	Warnings      []string            `json:"warnings,omitempty"`
}

// MarkerMutationResponse - результат операции над маркером вместе с новой сценой
type MarkerMutationResponse struct {
	Marker *MarkerResponse  `json:"marker,omitempty"`
	View   *MapViewResponse `json:"view"`
}

// UserPageResponse - публичная страница пользователя: профиль и маршрут активного путешествия
type UserPageResponse struct {
	Profile       domain.ProfileSummary   `json:"profile"`
	ActiveJourney *JourneyResponse        `json:"active_journey"`
	Routes        []domain.ProcessedRoute `json:"routes"`
	Scene         projection.Scene        `json:"scene"`
}
