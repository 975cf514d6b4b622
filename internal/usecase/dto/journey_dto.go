package dto

import (
	"time"

	"github.com/kairos-service/internal/domain"
)

// CreateJourneyRequest - создание путешествия
type CreateJourneyRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=50"`
	Description string `json:"description" validate:"max=200"`
}

type SetCompletedRequest struct {
	Completed bool `json:"completed"`
}

type JourneyResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Active      bool       `json:"active"`
	Completed   bool       `json:"completed"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

func ToJourneyResponse(j *domain.Journey) *JourneyResponse {
	if j == nil {
		return nil
	}
	resp := &JourneyResponse{
		ID:          j.ID,
		UserID:      j.UserID,
		Name:        j.Name,
		Description: j.Description,
		Active:      j.Active,
		Completed:   j.Completed,
	}
	if !j.CreatedAt.IsZero() {
		t := j.CreatedAt
		resp.CreatedAt = &t
	}
	return resp
}

func ToJourneyResponses(journeys []domain.Journey) []JourneyResponse {
	out := make([]JourneyResponse, 0, len(journeys))
	for i := range journeys {
		out = append(out, *ToJourneyResponse(&journeys[i]))
	}
	return out
}
