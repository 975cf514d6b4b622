package domain

import "time"

// Journey - путешествие пользователя, контейнер для маркеров
type Journey struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// JourneyDraft - данные для создания путешествия
type JourneyDraft struct {
	Name        string
	Description string
}

// FindActive возвращает первое активное путешествие из списка
func FindActive(journeys []Journey) (Journey, bool) {
	for _, j := range journeys {
		if j.Active {
			return j, true
		}
	}
	return Journey{}, false
}
