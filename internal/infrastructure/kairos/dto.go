package kairos

import (
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/kairos-service/internal/domain"
)

// форматы дат, которые встречаются в ответах Kairos API
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"Mon Jan 02 2006",
}

// parseTime разбирает дату; nil для пустых и нераспознанных строк
func parseTime(s *string) *time.Time {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

type tokenDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

func (d tokenDTO) toDomain() domain.Tokens {
	return domain.Tokens{AccessToken: d.AccessToken, RefreshToken: d.RefreshToken}
}

type geoPointDTO struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type markerDTO struct {
	ID            string      `json:"_id,omitempty"`
	JourneyID     string      `json:"journey_id,omitempty"`
	OwnerID       string      `json:"owner_id,omitempty"`
	Name          string      `json:"name"`
	Notes         string      `json:"notes,omitempty"`
	Coordinates   geoPointDTO `json:"coordinates"`
	MarkerType    string      `json:"marker_type"`
	Timestamp     *string     `json:"timestamp,omitempty"`
	EstimatedTime *string     `json:"estimated_time,omitempty"`
}

func (d markerDTO) toDomain() domain.Marker {
	m := domain.Marker{
		ID:               d.ID,
		JourneyID:        d.JourneyID,
		OwnerID:          d.OwnerID,
		Name:             d.Name,
		Notes:            d.Notes,
		Kind:             domain.MarkerKind(d.MarkerType),
		Timestamp:        parseTime(d.Timestamp),
		EstimatedArrival: parseTime(d.EstimatedTime),
	}
	if len(d.Coordinates.Coordinates) >= 2 {
		m.Coordinates = domain.NewCoordinates(d.Coordinates.Coordinates[0], d.Coordinates.Coordinates[1])
	}
	return m.Normalize()
}

// markerToDTO кодирует маркер для отправки: передается только время, соответствующее типу
func markerToDTO(m domain.Marker) markerDTO {
	m = m.Normalize()
	p := m.Coordinates.ToGeoPoint()
	return markerDTO{
		JourneyID:     m.JourneyID,
		OwnerID:       m.OwnerID,
		Name:          m.Name,
		Notes:         m.Notes,
		Coordinates:   geoPointDTO{Type: p.Type, Coordinates: p.Coordinates[:]},
		MarkerType:    string(m.Kind),
		Timestamp:     formatTime(m.Timestamp),
		EstimatedTime: formatTime(m.EstimatedArrival),
	}
}

type journeyDTO struct {
	ID          string  `json:"_id,omitempty"`
	UserID      string  `json:"user_id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Active      bool    `json:"active"`
	Completed   bool    `json:"completed"`
	CreatedAt   *string `json:"created_at,omitempty"`
}

func (d journeyDTO) toDomain() domain.Journey {
	j := domain.Journey{
		ID:          d.ID,
		UserID:      d.UserID,
		Name:        d.Name,
		Description: d.Description,
		Active:      d.Active,
		Completed:   d.Completed,
	}
	if t := parseTime(d.CreatedAt); t != nil {
		j.CreatedAt = *t
	}
	return j
}

type userDTO struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Country     string  `json:"country"`
	PhoneNumber string  `json:"phonenumber"`
	Phone       string  `json:"phone"`
	Instagram   string  `json:"instagram"`
	IsVerified  bool    `json:"is_verified"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   *string `json:"created_at,omitempty"`
}

func (d userDTO) toDomain() domain.User {
	u := domain.User{
		ID:         d.ID,
		Name:       d.Name,
		Email:      d.Email,
		Country:    d.Country,
		Phone:      d.PhoneNumber,
		Instagram:  d.Instagram,
		IsVerified: d.IsVerified,
		IsActive:   d.IsActive,
	}
	if u.Phone == "" {
		u.Phone = d.Phone
	}
	if t := parseTime(d.CreatedAt); t != nil {
		u.CreatedAt = *t
	}
	return u
}

// userUpdateDTO - тело PUT /users/{id}; телефон API хранит в поле phonenumber
type userUpdateDTO struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	PhoneNumber string `json:"phonenumber"`
	Instagram   string `json:"instagram"`
	IsVerified  bool   `json:"is_verified"`
	IsActive    bool   `json:"is_active"`
}

func userToUpdateDTO(u domain.User) userUpdateDTO {
	return userUpdateDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Country:     u.Country,
		PhoneNumber: u.Phone,
		Instagram:   u.Instagram,
		IsVerified:  u.IsVerified,
		IsActive:    u.IsActive,
	}
}

type signupDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// nearbyIDs приводит ответ nearby к списку id.
// API отдает либо массив строк, либо массив путешествий.
func nearbyIDs(raw json.RawMessage) ([]string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		var id string
		if err := json.Unmarshal(item, &id); err != nil {
			var j journeyDTO
			if err := json.Unmarshal(item, &j); err != nil {
				return nil, err
			}
			id = j.ID
		}
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
