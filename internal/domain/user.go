package domain

import "time"

// User - пользователь Kairos
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Country    string    `json:"country,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Instagram  string    `json:"instagram,omitempty"`
	IsVerified bool      `json:"is_verified"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// ProfileSummary - публичная часть профиля, показывается в диалоге чужого маркера
type ProfileSummary struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Country     string `json:"country,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Instagram   string `json:"instagram,omitempty"`
	IsVerified  bool   `json:"is_verified"`
	ProfileLink string `json:"profile_link"`
}

// Summary строит публичный профиль пользователя
func (u User) Summary() ProfileSummary {
	return ProfileSummary{
		UserID:      u.ID,
		Name:        u.Name,
		Country:     u.Country,
		Phone:       u.Phone,
		Instagram:   u.Instagram,
		IsVerified:  u.IsVerified,
		ProfileLink: "/users/?id=" + u.ID,
	}
}

// Tokens - пара токенов внешнего API
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Empty возвращает true, если access токен отсутствует
func (t Tokens) Empty() bool {
	return t.AccessToken == ""
}

// Credentials - логин и пароль
type Credentials struct {
	Email    string
	Password string
}

// SignupData - регистрация нового пользователя
type SignupData struct {
	Name     string
	Email    string
	Password string
}
