package dto

import "github.com/kairos-service/internal/domain"

// LoginRequest - вход по email и паролю
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest - регистрация, пароль вводится дважды
type SignupRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// ForgotPasswordRequest - запрос письма со ссылкой сброса пароля
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest - новый пароль по токену из письма
type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// UpdateAccountRequest - редактируемые поля настроек аккаунта
type UpdateAccountRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=50"`
	Country   string `json:"country" validate:"max=60"`
	Phone     string `json:"phone" validate:"max=30"`
	Instagram string `json:"instagram" validate:"max=60"`
}

type UserResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Instagram  string `json:"instagram,omitempty"`
	IsVerified bool   `json:"is_verified"`
	IsActive   bool   `json:"is_active"`
}

func ToUserResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Country:    u.Country,
		Phone:      u.Phone,
		Instagram:  u.Instagram,
		IsVerified: u.IsVerified,
		IsActive:   u.IsActive,
	}
}
