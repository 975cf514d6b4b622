package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kairos-service/internal/delivery/http/middleware"
	"github.com/kairos-service/internal/pkg/errors"
	"github.com/kairos-service/internal/pkg/utils"
	"github.com/kairos-service/internal/usecase/dto"
)

// AuthHandler - вход, выход и регистрация
type AuthHandler struct {
	logger *zap.Logger
}

func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// Login godoc
// @Summary Вход
// @Description Получает токены Kairos и привязывает их к сессии браузера
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Email и пароль"
// @Success 200 {object} utils.SuccessResponse{data=dto.UserResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	ws := middleware.GetWorkspace(c)
	user, err := ws.Session.Login(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, dto.ToUserResponse(user), nil)
}

// Logout godoc
// @Summary Выход
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	if err := ws.Session.Logout(c.UserContext()); err != nil {
		h.logger.Warn("Logout completed with store error", zap.Error(err))
	}
	return utils.SendSuccess(c, fiber.Map{"logged_out": true}, nil)
}

// Signup godoc
// @Summary Регистрация
// @Description Регистрирует пользователя в Kairos. После регистрации нужен вход.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.SignupRequest true "Данные пользователя"
// @Success 201 {object} utils.SuccessResponse{data=dto.UserResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	ws := middleware.GetWorkspace(c)
	user, err := ws.Session.Signup(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Status(fiber.StatusCreated)
	return utils.SendSuccess(c, dto.ToUserResponse(user), nil)
}

// Me godoc
// @Summary Текущий пользователь
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.UserResponse}
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	user, err := ws.Session.User(c.UserContext())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.ToUserResponse(user), nil)
}

// ForgotPassword godoc
// @Summary Запрос сброса пароля
// @Description Отправляет письмо со ссылкой сброса. Ответ не зависит от того, зарегистрирован ли email.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Email"
// @Success 202 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	ws := middleware.GetWorkspace(c)
	if err := ws.Session.RequestPasswordReset(c.UserContext(), req); err != nil {
		return utils.SendError(c, err)
	}

	c.Status(fiber.StatusAccepted)
	return utils.SendSuccess(c, fiber.Map{"sent": true}, nil)
}

// ResetPassword godoc
// @Summary Новый пароль по ссылке из письма
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Токен и новый пароль"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	ws := middleware.GetWorkspace(c)
	if err := ws.Session.ResetPassword(c.UserContext(), req); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"password_updated": true}, nil)
}

// VerifyEmail godoc
// @Summary Подтверждение email
// @Description Подтверждает email по токену из письма. Вошедшему пользователю возвращается обновленный профиль.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyEmailRequest true "Токен"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	ws := middleware.GetWorkspace(c)
	user, err := ws.Session.VerifyEmail(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	resp := fiber.Map{"verified": true}
	if user != nil {
		resp["user"] = dto.ToUserResponse(user)
	}
	return utils.SendSuccess(c, resp, nil)
}
