package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kairos-service/internal/delivery/http/middleware"
	"github.com/kairos-service/internal/pkg/errors"
	"github.com/kairos-service/internal/pkg/utils"
	"github.com/kairos-service/internal/usecase/dto"
)

type UserHandler struct {
	logger *zap.Logger
}

func NewUserHandler(logger *zap.Logger) *UserHandler {
	return &UserHandler{logger: logger}
}

// Profile godoc
// @Summary Публичный профиль пользователя
// @Tags Users
// @Produce json
// @Param id path string true "ID пользователя"
// @Success 200 {object} utils.SuccessResponse{data=domain.ProfileSummary}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/users/{id}/profile [get]
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	ws := middleware.GetWorkspace(c)
	profile, err := ws.Users.Profile(c.UserContext(), id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, profile, nil)
}

// Page godoc
// @Summary Страница пользователя
// @Description Профиль и маршрут активного путешествия пользователя
// @Tags Users
// @Produce json
// @Param id path string true "ID пользователя"
// @Success 200 {object} utils.SuccessResponse{data=dto.UserPageResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) Page(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	ws := middleware.GetWorkspace(c)
	viewer, err := ws.Session.User(c.UserContext())
	if err != nil {
		return utils.SendError(c, err)
	}

	page, err := ws.Users.Page(c.UserContext(), id, viewer.ID)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, page, nil)
}

// UpdateAccount godoc
// @Summary Настройки аккаунта
// @Tags Users
// @Accept json
// @Produce json
// @Param request body dto.UpdateAccountRequest true "Имя, страна, телефон, instagram"
// @Success 200 {object} utils.SuccessResponse{data=dto.UserResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/v1/users/me [put]
func (h *UserHandler) UpdateAccount(c *fiber.Ctx) error {
	var req dto.UpdateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	ws := middleware.GetWorkspace(c)
	current, err := ws.Session.User(c.UserContext())
	if err != nil {
		return utils.SendError(c, err)
	}

	updated, err := ws.Users.UpdateAccount(c.UserContext(), current, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	user, err := ws.Session.RefreshUser(c.UserContext())
	if err != nil {
		h.logger.Warn("Failed to reload user after update", zap.Error(err))
		user = updated
	}
	return utils.SendSuccess(c, dto.ToUserResponse(user), nil)
}

// DeleteAccount godoc
// @Summary Удаление аккаунта
// @Description Удаляет аккаунт и завершает сессию
// @Tags Users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/v1/users/me [delete]
func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	current, err := ws.Session.User(c.UserContext())
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := ws.Users.DeleteAccount(c.UserContext(), current.ID); err != nil {
		return utils.SendError(c, err)
	}

	if err := ws.Session.Logout(c.UserContext()); err != nil {
		h.logger.Warn("Logout after account deletion completed with store error", zap.Error(err))
	}
	return utils.SendSuccess(c, fiber.Map{"deleted": true}, nil)
}
