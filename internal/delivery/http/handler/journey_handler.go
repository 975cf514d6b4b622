package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kairos-service/internal/delivery/http/middleware"
	"github.com/kairos-service/internal/pkg/errors"
	"github.com/kairos-service/internal/pkg/utils"
	"github.com/kairos-service/internal/pkg/validator"
	"github.com/kairos-service/internal/usecase/dto"
)

// JourneyHandler - путешествия текущего пользователя
type JourneyHandler struct {
	logger *zap.Logger
}

func NewJourneyHandler(logger *zap.Logger) *JourneyHandler {
	return &JourneyHandler{logger: logger}
}

// List godoc
// @Summary Список путешествий
// @Tags Journeys
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]dto.JourneyResponse}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/journeys [get]
func (h *JourneyHandler) List(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	journeys, err := ws.Journeys.List(c.UserContext())
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, dto.ToJourneyResponses(journeys), &utils.Meta{Total: len(journeys)})
}

// Active godoc
// @Summary Активное путешествие
// @Description data = null, если активного путешествия нет
// @Tags Journeys
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.JourneyResponse}
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/v1/journeys/active [get]
func (h *JourneyHandler) Active(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	journey, err := ws.Journeys.Active(c.UserContext())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.ToJourneyResponse(journey), nil)
}

// Create godoc
// @Summary Новое путешествие
// @Tags Journeys
// @Accept json
// @Produce json
// @Param request body dto.CreateJourneyRequest true "Название и описание"
// @Success 201 {object} utils.SuccessResponse{data=dto.JourneyResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/journeys [post]
func (h *JourneyHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateJourneyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	ws := middleware.GetWorkspace(c)
	journey, err := ws.Journeys.Create(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Status(fiber.StatusCreated)
	return utils.SendSuccess(c, dto.ToJourneyResponse(journey), nil)
}

// Delete godoc
// @Summary Удаление путешествия
// @Tags Journeys
// @Produce json
// @Param id path string true "ID путешествия"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/journeys/{id} [delete]
func (h *JourneyHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	ws := middleware.GetWorkspace(c)
	if err := ws.Journeys.Delete(c.UserContext(), id); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"deleted": id}, nil)
}

// SetActive godoc
// @Summary Сделать путешествие активным
// @Description Прежнее активное путешествие выключается. Маркеры на карте перезагружаются.
// @Tags Journeys
// @Produce json
// @Param id path string true "ID путешествия"
// @Success 200 {object} utils.SuccessResponse{data=dto.MapViewResponse}
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/journeys/{id}/active [put]
func (h *JourneyHandler) SetActive(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	if _, err := ws.Journeys.SetActive(c.UserContext(), c.Params("id")); err != nil {
		return utils.SendError(c, err)
	}

	view, err := ws.MapView.Load(c.UserContext())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, view, &utils.Meta{Warnings: view.Warnings})
}

// SetCompleted godoc
// @Summary Отметить путешествие завершенным
// @Tags Journeys
// @Accept json
// @Produce json
// @Param id path string true "ID путешествия"
// @Param request body dto.SetCompletedRequest true "Флаг completed"
// @Success 200 {object} utils.SuccessResponse{data=dto.JourneyResponse}
// @Router /api/v1/journeys/{id}/completed [patch]
func (h *JourneyHandler) SetCompleted(c *fiber.Ctx) error {
	var req dto.SetCompletedRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	ws := middleware.GetWorkspace(c)
	journey, err := ws.Journeys.SetCompleted(c.UserContext(), c.Params("id"), req.Completed)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.ToJourneyResponse(journey), nil)
}
