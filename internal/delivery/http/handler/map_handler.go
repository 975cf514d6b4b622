package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kairos-service/internal/delivery/http/middleware"
	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/pkg/errors"
	"github.com/kairos-service/internal/pkg/utils"
	"github.com/kairos-service/internal/pkg/validator"
	"github.com/kairos-service/internal/usecase"
	"github.com/kairos-service/internal/usecase/dto"
)

// MapHandler - карта путешествия: сцена и взаимодействие с маркерами
type MapHandler struct {
	logger *zap.Logger
}

func NewMapHandler(logger *zap.Logger) *MapHandler {
	return &MapHandler{logger: logger}
}

// Load godoc
// @Summary Открыть карту
// @Description Загружает активное путешествие, его маркеры и маркеры соседних путешествий, возвращает сцену
// @Tags Map
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.MapViewResponse}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/map [get]
func (h *MapHandler) Load(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	view, err := ws.MapView.Load(c.UserContext())
	if err != nil {
		return utils.SendError(c, err)
	}
	return sendView(c, view)
}

// Refresh godoc
// @Summary Обновить маркеры
// @Tags Map
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.MapViewResponse}
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/map/refresh [post]
func (h *MapHandler) Refresh(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	view, err := ws.MapView.Refresh(c.UserContext())
	if err != nil {
		return utils.SendError(c, err)
	}
	return sendView(c, view)
}

// Routes godoc
// @Summary Обработанные маршруты
// @Description Упорядоченные маршруты загруженных путешествий без запросов к Kairos
// @Tags Map
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]domain.ProcessedRoute}
// @Router /api/v1/map/routes [get]
func (h *MapHandler) Routes(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	routes := ws.MapView.Routes()
	return utils.SendSuccess(c, routes, &utils.Meta{Total: len(routes)})
}

// ToggleAddPoint godoc
// @Summary Режим добавления точки
// @Tags Map
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.MapViewResponse}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/map/add-point [post]
func (h *MapHandler) ToggleAddPoint(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	_, err := ws.Interaction.ToggleAddPoint()
	return h.respond(c, ws, err)
}

// Click godoc
// @Summary Клик по карте
// @Tags Map
// @Accept json
// @Produce json
// @Param request body dto.MapClickRequest true "Координаты клика"
// @Success 200 {object} utils.SuccessResponse{data=dto.MapViewResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/map/click [post]
func (h *MapHandler) Click(c *fiber.Ctx) error {
	var req dto.MapClickRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	ws := middleware.GetWorkspace(c)
	_, err := ws.Interaction.MapClick(req.Coordinates())
	return h.respond(c, ws, err)
}

// ClickMarker godoc
// @Summary Клик по маркеру
// @Description Свой маркер открывает диалог с Update/Delete, чужой - профиль владельца
// @Tags Map
// @Produce json
// @Param id path string true "ID маркера"
// @Success 200 {object} utils.SuccessResponse{data=dto.MapViewResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/map/markers/{id}/click [post]
func (h *MapHandler) ClickMarker(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	_, err := ws.Interaction.ClickMarker(c.UserContext(), c.Params("id"))
	return h.respond(c, ws, err)
}

// ConfirmCreate godoc
// @Summary Создать маркер в выбранной точке
// @Tags Map
// @Accept json
// @Produce json
// @Param request body dto.CreateMarkerRequest true "Данные маркера"
// @Success 201 {object} utils.SuccessResponse{data=dto.MarkerMutationResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/map/dialog/confirm-create [post]
func (h *MapHandler) ConfirmCreate(c *fiber.Ctx) error {
	var req dto.CreateMarkerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	// координаты берутся из диалога, точку выбирает клик по карте
	draft, err := req.ToDraft(domain.Coordinates{})
	if err != nil {
		return utils.SendError(c, err)
	}

	ws := middleware.GetWorkspace(c)
	marker, _, err := ws.Interaction.ConfirmCreate(c.UserContext(), draft)
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Status(fiber.StatusCreated)
	return sendMutation(c, ws, marker)
}

// BeginUpdate godoc
// @Summary Открыть редактирование своего маркера
// @Tags Map
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.MapViewResponse}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/map/dialog/update [post]
func (h *MapHandler) BeginUpdate(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	_, err := ws.Interaction.BeginUpdate()
	return h.respond(c, ws, err)
}

// BeginReposition godoc
// @Summary Выбрать новую позицию маркера
// @Description Следующий клик по карте задает новую позицию в диалоге редактирования
// @Tags Map
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.MapViewResponse}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/map/dialog/reposition [post]
func (h *MapHandler) BeginReposition(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	_, err := ws.Interaction.BeginReposition()
	return h.respond(c, ws, err)
}

// ConfirmUpdate godoc
// @Summary Сохранить изменения маркера
// @Tags Map
// @Accept json
// @Produce json
// @Param request body dto.UpdateMarkerRequest true "Измененные поля"
// @Success 200 {object} utils.SuccessResponse{data=dto.MarkerMutationResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/map/dialog/confirm-update [post]
func (h *MapHandler) ConfirmUpdate(c *fiber.Ctx) error {
	var req dto.UpdateMarkerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	patch, err := req.ToPatch()
	if err != nil {
		return utils.SendError(c, err)
	}

	ws := middleware.GetWorkspace(c)
	marker, _, err := ws.Interaction.ConfirmUpdate(c.UserContext(), patch)
	if err != nil {
		return utils.SendError(c, err)
	}
	return sendMutation(c, ws, marker)
}

// Delete godoc
// @Summary Удалить маркер из открытого диалога
// @Tags Map
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.MapViewResponse}
// @Failure 409 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/map/dialog/delete [post]
func (h *MapHandler) Delete(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	_, err := ws.Interaction.Delete(c.UserContext())
	return h.respond(c, ws, err)
}

// Cancel godoc
// @Summary Отменить текущий шаг
// @Tags Map
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.MapViewResponse}
// @Router /api/v1/map/dialog/cancel [post]
func (h *MapHandler) Cancel(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	ws.Interaction.Cancel()
	return sendView(c, ws.MapView.View())
}

// Close godoc
// @Summary Закрыть диалог
// @Tags Map
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.MapViewResponse}
// @Router /api/v1/map/dialog/close [post]
func (h *MapHandler) Close(c *fiber.Ctx) error {
	ws := middleware.GetWorkspace(c)
	ws.Interaction.Close()
	return sendView(c, ws.MapView.View())
}

func (h *MapHandler) respond(c *fiber.Ctx, ws *usecase.Workspace, err error) error {
	if err != nil {
		h.logger.Debug("Map interaction rejected",
			zap.String("session_id", ws.ID),
			zap.Error(err))
		return utils.SendError(c, err)
	}
	return sendView(c, ws.MapView.View())
}

func sendView(c *fiber.Ctx, view *dto.MapViewResponse) error {
	var meta *utils.Meta
	if len(view.Warnings) > 0 {
		meta = &utils.Meta{Warnings: view.Warnings}
	}
	return utils.SendSuccess(c, view, meta)
}

func sendMutation(c *fiber.Ctx, ws *usecase.Workspace, marker *domain.Marker) error {
	resp := dto.MarkerMutationResponse{View: ws.MapView.View()}
	if marker != nil {
		m := dto.ToMarkerResponse(*marker)
		resp.Marker = &m
	}
	return utils.SendSuccess(c, resp, nil)
}
