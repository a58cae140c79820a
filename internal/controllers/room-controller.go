package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"labequip-system/internal/dto"
	"labequip-system/internal/services"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/utils"
)

type RoomController struct {
	roomService services.RoomServiceInterface
	logger      *zap.Logger
}

func NewRoomController(roomService services.RoomServiceInterface, logger *zap.Logger) *RoomController {
	return &RoomController{roomService: roomService, logger: logger}
}

func (ctrl *RoomController) GetRooms(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.Request().URL.Query())

	list, total, err := ctrl.roomService.GetRooms(c.Request().Context(), uint64(filter.Limit), uint64(filter.Offset))
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, list, "Список помещений", http.StatusOK, total)
}

func (ctrl *RoomController) FindRoom(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	room, err := ctrl.roomService.FindRoom(c.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, room, "Помещение найдено", http.StatusOK)
}

func (ctrl *RoomController) CreateRoom(c echo.Context) error {
	var payload dto.CreateRoomDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	newID, err := ctrl.roomService.CreateRoom(c.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, map[string]uint64{"id": newID}, "Помещение создано", http.StatusCreated)
}

func (ctrl *RoomController) UpdateRoom(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	var payload dto.UpdateRoomDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.roomService.UpdateRoom(c.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Помещение обновлено", http.StatusOK)
}

func (ctrl *RoomController) DeleteRoom(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.roomService.DeleteRoom(c.Request().Context(), id); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Помещение удалено", http.StatusOK)
}
