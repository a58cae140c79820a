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

type MovementController struct {
	movementService services.MovementServiceInterface
	logger          *zap.Logger
}

func NewMovementController(movementService services.MovementServiceInterface, logger *zap.Logger) *MovementController {
	return &MovementController{movementService: movementService, logger: logger}
}

// RecordMove — POST /equipments/:id/movements.
func (ctrl *MovementController) RecordMove(c echo.Context) error {
	equipmentID, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	var payload dto.RecordMoveDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	record, err := ctrl.movementService.RecordMove(c.Request().Context(), equipmentID, payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, record, "Перемещение записано", http.StatusCreated)
}

// GetHistory — GET /equipments/:id/movements, свежие записи первыми.
func (ctrl *MovementController) GetHistory(c echo.Context) error {
	equipmentID, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	history, err := ctrl.movementService.GetHistory(c.Request().Context(), equipmentID)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, history, "История перемещений", http.StatusOK)
}
