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

type MaintenanceController struct {
	maintenanceService services.MaintenanceServiceInterface
	logger             *zap.Logger
}

func NewMaintenanceController(maintenanceService services.MaintenanceServiceInterface, logger *zap.Logger) *MaintenanceController {
	return &MaintenanceController{maintenanceService: maintenanceService, logger: logger}
}

func (ctrl *MaintenanceController) GetMaintenanceRequests(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.Request().URL.Query())

	list, total, err := ctrl.maintenanceService.GetMaintenanceRequests(c.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, list, "Список заявок на обслуживание", http.StatusOK, total)
}

func (ctrl *MaintenanceController) FindMaintenanceRequest(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	req, err := ctrl.maintenanceService.FindMaintenanceRequest(c.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, req, "Заявка найдена", http.StatusOK)
}

func (ctrl *MaintenanceController) Report(c echo.Context) error {
	var payload dto.ReportMaintenanceDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	newID, err := ctrl.maintenanceService.Report(c.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, map[string]uint64{"id": newID}, "Тикет открыт", http.StatusCreated)
}

func (ctrl *MaintenanceController) Assign(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	var payload dto.AssignMaintenanceDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.maintenanceService.Assign(c.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Техник назначен", http.StatusOK)
}

func (ctrl *MaintenanceController) Complete(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	var payload dto.CompleteMaintenanceDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.maintenanceService.Complete(c.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Тикет закрыт", http.StatusOK)
}

func (ctrl *MaintenanceController) Cancel(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.maintenanceService.Cancel(c.Request().Context(), id); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Тикет отменён", http.StatusOK)
}

func (ctrl *MaintenanceController) Delete(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.maintenanceService.Delete(c.Request().Context(), id); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Тикет удалён", http.StatusOK)
}
