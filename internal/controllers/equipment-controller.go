package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"labequip-system/internal/dto"
	"labequip-system/internal/services"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/utils"
)

type EquipmentController struct {
	equipmentService services.EquipmentServiceInterface
	cascadeService   services.CascadeDeleteServiceInterface
	logger           *zap.Logger
}

func NewEquipmentController(
	equipmentService services.EquipmentServiceInterface,
	cascadeService services.CascadeDeleteServiceInterface,
	logger *zap.Logger,
) *EquipmentController {
	return &EquipmentController{
		equipmentService: equipmentService,
		cascadeService:   cascadeService,
		logger:           logger,
	}
}

func parseIDParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewHttpError(http.StatusBadRequest, "Неверный идентификатор", err, nil)
	}
	return id, nil
}

func (ctrl *EquipmentController) GetEquipments(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.Request().URL.Query())

	list, total, err := ctrl.equipmentService.GetEquipments(c.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, list, "Список оборудования", http.StatusOK, total)
}

func (ctrl *EquipmentController) FindEquipment(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	equipment, err := ctrl.equipmentService.FindEquipment(c.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, equipment, "Оборудование найдено", http.StatusOK)
}

func (ctrl *EquipmentController) CreateEquipment(c echo.Context) error {
	var payload dto.CreateEquipmentDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	newID, err := ctrl.equipmentService.CreateEquipment(c.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, map[string]uint64{"id": newID}, "Оборудование создано", http.StatusCreated)
}

func (ctrl *EquipmentController) UpdateEquipment(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	var payload dto.UpdateEquipmentDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.equipmentService.UpdateEquipment(c.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Оборудование обновлено", http.StatusOK)
}

func (ctrl *EquipmentController) DeleteEquipment(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.equipmentService.DeleteEquipment(c.Request().Context(), id); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Оборудование удалено", http.StatusOK)
}

// CascadeDeleteEquipment удаляет оборудование со всей историей и возвращает
// сводку по снесённым строкам.
func (ctrl *EquipmentController) CascadeDeleteEquipment(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	summary, err := ctrl.cascadeService.DeleteEquipmentCascade(c.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, summary, "Оборудование удалено каскадно", http.StatusOK)
}

func (ctrl *EquipmentController) GetAvailability(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	availability, err := ctrl.equipmentService.ComputeAvailability(c.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, availability, "Доступность оборудования", http.StatusOK)
}
