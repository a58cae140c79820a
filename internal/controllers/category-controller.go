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

type CategoryController struct {
	categoryService services.CategoryServiceInterface
	logger          *zap.Logger
}

func NewCategoryController(categoryService services.CategoryServiceInterface, logger *zap.Logger) *CategoryController {
	return &CategoryController{categoryService: categoryService, logger: logger}
}

func (ctrl *CategoryController) GetCategories(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.Request().URL.Query())

	list, total, err := ctrl.categoryService.GetCategories(c.Request().Context(), uint64(filter.Limit), uint64(filter.Offset))
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, list, "Список категорий", http.StatusOK, total)
}

func (ctrl *CategoryController) FindCategory(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	category, err := ctrl.categoryService.FindCategory(c.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, category, "Категория найдена", http.StatusOK)
}

func (ctrl *CategoryController) CreateCategory(c echo.Context) error {
	var payload dto.CreateCategoryDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	newID, err := ctrl.categoryService.CreateCategory(c.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, map[string]uint64{"id": newID}, "Категория создана", http.StatusCreated)
}

func (ctrl *CategoryController) UpdateCategory(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	var payload dto.UpdateCategoryDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.categoryService.UpdateCategory(c.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Категория обновлена", http.StatusOK)
}

func (ctrl *CategoryController) DeleteCategory(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.categoryService.DeleteCategory(c.Request().Context(), id); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Категория удалена", http.StatusOK)
}
