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

type BorrowController struct {
	borrowService services.BorrowServiceInterface
	logger        *zap.Logger
}

func NewBorrowController(borrowService services.BorrowServiceInterface, logger *zap.Logger) *BorrowController {
	return &BorrowController{borrowService: borrowService, logger: logger}
}

func (ctrl *BorrowController) GetBorrowRequests(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.Request().URL.Query())

	list, total, err := ctrl.borrowService.GetBorrowRequests(c.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, list, "Список заявок на выдачу", http.StatusOK, total)
}

func (ctrl *BorrowController) FindBorrowRequest(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	req, err := ctrl.borrowService.FindBorrowRequest(c.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, req, "Заявка найдена", http.StatusOK)
}

func (ctrl *BorrowController) Submit(c echo.Context) error {
	var payload dto.SubmitBorrowDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	newID, err := ctrl.borrowService.Submit(c.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, map[string]uint64{"id": newID}, "Заявка подана", http.StatusCreated)
}

func (ctrl *BorrowController) Approve(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.borrowService.Approve(c.Request().Context(), id); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Заявка одобрена", http.StatusOK)
}

func (ctrl *BorrowController) Reject(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	var payload dto.RejectBorrowDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.borrowService.Reject(c.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Заявка отклонена", http.StatusOK)
}

func (ctrl *BorrowController) Checkout(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.borrowService.Checkout(c.Request().Context(), id); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Оборудование выдано", http.StatusOK)
}

func (ctrl *BorrowController) Return(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	var payload dto.ReturnBorrowDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}

	if err := ctrl.borrowService.Return(c.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Возврат принят", http.StatusOK)
}

func (ctrl *BorrowController) Delete(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.borrowService.Delete(c.Request().Context(), id); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Заявка удалена", http.StatusOK)
}
