package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"labequip-system/internal/services"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/utils"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

// parseDateParam разбирает дату формата 2006-01-02 из query-параметра.
func parseDateParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperrors.NewHttpError(http.StatusBadRequest,
			fmt.Sprintf("Неверный формат даты в параметре '%s', ожидается ГГГГ-ММ-ДД", name), err, nil)
	}
	return &parsed, nil
}

func (ctrl *ReportController) GetInventoryReport(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.Request().URL.Query())

	rows, total, err := ctrl.reportService.GetInventoryReport(c.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, rows, "Сводный отчёт по оборудованию", http.StatusOK, total)
}

func (ctrl *ReportController) GetBorrowHistoryReport(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.Request().URL.Query())

	dateFrom, err := parseDateParam(c, "date_from")
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	dateTo, err := parseDateParam(c, "date_to")
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	rows, total, err := ctrl.reportService.GetBorrowHistoryReport(c.Request().Context(), filter, dateFrom, dateTo)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, rows, "Отчёт по истории выдач", http.StatusOK, total)
}

func (ctrl *ReportController) ExportInventoryReport(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.Request().URL.Query())

	file, err := ctrl.reportService.ExportInventoryXLSX(c.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return ctrl.streamXLSX(c, file, "inventory")
}

func (ctrl *ReportController) ExportBorrowHistoryReport(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.Request().URL.Query())

	dateFrom, err := parseDateParam(c, "date_from")
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	dateTo, err := parseDateParam(c, "date_to")
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	file, err := ctrl.reportService.ExportBorrowHistoryXLSX(c.Request().Context(), filter, dateFrom, dateTo)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return ctrl.streamXLSX(c, file, "borrow-history")
}

func (ctrl *ReportController) streamXLSX(c echo.Context, file *excelize.File, prefix string) error {
	filename := fmt.Sprintf("%s-%s.xlsx", prefix, uuid.New().String())

	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Response().WriteHeader(http.StatusOK)

	if err := file.Write(c.Response().Writer); err != nil {
		ctrl.logger.Error("Не удалось отдать xlsx-файл", zap.String("filename", filename), zap.Error(err))
		return err
	}
	return nil
}
