package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"labequip-system/internal/dto"
	"labequip-system/internal/repositories"
	"labequip-system/pkg/constants"
	"labequip-system/pkg/types"
	"labequip-system/pkg/utils"
)

type ReportServiceInterface interface {
	GetInventoryReport(ctx context.Context, filter types.Filter) ([]dto.InventoryReportRowDTO, uint64, error)
	GetBorrowHistoryReport(ctx context.Context, filter types.Filter, dateFrom, dateTo *time.Time) ([]dto.BorrowHistoryReportRowDTO, uint64, error)

	ExportInventoryXLSX(ctx context.Context, filter types.Filter) (*excelize.File, error)
	ExportBorrowHistoryXLSX(ctx context.Context, filter types.Filter, dateFrom, dateTo *time.Time) (*excelize.File, error)
}

type ReportService struct {
	reportRepo repositories.ReportRepositoryInterface
	logger     *zap.Logger
}

func NewReportService(reportRepo repositories.ReportRepositoryInterface, logger *zap.Logger) ReportServiceInterface {
	return &ReportService{reportRepo: reportRepo, logger: logger}
}

func (s *ReportService) GetInventoryReport(ctx context.Context, filter types.Filter) ([]dto.InventoryReportRowDTO, uint64, error) {
	if err := utils.RequirePermission(ctx, constants.PermViewReports); err != nil {
		return nil, 0, err
	}
	return s.reportRepo.GetInventoryReport(ctx, filter)
}

func (s *ReportService) GetBorrowHistoryReport(ctx context.Context, filter types.Filter, dateFrom, dateTo *time.Time) ([]dto.BorrowHistoryReportRowDTO, uint64, error) {
	if err := utils.RequirePermission(ctx, constants.PermViewReports); err != nil {
		return nil, 0, err
	}
	return s.reportRepo.GetBorrowHistoryReport(ctx, filter, dateFrom, dateTo)
}

// ExportInventoryXLSX выгружает сводный отчёт в Excel. Экспорт не
// пагинируется: выгружаются все строки, подходящие под фильтр.
func (s *ReportService) ExportInventoryXLSX(ctx context.Context, filter types.Filter) (*excelize.File, error) {
	filter.Limit = 0
	filter.Offset = 0

	rows, _, err := s.GetInventoryReport(ctx, filter)
	if err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	sheet := "Оборудование"
	file.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Наименование", "Серийный номер", "Категория", "Помещение", "Состояние", "Адм. статус", "Активная выдача", "На руках у", "Открытый тикет"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("ошибка записи заголовка отчёта: %w", err)
		}
	}

	for rowIdx, row := range rows {
		values := []interface{}{
			row.ID, row.Name, row.SerialNumber, row.CategoryName, row.RoomName.String,
			row.Condition, row.AdministrativeStatus,
			row.ActiveBorrowStatus.String, row.ActiveBorrowerFio.String, row.OpenTicketStatus.String,
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("ошибка записи строки отчёта: %w", err)
			}
		}
	}

	return file, nil
}

func (s *ReportService) ExportBorrowHistoryXLSX(ctx context.Context, filter types.Filter, dateFrom, dateTo *time.Time) (*excelize.File, error) {
	filter.Limit = 0
	filter.Offset = 0

	rows, _, err := s.GetBorrowHistoryReport(ctx, filter, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	sheet := "История выдач"
	file.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Оборудование", "Серийный номер", "Получатель", "Статус", "Дата выдачи", "Ожидаемый возврат", "Фактический возврат"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("ошибка записи заголовка отчёта: %w", err)
		}
	}

	for rowIdx, row := range rows {
		values := []interface{}{
			row.ID, row.EquipmentName, row.SerialNumber, row.BorrowerFio,
			row.Status, row.BorrowDate, row.ExpectedReturnDate, row.ActualReturnDate.String,
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("ошибка записи строки отчёта: %w", err)
			}
		}
	}

	return file, nil
}
