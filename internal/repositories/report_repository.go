package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"labequip-system/internal/dto"
	"labequip-system/internal/infrastructure/bd"
	"labequip-system/pkg/types"
)

var inventoryReportFilterMap = map[string]string{
	"category_id":           "e.category_id",
	"room_id":               "e.room_id",
	"condition":             "e.condition",
	"administrative_status": "e.administrative_status",
}

var borrowReportFilterMap = map[string]string{
	"equipment_id": "br.equipment_id",
	"borrower_id":  "br.borrower_id",
	"status":       "br.status",
}

type ReportRepositoryInterface interface {
	GetInventoryReport(ctx context.Context, filter types.Filter) ([]dto.InventoryReportRowDTO, uint64, error)
	GetBorrowHistoryReport(ctx context.Context, filter types.Filter, dateFrom, dateTo *time.Time) ([]dto.BorrowHistoryReportRowDTO, uint64, error)
}

type ReportRepository struct {
	storage *pgxpool.Pool
}

func NewReportRepository(storage *pgxpool.Pool) ReportRepositoryInterface {
	return &ReportRepository{storage: storage}
}

// GetInventoryReport — сводный срез: оборудование + текущее помещение +
// активная выдача + открытый тикет.
func (r *ReportRepository) GetInventoryReport(ctx context.Context, filter types.Filter) ([]dto.InventoryReportRowDTO, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := bd.ApplyListParams(
		psql.Select("COUNT(*)").From("equipments e"),
		types.Filter{Filter: filter.Filter},
		inventoryReportFilterMap,
	)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса подсчёта для отчёта: %w", err)
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта строк отчёта: %w", err)
	}

	builder := psql.Select(
		"e.id", "e.name", "e.serial_number", "c.name", "r.name",
		"e.condition", "e.administrative_status",
		"ab.status", "ab.fio", "mt.status",
	).
		From("equipments e").
		LeftJoin("categories c ON e.category_id = c.id").
		LeftJoin("rooms r ON e.room_id = r.id").
		JoinClause(`LEFT JOIN LATERAL (
			SELECT br.status, u.fio
			FROM borrow_requests br
			JOIN users u ON br.borrower_id = u.id
			WHERE br.equipment_id = e.id AND br.status IN ('APPROVED', 'BORROWED', 'OVERDUE')
			LIMIT 1
		) ab ON TRUE`).
		JoinClause(`LEFT JOIN LATERAL (
			SELECT mr.status
			FROM maintenance_requests mr
			WHERE mr.equipment_id = e.id AND mr.status IN ('PENDING', 'IN_PROGRESS')
			LIMIT 1
		) mt ON TRUE`).
		OrderBy("e.name")

	builder = bd.ApplyListParams(builder, filter, inventoryReportFilterMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса отчёта по оборудованию: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения отчёта по оборудованию: %w", err)
	}
	defer rows.Close()

	list := make([]dto.InventoryReportRowDTO, 0)
	for rows.Next() {
		var row dto.InventoryReportRowDTO
		var roomName, borrowStatus, borrowerFio, ticketStatus null.String

		if err := rows.Scan(
			&row.ID, &row.Name, &row.SerialNumber, &row.CategoryName, &roomName,
			&row.Condition, &row.AdministrativeStatus,
			&borrowStatus, &borrowerFio, &ticketStatus,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования строки отчёта: %w", err)
		}

		row.RoomName = roomName
		row.ActiveBorrowStatus = borrowStatus
		row.ActiveBorrowerFio = borrowerFio
		row.OpenTicketStatus = ticketStatus
		list = append(list, row)
	}

	return list, total, nil
}

func (r *ReportRepository) GetBorrowHistoryReport(ctx context.Context, filter types.Filter, dateFrom, dateTo *time.Time) ([]dto.BorrowHistoryReportRowDTO, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	base := psql.Select().From("borrow_requests br")
	if dateFrom != nil {
		base = base.Where(sq.GtOrEq{"br.borrow_date": *dateFrom})
	}
	if dateTo != nil {
		base = base.Where(sq.LtOrEq{"br.borrow_date": *dateTo})
	}

	countBuilder := bd.ApplyListParams(
		base.Columns("COUNT(*)"),
		types.Filter{Filter: filter.Filter},
		borrowReportFilterMap,
	)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса подсчёта истории выдач: %w", err)
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта истории выдач: %w", err)
	}

	builder := base.Columns(
		"br.id", "e.name", "e.serial_number", "u.fio",
		"CASE WHEN br.status = 'BORROWED' AND br.expected_return_date < NOW() THEN 'OVERDUE' ELSE br.status END",
		"br.borrow_date", "br.expected_return_date", "br.actual_return_date",
	).
		LeftJoin("equipments e ON br.equipment_id = e.id").
		LeftJoin("users u ON br.borrower_id = u.id").
		OrderBy("br.borrow_date DESC")

	builder = bd.ApplyListParams(builder, filter, borrowReportFilterMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса истории выдач: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения отчёта по истории выдач: %w", err)
	}
	defer rows.Close()

	list := make([]dto.BorrowHistoryReportRowDTO, 0)
	for rows.Next() {
		var row dto.BorrowHistoryReportRowDTO
		var borrowDate, expectedReturnDate time.Time
		var actualReturnDate null.Time

		if err := rows.Scan(
			&row.ID, &row.EquipmentName, &row.SerialNumber, &row.BorrowerFio,
			&row.Status, &borrowDate, &expectedReturnDate, &actualReturnDate,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования строки истории выдач: %w", err)
		}

		row.BorrowDate = borrowDate.Format("2006-01-02")
		row.ExpectedReturnDate = expectedReturnDate.Format("2006-01-02")
		if actualReturnDate.Valid {
			row.ActualReturnDate = null.StringFrom(actualReturnDate.Time.Format("2006-01-02"))
		}
		list = append(list, row)
	}

	return list, total, nil
}
