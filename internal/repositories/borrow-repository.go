package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"labequip-system/internal/dto"
	"labequip-system/internal/entities"
	"labequip-system/internal/infrastructure/bd"
	"labequip-system/pkg/constants"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/types"
)

// Просроченность — производное состояние: BORROWED с истёкшей датой возврата
// читается как OVERDUE даже до того, как фоновая зачистка обновит строку.
const borrowDerivedStatus = `CASE WHEN br.status = 'BORROWED' AND br.expected_return_date < NOW() THEN 'OVERDUE' ELSE br.status END`

var borrowAllowedFilterMap = map[string]string{
	"equipment_id": "br.equipment_id",
	"borrower_id":  "br.borrower_id",
	"status":       "br.status",
	"created_at":   "br.created_at",
	"borrow_date":  "br.borrow_date",
}

type BorrowRepositoryInterface interface {
	GetBorrowRequests(ctx context.Context, filter types.Filter) ([]dto.BorrowRequestDTO, uint64, error)
	FindBorrowRequest(ctx context.Context, id uint64) (*entities.BorrowRequest, error)

	// FindActiveByEquipmentTx возвращает активную заявку (APPROVED/BORROWED/OVERDUE)
	// по оборудованию или nil. Вызывается под блокировкой строки оборудования.
	FindActiveByEquipmentTx(ctx context.Context, q Querier, equipmentID uint64) (*entities.BorrowRequest, error)
	CreateBorrowRequestTx(ctx context.Context, q Querier, req entities.BorrowRequest) (uint64, error)

	// ApproveTx выполняется внутри транзакции: одобрение обязано идти под
	// блокировкой строки оборудования, иначе две PENDING-заявки на одну
	// единицу могут быть одобрены параллельно.
	ApproveTx(ctx context.Context, q Querier, id uint64, approverID uint64) error
	Reject(ctx context.Context, id uint64, approverID uint64) error
	Checkout(ctx context.Context, id uint64) error
	Return(ctx context.Context, id uint64, conditionAfter *string) error
	DeleteGuarded(ctx context.Context, id uint64, allowedStatuses []string) error

	PromoteOverdue(ctx context.Context, now time.Time) (int64, error)
	DeleteAllForEquipmentTx(ctx context.Context, q Querier, equipmentID uint64) (int64, error)
}

type BorrowRepository struct {
	storage *pgxpool.Pool
}

func NewBorrowRepository(storage *pgxpool.Pool) BorrowRepositoryInterface {
	return &BorrowRepository{storage: storage}
}

func (r *BorrowRepository) GetBorrowRequests(ctx context.Context, filter types.Filter) ([]dto.BorrowRequestDTO, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := bd.ApplyListParams(
		psql.Select("COUNT(*)").From("borrow_requests br"),
		types.Filter{Filter: filter.Filter},
		borrowAllowedFilterMap,
	)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса подсчёта заявок на выдачу: %w", err)
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта заявок на выдачу: %w", err)
	}

	builder := psql.Select(
		"br.id", borrowDerivedStatus+" AS status",
		"br.borrow_date", "br.expected_return_date", "br.actual_return_date",
		"br.purpose", "br.condition_before", "br.condition_after",
		"br.created_at", "br.updated_at",
		"e.id", "e.name", "e.serial_number",
		"u.id", "u.fio",
		"a.id", "a.fio",
	).
		From("borrow_requests br").
		LeftJoin("equipments e ON br.equipment_id = e.id").
		LeftJoin("users u ON br.borrower_id = u.id").
		LeftJoin("users a ON br.approved_by = a.id")

	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("br.created_at DESC")
	}
	builder = bd.ApplyListParams(builder, filter, borrowAllowedFilterMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса списка заявок на выдачу: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка заявок на выдачу: %w", err)
	}
	defer rows.Close()

	list := make([]dto.BorrowRequestDTO, 0)
	for rows.Next() {
		var item dto.BorrowRequestDTO
		var borrowDate, expectedReturnDate, createdAt, updatedAt time.Time
		var actualReturnDate sql.NullTime
		var conditionBefore, conditionAfter sql.NullString
		var approverID sql.NullInt64
		var approverFio sql.NullString

		if err := rows.Scan(
			&item.ID, &item.Status,
			&borrowDate, &expectedReturnDate, &actualReturnDate,
			&item.Purpose, &conditionBefore, &conditionAfter,
			&createdAt, &updatedAt,
			&item.Equipment.ID, &item.Equipment.Name, &item.Equipment.SerialNumber,
			&item.Borrower.ID, &item.Borrower.Fio,
			&approverID, &approverFio,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования заявки на выдачу: %w", err)
		}

		item.BorrowDate = borrowDate.Format("2006-01-02")
		item.ExpectedReturnDate = expectedReturnDate.Format("2006-01-02")
		if actualReturnDate.Valid {
			item.ActualReturnDate = null.StringFrom(actualReturnDate.Time.Format("2006-01-02"))
		}
		if conditionBefore.Valid {
			item.ConditionBefore = null.StringFrom(conditionBefore.String)
		}
		if conditionAfter.Valid {
			item.ConditionAfter = null.StringFrom(conditionAfter.String)
		}
		if approverID.Valid {
			item.ApprovedBy = &dto.ShortUserDTO{ID: uint64(approverID.Int64), Fio: approverFio.String}
		}
		item.CreatedAt = createdAt.Local().Format("2006-01-02 15:04:05")
		item.UpdatedAt = updatedAt.Local().Format("2006-01-02 15:04:05")

		list = append(list, item)
	}

	return list, total, nil
}

func (r *BorrowRepository) FindBorrowRequest(ctx context.Context, id uint64) (*entities.BorrowRequest, error) {
	query := `
		SELECT br.id, br.equipment_id, br.borrower_id,
		       ` + borrowDerivedStatus + ` AS status,
		       br.borrow_date, br.expected_return_date, br.actual_return_date,
		       br.approved_by, br.approved_at, br.purpose,
		       br.condition_before, br.condition_after,
		       br.created_at, br.updated_at
		FROM borrow_requests br
		WHERE br.id = $1`

	var req entities.BorrowRequest
	var actualReturnDate, approvedAt sql.NullTime
	var approvedBy sql.NullInt64
	var conditionBefore, conditionAfter sql.NullString
	var createdAt, updatedAt time.Time

	err := r.storage.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.EquipmentID, &req.BorrowerID,
		&req.Status,
		&req.BorrowDate, &req.ExpectedReturnDate, &actualReturnDate,
		&approvedBy, &approvedAt, &req.Purpose,
		&conditionBefore, &conditionAfter,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования заявки на выдачу: %w", err)
	}

	if actualReturnDate.Valid {
		req.ActualReturnDate = &actualReturnDate.Time
	}
	if approvedBy.Valid {
		ab := uint64(approvedBy.Int64)
		req.ApprovedBy = &ab
	}
	if approvedAt.Valid {
		req.ApprovedAt = &approvedAt.Time
	}
	if conditionBefore.Valid {
		req.ConditionBefore = &conditionBefore.String
	}
	if conditionAfter.Valid {
		req.ConditionAfter = &conditionAfter.String
	}
	req.CreatedAt = &createdAt
	req.UpdatedAt = &updatedAt

	return &req, nil
}

func (r *BorrowRepository) FindActiveByEquipmentTx(ctx context.Context, q Querier, equipmentID uint64) (*entities.BorrowRequest, error) {
	query := `
		SELECT br.id, br.equipment_id, br.borrower_id,
		       ` + borrowDerivedStatus + ` AS status
		FROM borrow_requests br
		WHERE br.equipment_id = $1 AND br.status = ANY($2)
		LIMIT 1`

	var req entities.BorrowRequest
	err := q.QueryRow(ctx, query, equipmentID, constants.ActiveBorrowStatuses).Scan(
		&req.ID, &req.EquipmentID, &req.BorrowerID, &req.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка поиска активной заявки на выдачу: %w", err)
	}
	return &req, nil
}

func (r *BorrowRepository) CreateBorrowRequestTx(ctx context.Context, q Querier, req entities.BorrowRequest) (uint64, error) {
	query := `
		INSERT INTO borrow_requests (equipment_id, borrower_id, status, borrow_date, expected_return_date, purpose, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id`

	var newID uint64
	err := q.QueryRow(ctx, query,
		req.EquipmentID,
		req.BorrowerID,
		constants.BorrowStatusPending,
		req.BorrowDate,
		req.ExpectedReturnDate,
		req.Purpose,
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заявки на выдачу: %w", err)
	}
	return newID, nil
}

// transition выполняет гвардированный переход одним UPDATE:
// WHERE по текущему статусу исключает гонку двух параллельных переходов.
// Переход либо применяется целиком, либо не применяется вовсе.
func (r *BorrowRepository) transition(ctx context.Context, q Querier, id uint64, action, setClause string, allowedFrom []string, args ...interface{}) error {
	query := fmt.Sprintf(
		`UPDATE borrow_requests SET %s, updated_at = NOW() WHERE id = $%d AND status = ANY($%d)`,
		setClause, len(args)+1, len(args)+2,
	)
	fullArgs := append(args, id, allowedFrom)

	result, err := q.Exec(ctx, query, fullArgs...)
	if err != nil {
		return fmt.Errorf("ошибка перехода '%s' заявки на выдачу: %w", action, err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	// Переход не применился: либо строки нет, либо статус не подошёл.
	var currentStatus string
	err = q.QueryRow(ctx,
		`SELECT `+borrowDerivedStatus+` FROM borrow_requests br WHERE br.id = $1`, id,
	).Scan(&currentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("ошибка чтения статуса заявки на выдачу: %w", err)
	}
	return apperrors.NewTransitionError(action, currentStatus)
}

func (r *BorrowRepository) ApproveTx(ctx context.Context, q Querier, id uint64, approverID uint64) error {
	return r.transition(ctx, q, id, "approve",
		`status = 'APPROVED', approved_by = $1, approved_at = NOW()`,
		[]string{constants.BorrowStatusPending},
		approverID,
	)
}

func (r *BorrowRepository) Reject(ctx context.Context, id uint64, approverID uint64) error {
	return r.transition(ctx, r.storage, id, "reject",
		`status = 'REJECTED', approved_by = $1, approved_at = NOW()`,
		[]string{constants.BorrowStatusPending},
		approverID,
	)
}

// Checkout фиксирует фактическую выдачу и снимает снимок состояния
// оборудования одним запросом — отдельное чтение открыло бы окно гонки.
func (r *BorrowRepository) Checkout(ctx context.Context, id uint64) error {
	return r.transition(ctx, r.storage, id, "checkout",
		`status = 'BORROWED', condition_before = (SELECT condition FROM equipments WHERE id = borrow_requests.equipment_id)`,
		[]string{constants.BorrowStatusApproved},
	)
}

// Return допускает возврат из APPROVED (неявная выдача и возврат в тот же
// момент), BORROWED и OVERDUE.
func (r *BorrowRepository) Return(ctx context.Context, id uint64, conditionAfter *string) error {
	return r.transition(ctx, r.storage, id, "return",
		`status = 'RETURNED', actual_return_date = NOW(), condition_after = $1`,
		constants.ActiveBorrowStatuses,
		conditionAfter,
	)
}

// DeleteGuarded удаляет строку только из перечисленных статусов.
// Активные заявки не удаляются: это молча освободило бы оборудование,
// которое физически на руках.
func (r *BorrowRepository) DeleteGuarded(ctx context.Context, id uint64, allowedStatuses []string) error {
	result, err := r.storage.Exec(ctx,
		`DELETE FROM borrow_requests
		 WHERE id = $1
		   AND (CASE WHEN status = 'BORROWED' AND expected_return_date < NOW() THEN 'OVERDUE' ELSE status END) = ANY($2)`,
		id, allowedStatuses,
	)
	if err != nil {
		return fmt.Errorf("ошибка удаления заявки на выдачу: %w", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var currentStatus string
	err = r.storage.QueryRow(ctx,
		`SELECT `+borrowDerivedStatus+` FROM borrow_requests br WHERE br.id = $1`, id,
	).Scan(&currentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("ошибка чтения статуса заявки на выдачу: %w", err)
	}
	return apperrors.NewTransitionError("delete", currentStatus)
}

// PromoteOverdue переводит просроченные BORROWED в OVERDUE.
// Идемпотентна: повторный или параллельный запуск не находит строк
// для обновления и ничего не меняет.
func (r *BorrowRepository) PromoteOverdue(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.storage.Exec(ctx,
		`UPDATE borrow_requests
		 SET status = 'OVERDUE', updated_at = NOW()
		 WHERE status = 'BORROWED' AND expected_return_date < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("ошибка перевода заявок в OVERDUE: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *BorrowRepository) DeleteAllForEquipmentTx(ctx context.Context, q Querier, equipmentID uint64) (int64, error) {
	result, err := q.Exec(ctx, `DELETE FROM borrow_requests WHERE equipment_id = $1`, equipmentID)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления заявок на выдачу оборудования: %w", err)
	}
	return result.RowsAffected(), nil
}
