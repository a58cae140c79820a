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

var maintenanceAllowedFilterMap = map[string]string{
	"equipment_id":  "mr.equipment_id",
	"reporter_id":   "mr.reporter_id",
	"technician_id": "mr.technician_id",
	"status":        "mr.status",
	"created_at":    "mr.created_at",
}

type MaintenanceRepositoryInterface interface {
	GetMaintenanceRequests(ctx context.Context, filter types.Filter) ([]dto.MaintenanceRequestDTO, uint64, error)
	FindMaintenanceRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error)

	// FindActiveByEquipmentTx возвращает открытый тикет (PENDING/IN_PROGRESS)
	// по оборудованию или nil.
	FindActiveByEquipmentTx(ctx context.Context, q Querier, equipmentID uint64) (*entities.MaintenanceRequest, error)
	CreateMaintenanceRequestTx(ctx context.Context, q Querier, req entities.MaintenanceRequest) (uint64, error)

	Assign(ctx context.Context, id uint64, technicianID uint64) error
	Complete(ctx context.Context, id uint64, resolutionNotes string) error
	Cancel(ctx context.Context, id uint64) error
	DeleteCompleted(ctx context.Context, id uint64) error

	DeleteAllForEquipmentTx(ctx context.Context, q Querier, equipmentID uint64) (int64, error)
}

type MaintenanceRepository struct {
	storage *pgxpool.Pool
}

func NewMaintenanceRepository(storage *pgxpool.Pool) MaintenanceRepositoryInterface {
	return &MaintenanceRepository{storage: storage}
}

func (r *MaintenanceRepository) GetMaintenanceRequests(ctx context.Context, filter types.Filter) ([]dto.MaintenanceRequestDTO, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := bd.ApplyListParams(
		psql.Select("COUNT(*)").From("maintenance_requests mr"),
		types.Filter{Filter: filter.Filter},
		maintenanceAllowedFilterMap,
	)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса подсчёта заявок на обслуживание: %w", err)
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта заявок на обслуживание: %w", err)
	}

	builder := psql.Select(
		"mr.id", "mr.status", "mr.issue_description",
		"mr.start_date", "mr.completion_date", "mr.resolution_notes",
		"mr.created_at", "mr.updated_at",
		"e.id", "e.name", "e.serial_number",
		"rep.id", "rep.fio",
		"tech.id", "tech.fio",
	).
		From("maintenance_requests mr").
		LeftJoin("equipments e ON mr.equipment_id = e.id").
		LeftJoin("users rep ON mr.reporter_id = rep.id").
		LeftJoin("users tech ON mr.technician_id = tech.id")

	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("mr.created_at DESC")
	}
	builder = bd.ApplyListParams(builder, filter, maintenanceAllowedFilterMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса списка заявок на обслуживание: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка заявок на обслуживание: %w", err)
	}
	defer rows.Close()

	list := make([]dto.MaintenanceRequestDTO, 0)
	for rows.Next() {
		var item dto.MaintenanceRequestDTO
		var startDate, completionDate sql.NullTime
		var resolutionNotes sql.NullString
		var createdAt, updatedAt time.Time
		var techID sql.NullInt64
		var techFio sql.NullString

		if err := rows.Scan(
			&item.ID, &item.Status, &item.IssueDescription,
			&startDate, &completionDate, &resolutionNotes,
			&createdAt, &updatedAt,
			&item.Equipment.ID, &item.Equipment.Name, &item.Equipment.SerialNumber,
			&item.Reporter.ID, &item.Reporter.Fio,
			&techID, &techFio,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования заявки на обслуживание: %w", err)
		}

		if startDate.Valid {
			item.StartDate = null.StringFrom(startDate.Time.Local().Format("2006-01-02 15:04:05"))
		}
		if completionDate.Valid {
			item.CompletionDate = null.StringFrom(completionDate.Time.Local().Format("2006-01-02 15:04:05"))
		}
		if resolutionNotes.Valid {
			item.ResolutionNotes = null.StringFrom(resolutionNotes.String)
		}
		if techID.Valid {
			item.Technician = &dto.ShortUserDTO{ID: uint64(techID.Int64), Fio: techFio.String}
		}
		item.CreatedAt = createdAt.Local().Format("2006-01-02 15:04:05")
		item.UpdatedAt = updatedAt.Local().Format("2006-01-02 15:04:05")

		list = append(list, item)
	}

	return list, total, nil
}

func (r *MaintenanceRepository) FindMaintenanceRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error) {
	query := `
		SELECT id, equipment_id, reporter_id, technician_id, status,
		       issue_description, start_date, completion_date, resolution_notes,
		       created_at, updated_at
		FROM maintenance_requests
		WHERE id = $1`

	var req entities.MaintenanceRequest
	var technicianID sql.NullInt64
	var startDate, completionDate sql.NullTime
	var resolutionNotes sql.NullString
	var createdAt, updatedAt time.Time

	err := r.storage.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.EquipmentID, &req.ReporterID, &technicianID, &req.Status,
		&req.IssueDescription, &startDate, &completionDate, &resolutionNotes,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования заявки на обслуживание: %w", err)
	}

	if technicianID.Valid {
		tid := uint64(technicianID.Int64)
		req.TechnicianID = &tid
	}
	if startDate.Valid {
		req.StartDate = &startDate.Time
	}
	if completionDate.Valid {
		req.CompletionDate = &completionDate.Time
	}
	if resolutionNotes.Valid {
		req.ResolutionNotes = &resolutionNotes.String
	}
	req.CreatedAt = &createdAt
	req.UpdatedAt = &updatedAt

	return &req, nil
}

func (r *MaintenanceRepository) FindActiveByEquipmentTx(ctx context.Context, q Querier, equipmentID uint64) (*entities.MaintenanceRequest, error) {
	query := `
		SELECT id, equipment_id, reporter_id, status
		FROM maintenance_requests
		WHERE equipment_id = $1 AND status = ANY($2)
		LIMIT 1`

	var req entities.MaintenanceRequest
	err := q.QueryRow(ctx, query, equipmentID, constants.ActiveMaintenanceStatuses).Scan(
		&req.ID, &req.EquipmentID, &req.ReporterID, &req.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка поиска открытого тикета обслуживания: %w", err)
	}
	return &req, nil
}

func (r *MaintenanceRepository) CreateMaintenanceRequestTx(ctx context.Context, q Querier, req entities.MaintenanceRequest) (uint64, error) {
	query := `
		INSERT INTO maintenance_requests (equipment_id, reporter_id, status, issue_description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id`

	var newID uint64
	err := q.QueryRow(ctx, query,
		req.EquipmentID,
		req.ReporterID,
		constants.MaintenanceStatusPending,
		req.IssueDescription,
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заявки на обслуживание: %w", err)
	}
	return newID, nil
}

// transition — гвардированный переход одним UPDATE, по аналогии с заявками
// на выдачу.
func (r *MaintenanceRepository) transition(ctx context.Context, id uint64, action, setClause string, allowedFrom []string, args ...interface{}) error {
	query := fmt.Sprintf(
		`UPDATE maintenance_requests SET %s, updated_at = NOW() WHERE id = $%d AND status = ANY($%d)`,
		setClause, len(args)+1, len(args)+2,
	)
	fullArgs := append(args, id, allowedFrom)

	result, err := r.storage.Exec(ctx, query, fullArgs...)
	if err != nil {
		return fmt.Errorf("ошибка перехода '%s' заявки на обслуживание: %w", action, err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var currentStatus string
	err = r.storage.QueryRow(ctx, `SELECT status FROM maintenance_requests WHERE id = $1`, id).Scan(&currentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("ошибка чтения статуса заявки на обслуживание: %w", err)
	}
	return apperrors.NewTransitionError(action, currentStatus)
}

func (r *MaintenanceRepository) Assign(ctx context.Context, id uint64, technicianID uint64) error {
	return r.transition(ctx, id, "assign",
		`status = 'IN_PROGRESS', technician_id = $1, start_date = NOW()`,
		[]string{constants.MaintenanceStatusPending},
		technicianID,
	)
}

func (r *MaintenanceRepository) Complete(ctx context.Context, id uint64, resolutionNotes string) error {
	return r.transition(ctx, id, "complete",
		`status = 'COMPLETED', completion_date = NOW(), resolution_notes = $1`,
		[]string{constants.MaintenanceStatusInProgress},
		resolutionNotes,
	)
}

func (r *MaintenanceRepository) Cancel(ctx context.Context, id uint64) error {
	return r.transition(ctx, id, "cancel",
		`status = 'CANCELLED'`,
		constants.ActiveMaintenanceStatuses,
	)
}

// DeleteCompleted удаляет тикет. Разрешено только для COMPLETED:
// открытый тикет блокирует доступность, его удаление скрыло бы этот факт.
func (r *MaintenanceRepository) DeleteCompleted(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx,
		`DELETE FROM maintenance_requests WHERE id = $1 AND status = 'COMPLETED'`, id,
	)
	if err != nil {
		return fmt.Errorf("ошибка удаления заявки на обслуживание: %w", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var currentStatus string
	err = r.storage.QueryRow(ctx, `SELECT status FROM maintenance_requests WHERE id = $1`, id).Scan(&currentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("ошибка чтения статуса заявки на обслуживание: %w", err)
	}
	return apperrors.NewTransitionError("delete", currentStatus)
}

func (r *MaintenanceRepository) DeleteAllForEquipmentTx(ctx context.Context, q Querier, equipmentID uint64) (int64, error) {
	result, err := q.Exec(ctx, `DELETE FROM maintenance_requests WHERE equipment_id = $1`, equipmentID)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления тикетов обслуживания оборудования: %w", err)
	}
	return result.RowsAffected(), nil
}
