package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"labequip-system/internal/dto"
	"labequip-system/internal/entities"
	"labequip-system/internal/infrastructure/bd"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/types"
)

const equipmentTable = "equipments"

// Колонки, по которым разрешена фильтрация/сортировка списка.
var equipmentAllowedFilterMap = map[string]string{
	"category_id":           "e.category_id",
	"room_id":               "e.room_id",
	"condition":             "e.condition",
	"administrative_status": "e.administrative_status",
	"created_at":            "e.created_at",
	"name":                  "e.name",
}

type EquipmentRepositoryInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error)
	FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error)
	CreateEquipment(ctx context.Context, equipment entities.Equipment) (uint64, error)
	UpdateEquipment(ctx context.Context, id uint64, equipment entities.Equipment) error
	DeleteEquipment(ctx context.Context, id uint64) error
	SerialNumberExists(ctx context.Context, serialNumber string, excludeID uint64) (bool, error)
	CountDependents(ctx context.Context, id uint64) (borrows int64, tickets int64, movements int64, err error)

	// Транзакционные методы: принимают querier, чтобы работать внутри pgx.Tx.
	LockEquipmentTx(ctx context.Context, q Querier, id uint64) (*entities.Equipment, error)
	UpdateLocationTx(ctx context.Context, q Querier, id uint64, roomID uint64) error
	DeleteEquipmentTx(ctx context.Context, q Querier, id uint64) error
}

type EquipmentRepository struct {
	storage *pgxpool.Pool
}

func NewEquipmentRepository(storage *pgxpool.Pool) EquipmentRepositoryInterface {
	return &EquipmentRepository{storage: storage}
}

func (r *EquipmentRepository) GetEquipments(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(*)").From(equipmentTable + " e")
	if filter.Search != "" {
		countBuilder = countBuilder.Where(sq.Or{
			sq.ILike{"e.name": "%" + filter.Search + "%"},
			sq.ILike{"e.serial_number": "%" + filter.Search + "%"},
		})
	}
	countBuilder = bd.ApplyListParams(countBuilder, types.Filter{Filter: filter.Filter}, equipmentAllowedFilterMap)

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса подсчёта оборудования: %w", err)
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта оборудования: %w", err)
	}

	builder := psql.Select(
		"e.id", "e.name", "e.serial_number", "e.condition", "e.administrative_status", "e.description",
		"e.created_at", "e.updated_at",
		"c.id AS category_id", "c.name AS category_name",
		"r.id AS room_id", "r.name AS room_name",
	).
		From(equipmentTable + " e").
		LeftJoin("categories c ON e.category_id = c.id").
		LeftJoin("rooms r ON e.room_id = r.id")

	if filter.Search != "" {
		builder = builder.Where(sq.Or{
			sq.ILike{"e.name": "%" + filter.Search + "%"},
			sq.ILike{"e.serial_number": "%" + filter.Search + "%"},
		})
	}
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("e.created_at DESC")
	}
	builder = bd.ApplyListParams(builder, filter, equipmentAllowedFilterMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса списка оборудования: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка оборудования: %w", err)
	}
	defer rows.Close()

	list := make([]dto.EquipmentDTO, 0)
	for rows.Next() {
		var item dto.EquipmentDTO
		var createdAt, updatedAt time.Time
		var categoryID sql.NullInt64
		var categoryName sql.NullString
		var roomID sql.NullInt64
		var roomName sql.NullString

		if err := rows.Scan(
			&item.ID, &item.Name, &item.SerialNumber, &item.Condition, &item.AdministrativeStatus, &item.Description,
			&createdAt, &updatedAt,
			&categoryID, &categoryName,
			&roomID, &roomName,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования оборудования в списке: %w", err)
		}

		if categoryID.Valid {
			item.Category = dto.ShortCategoryDTO{ID: uint64(categoryID.Int64), Name: categoryName.String}
		}
		if roomID.Valid {
			item.Room = &dto.ShortRoomDTO{ID: uint64(roomID.Int64), Name: roomName.String}
		}
		item.CreatedAt = createdAt.Local().Format("2006-01-02 15:04:05")
		item.UpdatedAt = updatedAt.Local().Format("2006-01-02 15:04:05")

		list = append(list, item)
	}

	return list, total, nil
}

func (r *EquipmentRepository) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	return r.findEquipment(ctx, r.storage, id, false)
}

// LockEquipmentTx читает строку оборудования с блокировкой FOR UPDATE.
// Используется там, где проверка доступности и последующая запись обязаны
// быть атомарными (закрытие гонки двойной подачи заявки).
func (r *EquipmentRepository) LockEquipmentTx(ctx context.Context, q Querier, id uint64) (*entities.Equipment, error) {
	return r.findEquipment(ctx, q, id, true)
}

func (r *EquipmentRepository) findEquipment(ctx context.Context, q Querier, id uint64, forUpdate bool) (*entities.Equipment, error) {
	query := `
		SELECT id, name, serial_number, category_id, room_id, condition, administrative_status, description, created_at, updated_at
		FROM equipments
		WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var equipment entities.Equipment
	var roomID sql.NullInt64
	var createdAt, updatedAt time.Time

	err := q.QueryRow(ctx, query, id).Scan(
		&equipment.ID,
		&equipment.Name,
		&equipment.SerialNumber,
		&equipment.CategoryID,
		&roomID,
		&equipment.Condition,
		&equipment.AdministrativeStatus,
		&equipment.Description,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования оборудования: %w", err)
	}

	if roomID.Valid {
		rid := uint64(roomID.Int64)
		equipment.RoomID = &rid
	}
	equipment.CreatedAt = &createdAt
	equipment.UpdatedAt = &updatedAt

	return &equipment, nil
}

func (r *EquipmentRepository) CreateEquipment(ctx context.Context, equipment entities.Equipment) (uint64, error) {
	query := `
        INSERT INTO equipments (name, serial_number, category_id, condition, administrative_status, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING id`

	var newID uint64
	err := r.storage.QueryRow(ctx, query,
		equipment.Name,
		equipment.SerialNumber,
		equipment.CategoryID,
		equipment.Condition,
		equipment.AdministrativeStatus,
		equipment.Description,
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании оборудования: %w", err)
	}
	return newID, nil
}

func (r *EquipmentRepository) UpdateEquipment(ctx context.Context, id uint64, equipment entities.Equipment) error {
	query := `
        UPDATE equipments
        SET name = $1, serial_number = $2, category_id = $3, condition = $4,
            administrative_status = $5, description = $6, updated_at = NOW()
        WHERE id = $7`

	result, err := r.storage.Exec(ctx, query,
		equipment.Name,
		equipment.SerialNumber,
		equipment.CategoryID,
		equipment.Condition,
		equipment.AdministrativeStatus,
		equipment.Description,
		id,
	)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении оборудования: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteEquipment — прямое удаление. Вызывается только после проверки,
// что зависимых строк нет; при их наличии сервис вернёт ConflictError,
// а сюда управление не дойдёт. Полное удаление с историей — каскадный
// координатор.
func (r *EquipmentRepository) DeleteEquipment(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM equipments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления оборудования: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepository) DeleteEquipmentTx(ctx context.Context, q Querier, id uint64) error {
	result, err := q.Exec(ctx, `DELETE FROM equipments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления оборудования: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepository) SerialNumberExists(ctx context.Context, serialNumber string, excludeID uint64) (bool, error) {
	var exists bool
	err := r.storage.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM equipments WHERE serial_number = $1 AND id <> $2)`,
		serialNumber, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки уникальности серийного номера: %w", err)
	}
	return exists, nil
}

// CountDependents считает зависимые строки в трёх таблицах.
// Ненулевой результат блокирует прямое удаление оборудования.
func (r *EquipmentRepository) CountDependents(ctx context.Context, id uint64) (int64, int64, int64, error) {
	var borrows, tickets, movements int64
	err := r.storage.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM borrow_requests WHERE equipment_id = $1),
			(SELECT COUNT(*) FROM maintenance_requests WHERE equipment_id = $1),
			(SELECT COUNT(*) FROM equipment_movements WHERE equipment_id = $1)`,
		id,
	).Scan(&borrows, &tickets, &movements)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ошибка подсчёта зависимых записей: %w", err)
	}
	return borrows, tickets, movements, nil
}

// UpdateLocationTx обновляет денормализованное поле room_id.
// Вызывается ТОЛЬКО из транзакции, которая одновременно пишет запись
// в журнал перемещений — иначе журнал и поле разойдутся.
func (r *EquipmentRepository) UpdateLocationTx(ctx context.Context, q Querier, id uint64, roomID uint64) error {
	result, err := q.Exec(ctx,
		`UPDATE equipments SET room_id = $1, updated_at = NOW() WHERE id = $2`,
		roomID, id,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления местоположения оборудования: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
