package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"labequip-system/internal/dto"
	apperrors "labequip-system/pkg/errors"
)

type RoomRepositoryInterface interface {
	GetRooms(ctx context.Context, limit, offset uint64) ([]dto.RoomDTO, uint64, error)
	FindRoom(ctx context.Context, id uint64) (*dto.RoomDTO, error)
	RoomExists(ctx context.Context, id uint64) (bool, error)
	CreateRoom(ctx context.Context, payload dto.CreateRoomDTO) (uint64, error)
	UpdateRoom(ctx context.Context, id uint64, payload dto.UpdateRoomDTO) error
	DeleteRoom(ctx context.Context, id uint64) error
}

type RoomRepository struct {
	storage *pgxpool.Pool
}

func NewRoomRepository(storage *pgxpool.Pool) RoomRepositoryInterface {
	return &RoomRepository{storage: storage}
}

func (r *RoomRepository) GetRooms(ctx context.Context, limit, offset uint64) ([]dto.RoomDTO, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта помещений: %w", err)
	}

	rows, err := r.storage.Query(ctx,
		`SELECT id, name, building, floor, created_at, updated_at
		 FROM rooms ORDER BY building, name LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка помещений: %w", err)
	}
	defer rows.Close()

	list := make([]dto.RoomDTO, 0)
	for rows.Next() {
		var item dto.RoomDTO
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&item.ID, &item.Name, &item.Building, &item.Floor, &createdAt, &updatedAt); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования помещения: %w", err)
		}
		item.CreatedAt = createdAt.Local().Format("2006-01-02 15:04:05")
		item.UpdatedAt = updatedAt.Local().Format("2006-01-02 15:04:05")
		list = append(list, item)
	}
	return list, total, nil
}

func (r *RoomRepository) FindRoom(ctx context.Context, id uint64) (*dto.RoomDTO, error) {
	var item dto.RoomDTO
	var createdAt, updatedAt time.Time

	err := r.storage.QueryRow(ctx,
		`SELECT id, name, building, floor, created_at, updated_at FROM rooms WHERE id = $1`, id,
	).Scan(&item.ID, &item.Name, &item.Building, &item.Floor, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования помещения: %w", err)
	}

	item.CreatedAt = createdAt.Local().Format("2006-01-02 15:04:05")
	item.UpdatedAt = updatedAt.Local().Format("2006-01-02 15:04:05")
	return &item, nil
}

func (r *RoomRepository) RoomExists(ctx context.Context, id uint64) (bool, error) {
	var exists bool
	if err := r.storage.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM rooms WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования помещения: %w", err)
	}
	return exists, nil
}

func (r *RoomRepository) CreateRoom(ctx context.Context, payload dto.CreateRoomDTO) (uint64, error) {
	var newID uint64
	err := r.storage.QueryRow(ctx,
		`INSERT INTO rooms (name, building, floor, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id`,
		payload.Name, payload.Building, payload.Floor,
	).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания помещения: %w", err)
	}
	return newID, nil
}

func (r *RoomRepository) UpdateRoom(ctx context.Context, id uint64, payload dto.UpdateRoomDTO) error {
	result, err := r.storage.Exec(ctx,
		`UPDATE rooms SET
			name = COALESCE($1, name),
			building = COALESCE($2, building),
			floor = COALESCE($3, floor),
			updated_at = NOW()
		 WHERE id = $4`,
		payload.Name, payload.Building, payload.Floor, id,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления помещения: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteRoom — помещение нельзя удалить, пока в нём числится оборудование
// или на него ссылается журнал перемещений.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id uint64) error {
	var inUse bool
	err := r.storage.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM equipments WHERE room_id = $1)
		     OR EXISTS(SELECT 1 FROM equipment_movements WHERE from_room_id = $1 OR to_room_id = $1)`,
		id,
	).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("ошибка проверки использования помещения: %w", err)
	}
	if inUse {
		return apperrors.NewConflictError("помещение используется оборудованием или журналом перемещений")
	}

	result, err := r.storage.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления помещения: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
