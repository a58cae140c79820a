package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"labequip-system/internal/dto"
	"labequip-system/internal/entities"
	apperrors "labequip-system/pkg/errors"
)

type MovementRepositoryInterface interface {
	RecordMove(ctx context.Context, move entities.MovementRecord) (*entities.MovementRecord, error)
	GetHistory(ctx context.Context, equipmentID uint64) ([]dto.MovementRecordDTO, error)
	FindLatestForEquipment(ctx context.Context, equipmentID uint64) (*entities.MovementRecord, error)
	DeleteAllForEquipmentTx(ctx context.Context, q Querier, equipmentID uint64) (int64, error)
}

type MovementRepository struct {
	storage *pgxpool.Pool
}

func NewMovementRepository(storage *pgxpool.Pool) MovementRepositoryInterface {
	return &MovementRepository{storage: storage}
}

// RecordMove переносит оборудование в другое помещение.
// Обе записи — обновление equipments.room_id и добавление строки журнала —
// выполняются в одной транзакции. Частичная запись (журнал без обновления
// поля или наоборот) — худший из возможных отказов: все последующие
// запросы о местоположении опираются на их согласованность.
func (r *MovementRepository) RecordMove(ctx context.Context, move entities.MovementRecord) (result *entities.MovementRecord, err error) {
	tx, err := r.storage.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("не удалось начать транзакцию перемещения: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = apperrors.NewIntegrityError("перемещение не записано", commitErr)
			}
		}
	}()

	// 1. Читаем текущее местоположение под блокировкой — это from_room.
	var fromRoomID sql.NullInt64
	err = tx.QueryRow(ctx, `SELECT room_id FROM equipments WHERE id = $1 FOR UPDATE`, move.EquipmentID).Scan(&fromRoomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = apperrors.ErrNotFound
			return nil, err
		}
		return nil, fmt.Errorf("не удалось прочитать местоположение оборудования: %w", err)
	}

	// 2. Обновляем денормализованное поле.
	if _, err = tx.Exec(ctx,
		`UPDATE equipments SET room_id = $1, updated_at = NOW() WHERE id = $2`,
		move.ToRoomID, move.EquipmentID,
	); err != nil {
		return nil, apperrors.NewIntegrityError("перемещение не записано: обновление местоположения", err)
	}

	// 3. Дописываем журнал.
	movedAt := move.MovedAt
	if movedAt.IsZero() {
		movedAt = time.Now()
	}

	saved := move
	saved.MovedAt = movedAt
	if fromRoomID.Valid {
		from := uint64(fromRoomID.Int64)
		saved.FromRoomID = &from
	} else {
		saved.FromRoomID = nil
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO equipment_movements (equipment_id, from_room_id, to_room_id, moved_by, reason, moved_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 RETURNING id, created_at`,
		saved.EquipmentID, saved.FromRoomID, saved.ToRoomID, saved.MovedBy, saved.Reason, saved.MovedAt,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, apperrors.NewIntegrityError("перемещение не записано: запись в журнал", err)
	}

	return &saved, nil
}

// GetHistory возвращает полную историю перемещений, свежие записи первыми.
func (r *MovementRepository) GetHistory(ctx context.Context, equipmentID uint64) ([]dto.MovementRecordDTO, error) {
	query := `
		SELECT m.id, m.equipment_id, m.reason, m.moved_at,
		       fr.id, fr.name,
		       tr.id, tr.name,
		       u.id, u.fio
		FROM equipment_movements m
		LEFT JOIN rooms fr ON m.from_room_id = fr.id
		LEFT JOIN rooms tr ON m.to_room_id = tr.id
		LEFT JOIN users u ON m.moved_by = u.id
		WHERE m.equipment_id = $1
		ORDER BY m.moved_at DESC, m.id DESC`

	rows, err := r.storage.Query(ctx, query, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории перемещений: %w", err)
	}
	defer rows.Close()

	history := make([]dto.MovementRecordDTO, 0)
	for rows.Next() {
		var item dto.MovementRecordDTO
		var movedAt time.Time
		var fromRoomID sql.NullInt64
		var fromRoomName sql.NullString

		if err := rows.Scan(
			&item.ID, &item.EquipmentID, &item.Reason, &movedAt,
			&fromRoomID, &fromRoomName,
			&item.ToRoom.ID, &item.ToRoom.Name,
			&item.Mover.ID, &item.Mover.Fio,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи перемещения: %w", err)
		}

		if fromRoomID.Valid {
			item.FromRoom = &dto.ShortRoomDTO{ID: uint64(fromRoomID.Int64), Name: fromRoomName.String}
		}
		item.MovedAt = movedAt.Local().Format("2006-01-02 15:04:05")

		history = append(history, item)
	}

	return history, nil
}

// FindLatestForEquipment возвращает последнюю запись журнала.
// Инвариант: её to_room_id совпадает с equipments.room_id.
func (r *MovementRepository) FindLatestForEquipment(ctx context.Context, equipmentID uint64) (*entities.MovementRecord, error) {
	var record entities.MovementRecord
	var fromRoomID sql.NullInt64

	err := r.storage.QueryRow(ctx,
		`SELECT id, equipment_id, from_room_id, to_room_id, moved_by, reason, moved_at, created_at
		 FROM equipment_movements
		 WHERE equipment_id = $1
		 ORDER BY moved_at DESC, id DESC
		 LIMIT 1`,
		equipmentID,
	).Scan(
		&record.ID, &record.EquipmentID, &fromRoomID, &record.ToRoomID,
		&record.MovedBy, &record.Reason, &record.MovedAt, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения последнего перемещения: %w", err)
	}

	if fromRoomID.Valid {
		from := uint64(fromRoomID.Int64)
		record.FromRoomID = &from
	}
	return &record, nil
}

func (r *MovementRepository) DeleteAllForEquipmentTx(ctx context.Context, q Querier, equipmentID uint64) (int64, error) {
	result, err := q.Exec(ctx, `DELETE FROM equipment_movements WHERE equipment_id = $1`, equipmentID)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления журнала перемещений оборудования: %w", err)
	}
	return result.RowsAffected(), nil
}
