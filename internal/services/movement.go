package services

import (
	"context"

	"go.uber.org/zap"

	"labequip-system/internal/dto"
	"labequip-system/internal/entities"
	"labequip-system/internal/events"
	"labequip-system/internal/repositories"
	"labequip-system/pkg/constants"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/eventbus"
	"labequip-system/pkg/utils"
)

type MovementServiceInterface interface {
	RecordMove(ctx context.Context, equipmentID uint64, payload dto.RecordMoveDTO) (*entities.MovementRecord, error)
	GetHistory(ctx context.Context, equipmentID uint64) ([]dto.MovementRecordDTO, error)
}

type MovementService struct {
	movementRepo  repositories.MovementRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	roomRepo      repositories.RoomRepositoryInterface
	bus           *eventbus.Bus
	logger        *zap.Logger
}

func NewMovementService(
	movementRepo repositories.MovementRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	roomRepo repositories.RoomRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) MovementServiceInterface {
	return &MovementService{
		movementRepo:  movementRepo,
		equipmentRepo: equipmentRepo,
		roomRepo:      roomRepo,
		bus:           bus,
		logger:        logger,
	}
}

// RecordMove переносит оборудование в другое помещение и дописывает журнал.
// Обе записи атомарны на уровне репозитория.
func (s *MovementService) RecordMove(ctx context.Context, equipmentID uint64, payload dto.RecordMoveDTO) (*entities.MovementRecord, error) {
	if err := utils.RequirePermission(ctx, constants.PermMoveEquipment); err != nil {
		return nil, err
	}
	moverID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	exists, err := s.roomRepo.RoomExists(ctx, payload.ToRoomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		validationErr := apperrors.NewValidationError()
		validationErr.Add("to_room_id", "помещение не найдено")
		return nil, validationErr
	}

	equipment, err := s.equipmentRepo.FindEquipment(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if equipment.RoomID != nil && *equipment.RoomID == payload.ToRoomID {
		return nil, apperrors.NewConflictError("оборудование уже находится в этом помещении")
	}

	move := entities.MovementRecord{
		EquipmentID: equipmentID,
		ToRoomID:    payload.ToRoomID,
		MovedBy:     moverID,
		Reason:      payload.Reason,
	}
	if payload.When != nil {
		move.MovedAt = *payload.When
	}

	saved, err := s.movementRepo.RecordMove(ctx, move)
	if err != nil {
		s.logger.Error("Перемещение не записано",
			zap.Uint64("equipment_id", equipmentID),
			zap.Uint64("to_room_id", payload.ToRoomID),
			zap.Error(err),
		)
		return nil, err
	}

	s.bus.Publish(ctx, events.NewAuditEvent("equipment.moved", moverID, "equipment", equipmentID, map[string]interface{}{
		"movement_id": saved.ID,
		"to_room_id":  payload.ToRoomID,
	}))

	return saved, nil
}

func (s *MovementService) GetHistory(ctx context.Context, equipmentID uint64) ([]dto.MovementRecordDTO, error) {
	if _, err := s.equipmentRepo.FindEquipment(ctx, equipmentID); err != nil {
		return nil, err
	}
	return s.movementRepo.GetHistory(ctx, equipmentID)
}
