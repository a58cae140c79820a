package services

import (
	"context"

	"go.uber.org/zap"

	"labequip-system/internal/dto"
	"labequip-system/internal/repositories"
	"labequip-system/pkg/constants"
	"labequip-system/pkg/utils"
)

type RoomServiceInterface interface {
	GetRooms(ctx context.Context, limit, offset uint64) ([]dto.RoomDTO, uint64, error)
	FindRoom(ctx context.Context, id uint64) (*dto.RoomDTO, error)
	CreateRoom(ctx context.Context, payload dto.CreateRoomDTO) (uint64, error)
	UpdateRoom(ctx context.Context, id uint64, payload dto.UpdateRoomDTO) error
	DeleteRoom(ctx context.Context, id uint64) error
}

type RoomService struct {
	roomRepo repositories.RoomRepositoryInterface
	logger   *zap.Logger
}

func NewRoomService(roomRepo repositories.RoomRepositoryInterface, logger *zap.Logger) RoomServiceInterface {
	return &RoomService{roomRepo: roomRepo, logger: logger}
}

func (s *RoomService) GetRooms(ctx context.Context, limit, offset uint64) ([]dto.RoomDTO, uint64, error) {
	return s.roomRepo.GetRooms(ctx, limit, offset)
}

func (s *RoomService) FindRoom(ctx context.Context, id uint64) (*dto.RoomDTO, error) {
	return s.roomRepo.FindRoom(ctx, id)
}

func (s *RoomService) CreateRoom(ctx context.Context, payload dto.CreateRoomDTO) (uint64, error) {
	if err := utils.RequirePermission(ctx, constants.PermManageEquipment); err != nil {
		return 0, err
	}
	return s.roomRepo.CreateRoom(ctx, payload)
}

func (s *RoomService) UpdateRoom(ctx context.Context, id uint64, payload dto.UpdateRoomDTO) error {
	if err := utils.RequirePermission(ctx, constants.PermManageEquipment); err != nil {
		return err
	}
	return s.roomRepo.UpdateRoom(ctx, id, payload)
}

// DeleteRoom отдаёт конфликт, если в помещении числится оборудование —
// гвард живёт в репозитории.
func (s *RoomService) DeleteRoom(ctx context.Context, id uint64) error {
	if err := utils.RequirePermission(ctx, constants.PermManageEquipment); err != nil {
		return err
	}
	return s.roomRepo.DeleteRoom(ctx, id)
}
