package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"labequip-system/internal/dto"
	"labequip-system/internal/events"
	"labequip-system/internal/repositories"
	"labequip-system/pkg/constants"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/eventbus"
	"labequip-system/pkg/utils"
)

// CascadeDeleteService удаляет оборудование вместе со всей историей:
// заявками на выдачу, тикетами обслуживания и журналом перемещений.
// Все четыре удаления идут в одной транзакции. Любой сбой на любом шаге
// откатывает всё: осиротевших строк и наполовину удалённого оборудования
// не бывает.
type CascadeDeleteServiceInterface interface {
	DeleteEquipmentCascade(ctx context.Context, equipmentID uint64) (*dto.CascadeDeleteSummaryDTO, error)
}

type CascadeDeleteService struct {
	equipmentRepo    repositories.EquipmentRepositoryInterface
	borrowRepo       repositories.BorrowRepositoryInterface
	maintenanceRepo  repositories.MaintenanceRepositoryInterface
	movementRepo     repositories.MovementRepositoryInterface
	equipmentService EquipmentServiceInterface
	txManager        repositories.TxManagerInterface
	bus              *eventbus.Bus
	logger           *zap.Logger
}

func NewCascadeDeleteService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	borrowRepo repositories.BorrowRepositoryInterface,
	maintenanceRepo repositories.MaintenanceRepositoryInterface,
	movementRepo repositories.MovementRepositoryInterface,
	equipmentService EquipmentServiceInterface,
	txManager repositories.TxManagerInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) CascadeDeleteServiceInterface {
	return &CascadeDeleteService{
		equipmentRepo:    equipmentRepo,
		borrowRepo:       borrowRepo,
		maintenanceRepo:  maintenanceRepo,
		movementRepo:     movementRepo,
		equipmentService: equipmentService,
		txManager:        txManager,
		bus:              bus,
		logger:           logger,
	}
}

func (s *CascadeDeleteService) DeleteEquipmentCascade(ctx context.Context, equipmentID uint64) (*dto.CascadeDeleteSummaryDTO, error) {
	if err := utils.RequirePermission(ctx, constants.PermManageEquipment); err != nil {
		return nil, err
	}

	summary := &dto.CascadeDeleteSummaryDTO{EquipmentID: equipmentID}

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// Блокировка строки оборудования: пока идёт каскад, никто не подаст
		// новую заявку на удаляемую единицу.
		if _, err := s.equipmentRepo.LockEquipmentTx(ctx, tx, equipmentID); err != nil {
			return err
		}

		deleted, err := s.borrowRepo.DeleteAllForEquipmentTx(ctx, tx, equipmentID)
		if err != nil {
			return apperrors.NewIntegrityError("каскадное удаление не выполнено: заявки на выдачу", err)
		}
		summary.BorrowRequests = deleted

		deleted, err = s.maintenanceRepo.DeleteAllForEquipmentTx(ctx, tx, equipmentID)
		if err != nil {
			return apperrors.NewIntegrityError("каскадное удаление не выполнено: тикеты обслуживания", err)
		}
		summary.MaintenanceRequests = deleted

		deleted, err = s.movementRepo.DeleteAllForEquipmentTx(ctx, tx, equipmentID)
		if err != nil {
			return apperrors.NewIntegrityError("каскадное удаление не выполнено: журнал перемещений", err)
		}
		summary.Movements = deleted

		if err := s.equipmentRepo.DeleteEquipmentTx(ctx, tx, equipmentID); err != nil {
			return apperrors.NewIntegrityError("каскадное удаление не выполнено: само оборудование", err)
		}
		return nil
	})
	if err != nil {
		// Транзакция уже откатана; наружу уходит либо "не найдено",
		// либо ошибка целостности без частичных изменений.
		var integrityErr *apperrors.IntegrityError
		if errors.Is(err, apperrors.ErrNotFound) || errors.As(err, &integrityErr) {
			return nil, err
		}
		return nil, apperrors.NewIntegrityError("каскадное удаление не выполнено", err)
	}

	s.equipmentService.InvalidateAvailability(ctx, equipmentID)

	actorID, _ := utils.GetUserIDFromCtx(ctx)
	s.logger.Info("Оборудование удалено каскадно",
		zap.Uint64("equipment_id", equipmentID),
		zap.Int64("borrow_requests", summary.BorrowRequests),
		zap.Int64("maintenance_requests", summary.MaintenanceRequests),
		zap.Int64("movements", summary.Movements),
	)
	s.bus.Publish(ctx, events.NewAuditEvent("equipment.cascade_deleted", actorID, "equipment", equipmentID, map[string]interface{}{
		"borrow_requests":      summary.BorrowRequests,
		"maintenance_requests": summary.MaintenanceRequests,
		"movements":            summary.Movements,
	}))

	return summary, nil
}
