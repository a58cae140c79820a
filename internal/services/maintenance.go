package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"labequip-system/internal/dto"
	"labequip-system/internal/entities"
	"labequip-system/internal/events"
	"labequip-system/internal/repositories"
	"labequip-system/pkg/constants"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/eventbus"
	"labequip-system/pkg/types"
	"labequip-system/pkg/utils"
)

type MaintenanceServiceInterface interface {
	GetMaintenanceRequests(ctx context.Context, filter types.Filter) ([]dto.MaintenanceRequestDTO, uint64, error)
	FindMaintenanceRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error)

	Report(ctx context.Context, payload dto.ReportMaintenanceDTO) (uint64, error)
	Assign(ctx context.Context, id uint64, payload dto.AssignMaintenanceDTO) error
	Complete(ctx context.Context, id uint64, payload dto.CompleteMaintenanceDTO) error
	Cancel(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
}

type MaintenanceService struct {
	maintenanceRepo  repositories.MaintenanceRepositoryInterface
	equipmentRepo    repositories.EquipmentRepositoryInterface
	userRepo         repositories.UserRepositoryInterface
	equipmentService EquipmentServiceInterface
	txManager        repositories.TxManagerInterface
	bus              *eventbus.Bus
	logger           *zap.Logger
}

func NewMaintenanceService(
	maintenanceRepo repositories.MaintenanceRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	equipmentService EquipmentServiceInterface,
	txManager repositories.TxManagerInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) MaintenanceServiceInterface {
	return &MaintenanceService{
		maintenanceRepo:  maintenanceRepo,
		equipmentRepo:    equipmentRepo,
		userRepo:         userRepo,
		equipmentService: equipmentService,
		txManager:        txManager,
		bus:              bus,
		logger:           logger,
	}
}

func (s *MaintenanceService) GetMaintenanceRequests(ctx context.Context, filter types.Filter) ([]dto.MaintenanceRequestDTO, uint64, error) {
	return s.maintenanceRepo.GetMaintenanceRequests(ctx, filter)
}

func (s *MaintenanceService) FindMaintenanceRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error) {
	return s.maintenanceRepo.FindMaintenanceRequest(ctx, id)
}

// Report открывает тикет обслуживания. Проверка "не более одного открытого
// тикета на единицу" и вставка идут под блокировкой строки оборудования.
func (s *MaintenanceService) Report(ctx context.Context, payload dto.ReportMaintenanceDTO) (uint64, error) {
	reporterID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, err
	}

	var newID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.equipmentRepo.LockEquipmentTx(ctx, tx, payload.EquipmentID); err != nil {
			return err
		}

		openTicket, err := s.maintenanceRepo.FindActiveByEquipmentTx(ctx, tx, payload.EquipmentID)
		if err != nil {
			return err
		}
		if openTicket != nil {
			return apperrors.NewConflictError(
				"по оборудованию уже открыт тикет обслуживания #%d в статусе '%s'",
				openTicket.ID, openTicket.Status,
			)
		}

		newID, err = s.maintenanceRepo.CreateMaintenanceRequestTx(ctx, tx, entities.MaintenanceRequest{
			EquipmentID:      payload.EquipmentID,
			ReporterID:       reporterID,
			IssueDescription: payload.IssueDescription,
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	// Открытый тикет делает оборудование недоступным.
	s.equipmentService.InvalidateAvailability(ctx, payload.EquipmentID)

	s.bus.Publish(ctx, events.NewAuditEvent("maintenance.reported", reporterID, "maintenance_request", newID, map[string]interface{}{
		"equipment_id": payload.EquipmentID,
	}))

	return newID, nil
}

func (s *MaintenanceService) Assign(ctx context.Context, id uint64, payload dto.AssignMaintenanceDTO) error {
	if err := utils.RequirePermission(ctx, constants.PermAssignTech); err != nil {
		return err
	}

	exists, err := s.userRepo.UserExists(ctx, payload.TechnicianID)
	if err != nil {
		return err
	}
	if !exists {
		validationErr := apperrors.NewValidationError()
		validationErr.Add("technician_id", "техник не найден")
		return validationErr
	}

	if err := s.maintenanceRepo.Assign(ctx, id, payload.TechnicianID); err != nil {
		return err
	}

	actorID, _ := utils.GetUserIDFromCtx(ctx)
	s.bus.Publish(ctx, events.NewAuditEvent("maintenance.assigned", actorID, "maintenance_request", id, map[string]interface{}{
		"technician_id": payload.TechnicianID,
	}))

	return nil
}

// Complete закрывает тикет. Разрешено назначенному технику либо сотруднику
// с правом назначения.
func (s *MaintenanceService) Complete(ctx context.Context, id uint64, payload dto.CompleteMaintenanceDTO) error {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	req, err := s.maintenanceRepo.FindMaintenanceRequest(ctx, id)
	if err != nil {
		return err
	}
	if req.TechnicianID == nil || *req.TechnicianID != actorID {
		if err := utils.RequirePermission(ctx, constants.PermAssignTech); err != nil {
			return err
		}
	}

	if err := s.maintenanceRepo.Complete(ctx, id, payload.ResolutionNotes); err != nil {
		return err
	}

	s.equipmentService.InvalidateAvailability(ctx, req.EquipmentID)
	s.bus.Publish(ctx, events.NewAuditEvent("maintenance.completed", actorID, "maintenance_request", id, nil))

	return nil
}

// Cancel доступен автору тикета и сотруднику с правом назначения.
func (s *MaintenanceService) Cancel(ctx context.Context, id uint64) error {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	req, err := s.maintenanceRepo.FindMaintenanceRequest(ctx, id)
	if err != nil {
		return err
	}
	if req.ReporterID != actorID {
		if err := utils.RequirePermission(ctx, constants.PermAssignTech); err != nil {
			return err
		}
	}

	if err := s.maintenanceRepo.Cancel(ctx, id); err != nil {
		return err
	}

	s.equipmentService.InvalidateAvailability(ctx, req.EquipmentID)
	s.bus.Publish(ctx, events.NewAuditEvent("maintenance.cancelled", actorID, "maintenance_request", id, nil))

	return nil
}

func (s *MaintenanceService) Delete(ctx context.Context, id uint64) error {
	if err := utils.RequirePermission(ctx, constants.PermAssignTech); err != nil {
		return err
	}

	if err := s.maintenanceRepo.DeleteCompleted(ctx, id); err != nil {
		return err
	}

	actorID, _ := utils.GetUserIDFromCtx(ctx)
	s.bus.Publish(ctx, events.NewAuditEvent("maintenance.deleted", actorID, "maintenance_request", id, nil))

	return nil
}
