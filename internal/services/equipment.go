package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"labequip-system/internal/dto"
	"labequip-system/internal/entities"
	"labequip-system/internal/events"
	"labequip-system/internal/repositories"
	"labequip-system/pkg/config"
	"labequip-system/pkg/constants"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/eventbus"
	"labequip-system/pkg/types"
	"labequip-system/pkg/utils"
)

func availabilityCacheKey(equipmentID uint64) string {
	return fmt.Sprintf("availability:%d", equipmentID)
}

type EquipmentServiceInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error)
	FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error)
	CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (uint64, error)
	UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) error
	DeleteEquipment(ctx context.Context, id uint64) error

	ComputeAvailability(ctx context.Context, id uint64) (*dto.AvailabilityDTO, error)

	// CheckAvailabilityTx вычисляет доступность по уже прочитанной (и при
	// необходимости заблокированной) строке оборудования. Проверки активной
	// выдачи и открытого тикета идут через переданный querier, чтобы работать
	// внутри транзакции подачи заявки.
	CheckAvailabilityTx(ctx context.Context, q repositories.Querier, equipment *entities.Equipment) (*dto.AvailabilityDTO, error)

	// InvalidateAvailability сбрасывает кеш доступности после любого перехода,
	// который мог её изменить.
	InvalidateAvailability(ctx context.Context, equipmentID uint64)
}

type EquipmentService struct {
	equipmentRepo   repositories.EquipmentRepositoryInterface
	borrowRepo      repositories.BorrowRepositoryInterface
	maintenanceRepo repositories.MaintenanceRepositoryInterface
	categoryRepo    repositories.CategoryRepositoryInterface
	cacheRepo       repositories.CacheRepositoryInterface
	storage         repositories.Querier
	cfg             *config.Config
	bus             *eventbus.Bus
	logger          *zap.Logger
}

func NewEquipmentService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	borrowRepo repositories.BorrowRepositoryInterface,
	maintenanceRepo repositories.MaintenanceRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	storage repositories.Querier,
	cfg *config.Config,
	bus *eventbus.Bus,
	logger *zap.Logger,
) EquipmentServiceInterface {
	return &EquipmentService{
		equipmentRepo:   equipmentRepo,
		borrowRepo:      borrowRepo,
		maintenanceRepo: maintenanceRepo,
		categoryRepo:    categoryRepo,
		cacheRepo:       cacheRepo,
		storage:         storage,
		cfg:             cfg,
		bus:             bus,
		logger:          logger,
	}
}

func (s *EquipmentService) GetEquipments(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error) {
	return s.equipmentRepo.GetEquipments(ctx, filter)
}

func (s *EquipmentService) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	return s.equipmentRepo.FindEquipment(ctx, id)
}

// validatePayload собирает ВСЕ нарушения доменных правил, а не только первое:
// серийный номер, категория и состояние проверяются независимо друг от друга.
func (s *EquipmentService) validatePayload(ctx context.Context, serialNumber string, excludeID uint64, categoryID *uint64, condition *string, adminStatus *string) (*apperrors.ValidationError, error) {
	validationErr := apperrors.NewValidationError()

	if serialNumber != "" {
		exists, err := s.equipmentRepo.SerialNumberExists(ctx, serialNumber, excludeID)
		if err != nil {
			return nil, err
		}
		if exists {
			validationErr.Add("serial_number", "серийный номер уже используется другим оборудованием")
		}
	}

	if categoryID != nil {
		exists, err := s.categoryRepo.CategoryExists(ctx, *categoryID)
		if err != nil {
			return nil, err
		}
		if !exists {
			validationErr.Add("category_id", "категория не найдена")
		}
	}

	if condition != nil && !constants.IsValidCondition(*condition) {
		validationErr.Add("condition", fmt.Sprintf("недопустимое состояние '%s'", *condition))
	}

	if adminStatus != nil && *adminStatus != constants.AdminStatusActive && *adminStatus != constants.AdminStatusInactive {
		validationErr.Add("administrative_status", fmt.Sprintf("недопустимый административный статус '%s'", *adminStatus))
	}

	return validationErr, nil
}

func (s *EquipmentService) CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (uint64, error) {
	if err := utils.RequirePermission(ctx, constants.PermManageEquipment); err != nil {
		return 0, err
	}

	condition := payload.Condition
	if condition == "" {
		condition = constants.ConditionGood
	}

	validationErr, err := s.validatePayload(ctx, payload.SerialNumber, 0, &payload.CategoryID, &condition, nil)
	if err != nil {
		return 0, err
	}
	if validationErr.HasErrors() {
		return 0, validationErr
	}

	newID, err := s.equipmentRepo.CreateEquipment(ctx, entities.Equipment{
		Name:                 payload.Name,
		SerialNumber:         payload.SerialNumber,
		CategoryID:           payload.CategoryID,
		Condition:            condition,
		AdministrativeStatus: constants.AdminStatusActive,
		Description:          payload.Description,
	})
	if err != nil {
		s.logger.Error("Не удалось создать оборудование", zap.Error(err))
		return 0, err
	}

	actorID, _ := utils.GetUserIDFromCtx(ctx)
	s.bus.Publish(ctx, events.NewAuditEvent("equipment.created", actorID, "equipment", newID, map[string]interface{}{
		"serial_number": payload.SerialNumber,
	}))

	return newID, nil
}

func (s *EquipmentService) UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) error {
	if err := utils.RequirePermission(ctx, constants.PermManageEquipment); err != nil {
		return err
	}

	existing, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return err
	}

	serialToCheck := ""
	if payload.SerialNumber != nil && *payload.SerialNumber != existing.SerialNumber {
		serialToCheck = *payload.SerialNumber
	}

	validationErr, err := s.validatePayload(ctx, serialToCheck, id, payload.CategoryID, payload.Condition, payload.AdministrativeStatus)
	if err != nil {
		return err
	}
	if validationErr.HasErrors() {
		return validationErr
	}

	updated := *existing
	if payload.Name != nil {
		updated.Name = *payload.Name
	}
	if payload.SerialNumber != nil {
		updated.SerialNumber = *payload.SerialNumber
	}
	if payload.CategoryID != nil {
		updated.CategoryID = *payload.CategoryID
	}
	if payload.Condition != nil {
		updated.Condition = *payload.Condition
	}
	if payload.AdministrativeStatus != nil {
		updated.AdministrativeStatus = *payload.AdministrativeStatus
	}
	if payload.Description != nil {
		updated.Description = *payload.Description
	}

	if err := s.equipmentRepo.UpdateEquipment(ctx, id, updated); err != nil {
		s.logger.Error("Не удалось обновить оборудование", zap.Uint64("equipment_id", id), zap.Error(err))
		return err
	}

	// Смена состояния или административного статуса меняет доступность.
	s.InvalidateAvailability(ctx, id)

	actorID, _ := utils.GetUserIDFromCtx(ctx)
	s.bus.Publish(ctx, events.NewAuditEvent("equipment.updated", actorID, "equipment", id, nil))

	return nil
}

// DeleteEquipment — прямое удаление без истории. Если по оборудованию есть
// хоть одна зависимая строка, возвращается конфликт: историю нельзя терять
// молча, для этого есть каскадный координатор.
func (s *EquipmentService) DeleteEquipment(ctx context.Context, id uint64) error {
	if err := utils.RequirePermission(ctx, constants.PermManageEquipment); err != nil {
		return err
	}

	borrows, tickets, movements, err := s.equipmentRepo.CountDependents(ctx, id)
	if err != nil {
		return err
	}
	if borrows > 0 || tickets > 0 || movements > 0 {
		return apperrors.NewConflictError(
			"оборудование нельзя удалить напрямую: найдено зависимых записей — выдач: %d, тикетов: %d, перемещений: %d; используйте каскадное удаление",
			borrows, tickets, movements,
		)
	}

	if err := s.equipmentRepo.DeleteEquipment(ctx, id); err != nil {
		return err
	}

	s.InvalidateAvailability(ctx, id)

	actorID, _ := utils.GetUserIDFromCtx(ctx)
	s.bus.Publish(ctx, events.NewAuditEvent("equipment.deleted", actorID, "equipment", id, nil))

	return nil
}

// ComputeAvailability — единственное место, где сходятся все четыре сигнала
// занятости: административный статус, состояние, активная выдача и открытый
// тикет. Результат недолго живёт в кеше.
func (s *EquipmentService) ComputeAvailability(ctx context.Context, id uint64) (*dto.AvailabilityDTO, error) {
	cacheKey := availabilityCacheKey(id)

	if cached, err := s.cacheRepo.Get(ctx, cacheKey); err == nil && cached != "" {
		var availability dto.AvailabilityDTO
		if err := json.Unmarshal([]byte(cached), &availability); err == nil {
			return &availability, nil
		}
		// Битый кеш не повод для отказа: пересчитываем.
		s.logger.Warn("Не удалось разобрать кеш доступности", zap.Uint64("equipment_id", id))
	}

	equipment, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return nil, err
	}

	availability, err := s.CheckAvailabilityTx(ctx, s.storage, equipment)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(availability); err == nil {
		if err := s.cacheRepo.Set(ctx, cacheKey, string(raw), s.cfg.Borrow.AvailabilityTTL); err != nil {
			s.logger.Warn("Не удалось записать кеш доступности", zap.Uint64("equipment_id", id), zap.Error(err))
		}
	}

	return availability, nil
}

func (s *EquipmentService) CheckAvailabilityTx(ctx context.Context, q repositories.Querier, equipment *entities.Equipment) (*dto.AvailabilityDTO, error) {
	result := &dto.AvailabilityDTO{EquipmentID: equipment.ID}

	switch {
	case equipment.AdministrativeStatus == constants.AdminStatusInactive:
		result.Reason = constants.ReasonInactive
	case equipment.Condition == constants.ConditionDisposed:
		result.Reason = constants.ReasonDisposed
	case equipment.Condition == constants.ConditionUnderMaintenance:
		result.Reason = constants.ReasonUnderMaintenance
	}
	if result.Reason != "" {
		return result, nil
	}

	activeBorrow, err := s.borrowRepo.FindActiveByEquipmentTx(ctx, q, equipment.ID)
	if err != nil {
		return nil, err
	}
	if activeBorrow != nil {
		result.Reason = constants.ReasonActiveBorrow
		return result, nil
	}

	openTicket, err := s.maintenanceRepo.FindActiveByEquipmentTx(ctx, q, equipment.ID)
	if err != nil {
		return nil, err
	}
	if openTicket != nil {
		result.Reason = constants.ReasonOpenTicket
		return result, nil
	}

	result.Available = true
	return result, nil
}

func (s *EquipmentService) InvalidateAvailability(ctx context.Context, equipmentID uint64) {
	if err := s.cacheRepo.Del(ctx, availabilityCacheKey(equipmentID)); err != nil {
		s.logger.Warn("Не удалось сбросить кеш доступности",
			zap.Uint64("equipment_id", equipmentID), zap.Error(err))
	}
}
