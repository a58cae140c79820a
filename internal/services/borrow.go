package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
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

type BorrowServiceInterface interface {
	GetBorrowRequests(ctx context.Context, filter types.Filter) ([]dto.BorrowRequestDTO, uint64, error)
	FindBorrowRequest(ctx context.Context, id uint64) (*entities.BorrowRequest, error)

	Submit(ctx context.Context, payload dto.SubmitBorrowDTO) (uint64, error)
	Approve(ctx context.Context, id uint64) error
	Reject(ctx context.Context, id uint64, payload dto.RejectBorrowDTO) error
	Checkout(ctx context.Context, id uint64) error
	Return(ctx context.Context, id uint64, payload dto.ReturnBorrowDTO) error
	Delete(ctx context.Context, id uint64) error

	PromoteOverdue(ctx context.Context) (int64, error)
}

type BorrowService struct {
	borrowRepo       repositories.BorrowRepositoryInterface
	equipmentRepo    repositories.EquipmentRepositoryInterface
	equipmentService EquipmentServiceInterface
	txManager        repositories.TxManagerInterface
	cfg              *config.Config
	bus              *eventbus.Bus
	logger           *zap.Logger
}

func NewBorrowService(
	borrowRepo repositories.BorrowRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	equipmentService EquipmentServiceInterface,
	txManager repositories.TxManagerInterface,
	cfg *config.Config,
	bus *eventbus.Bus,
	logger *zap.Logger,
) BorrowServiceInterface {
	return &BorrowService{
		borrowRepo:       borrowRepo,
		equipmentRepo:    equipmentRepo,
		equipmentService: equipmentService,
		txManager:        txManager,
		cfg:              cfg,
		bus:              bus,
		logger:           logger,
	}
}

func (s *BorrowService) GetBorrowRequests(ctx context.Context, filter types.Filter) ([]dto.BorrowRequestDTO, uint64, error) {
	return s.borrowRepo.GetBorrowRequests(ctx, filter)
}

func (s *BorrowService) FindBorrowRequest(ctx context.Context, id uint64) (*entities.BorrowRequest, error) {
	return s.borrowRepo.FindBorrowRequest(ctx, id)
}

// Submit подаёт заявку на выдачу. Проверка доступности и вставка идут
// в одной транзакции под блокировкой строки оборудования: из двух
// одновременных заявок на занятую единицу вторая получит конфликт,
// а не вторую активную выдачу.
func (s *BorrowService) Submit(ctx context.Context, payload dto.SubmitBorrowDTO) (uint64, error) {
	borrowerID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, err
	}

	validationErr := apperrors.NewValidationError()
	if payload.ExpectedReturnDate.Before(payload.BorrowDate) {
		validationErr.Add("expected_return_date", "дата возврата раньше даты выдачи")
	}
	maxLoan := payload.BorrowDate.AddDate(0, 0, s.cfg.Borrow.MaxLoanDays)
	if payload.ExpectedReturnDate.After(maxLoan) {
		validationErr.Add("expected_return_date",
			fmt.Sprintf("срок выдачи превышает максимум в %d дней", s.cfg.Borrow.MaxLoanDays))
	}
	if validationErr.HasErrors() {
		return 0, validationErr
	}

	var newID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		equipment, err := s.equipmentRepo.LockEquipmentTx(ctx, tx, payload.EquipmentID)
		if err != nil {
			return err
		}

		availability, err := s.equipmentService.CheckAvailabilityTx(ctx, tx, equipment)
		if err != nil {
			return err
		}
		if !availability.Available {
			return apperrors.NewConflictError("заявка отклонена: %s", availability.Reason)
		}

		newID, err = s.borrowRepo.CreateBorrowRequestTx(ctx, tx, entities.BorrowRequest{
			EquipmentID:        payload.EquipmentID,
			BorrowerID:         borrowerID,
			BorrowDate:         payload.BorrowDate,
			ExpectedReturnDate: payload.ExpectedReturnDate,
			Purpose:            payload.Purpose,
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	s.bus.Publish(ctx, events.NewAuditEvent("borrow.submitted", borrowerID, "borrow_request", newID, map[string]interface{}{
		"equipment_id": payload.EquipmentID,
	}))

	return newID, nil
}

// Approve одобряет PENDING-заявку. Идёт под той же блокировкой строки
// оборудования, что и подача: две PENDING-заявки на одну единицу не могут
// быть одобрены обе.
func (s *BorrowService) Approve(ctx context.Context, id uint64) error {
	if err := utils.RequirePermission(ctx, constants.PermApproveBorrow); err != nil {
		return err
	}
	approverID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	req, err := s.borrowRepo.FindBorrowRequest(ctx, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		equipment, err := s.equipmentRepo.LockEquipmentTx(ctx, tx, req.EquipmentID)
		if err != nil {
			return err
		}

		availability, err := s.equipmentService.CheckAvailabilityTx(ctx, tx, equipment)
		if err != nil {
			return err
		}
		if !availability.Available {
			return apperrors.NewConflictError("заявку нельзя одобрить: %s", availability.Reason)
		}

		return s.borrowRepo.ApproveTx(ctx, tx, id, approverID)
	})
	if err != nil {
		return err
	}

	s.equipmentService.InvalidateAvailability(ctx, req.EquipmentID)
	s.bus.Publish(ctx, events.NewAuditEvent("borrow.approved", approverID, "borrow_request", id, nil))

	return nil
}

func (s *BorrowService) Reject(ctx context.Context, id uint64, payload dto.RejectBorrowDTO) error {
	if err := utils.RequirePermission(ctx, constants.PermApproveBorrow); err != nil {
		return err
	}
	approverID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	if err := s.borrowRepo.Reject(ctx, id, approverID); err != nil {
		return err
	}

	details := map[string]interface{}{}
	if payload.Comment != "" {
		details["comment"] = payload.Comment
	}
	s.bus.Publish(ctx, events.NewAuditEvent("borrow.rejected", approverID, "borrow_request", id, details))

	return nil
}

func (s *BorrowService) Checkout(ctx context.Context, id uint64) error {
	if err := utils.RequirePermission(ctx, constants.PermApproveBorrow); err != nil {
		return err
	}

	if err := s.borrowRepo.Checkout(ctx, id); err != nil {
		return err
	}

	actorID, _ := utils.GetUserIDFromCtx(ctx)
	s.bus.Publish(ctx, events.NewAuditEvent("borrow.checked_out", actorID, "borrow_request", id, nil))

	return nil
}

// Return принимает возврат. Из APPROVED это неявная выдача и возврат
// одним действием.
func (s *BorrowService) Return(ctx context.Context, id uint64, payload dto.ReturnBorrowDTO) error {
	if err := utils.RequirePermission(ctx, constants.PermApproveBorrow); err != nil {
		return err
	}

	if payload.ConditionAfter != nil && !constants.IsValidCondition(*payload.ConditionAfter) {
		validationErr := apperrors.NewValidationError()
		validationErr.Add("condition_after", fmt.Sprintf("недопустимое состояние '%s'", *payload.ConditionAfter))
		return validationErr
	}

	req, err := s.borrowRepo.FindBorrowRequest(ctx, id)
	if err != nil {
		return err
	}

	if err := s.borrowRepo.Return(ctx, id, payload.ConditionAfter); err != nil {
		return err
	}

	s.equipmentService.InvalidateAvailability(ctx, req.EquipmentID)

	actorID, _ := utils.GetUserIDFromCtx(ctx)
	s.bus.Publish(ctx, events.NewAuditEvent("borrow.returned", actorID, "borrow_request", id, map[string]interface{}{
		"equipment_id": req.EquipmentID,
	}))

	return nil
}

// Delete удаляет заявку в конечном или ещё не одобренном статусе.
// Чужую заявку может удалить только сотрудник с правом одобрения.
func (s *BorrowService) Delete(ctx context.Context, id uint64) error {
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	req, err := s.borrowRepo.FindBorrowRequest(ctx, id)
	if err != nil {
		return err
	}
	if req.BorrowerID != actorID {
		if err := utils.RequirePermission(ctx, constants.PermApproveBorrow); err != nil {
			return err
		}
	}

	if err := s.borrowRepo.DeleteGuarded(ctx, id, constants.DeletableBorrowStatuses); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.NewAuditEvent("borrow.deleted", actorID, "borrow_request", id, nil))

	return nil
}

// PromoteOverdue — фоновая зачистка: BORROWED с истёкшей датой возврата
// становится OVERDUE. Повторный запуск ничего не меняет.
func (s *BorrowService) PromoteOverdue(ctx context.Context) (int64, error) {
	promoted, err := s.borrowRepo.PromoteOverdue(ctx, timeNow())
	if err != nil {
		s.logger.Error("Ошибка фонового перевода заявок в OVERDUE", zap.Error(err))
		return 0, err
	}
	if promoted > 0 {
		s.logger.Info("Просроченные выдачи переведены в OVERDUE", zap.Int64("count", promoted))
	}
	return promoted, nil
}
