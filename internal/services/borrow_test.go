package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"labequip-system/internal/dto"
	"labequip-system/internal/entities"
	"labequip-system/internal/repositories"
	"labequip-system/pkg/constants"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/eventbus"
)

type borrowTestEnv struct {
	svc       BorrowServiceInterface
	eq        *fakeEquipmentRepo
	br        *fakeBorrowRepo
	mr        *fakeMaintenanceRepo
	txManager *fakeTxManager
}

func newBorrowTestEnv() *borrowTestEnv {
	env := &borrowTestEnv{
		eq:        &fakeEquipmentRepo{},
		br:        &fakeBorrowRepo{},
		mr:        &fakeMaintenanceRepo{},
		txManager: &fakeTxManager{},
	}
	env.eq.lockFn = func(ctx context.Context, q repositories.Querier, id uint64) (*entities.Equipment, error) {
		return activeEquipment(id), nil
	}

	equipmentService := newEquipmentServiceForTest(env.eq, env.br, env.mr, &fakeCategoryRepo{}, newFakeCache())
	env.svc = NewBorrowService(env.br, env.eq, equipmentService, env.txManager, testConfig(), eventbus.New(zap.NewNop()), zap.NewNop())
	return env
}

func validSubmitPayload() dto.SubmitBorrowDTO {
	now := time.Now()
	return dto.SubmitBorrowDTO{
		EquipmentID:        1,
		BorrowDate:         now,
		ExpectedReturnDate: now.AddDate(0, 0, 7),
		Purpose:            "лабораторная работа по электронике",
	}
}

func TestSubmit_Success(t *testing.T) {
	env := newBorrowTestEnv()

	newID, err := env.svc.Submit(ctxWithUser(5), validSubmitPayload())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), newID)
	assert.Equal(t, 1, env.txManager.calls, "подача идёт в транзакции")
	assert.Equal(t, 1, env.br.createCalls)
}

func TestSubmit_ConflictWhenEquipmentBusy(t *testing.T) {
	env := newBorrowTestEnv()
	env.br.findActiveFn = func(ctx context.Context, q repositories.Querier, equipmentID uint64) (*entities.BorrowRequest, error) {
		return &entities.BorrowRequest{ID: 7, EquipmentID: equipmentID, Status: constants.BorrowStatusApproved}, nil
	}

	_, err := env.svc.Submit(ctxWithUser(5), validSubmitPayload())

	var conflictErr *apperrors.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Contains(t, conflictErr.Message, constants.ReasonActiveBorrow)
	assert.Zero(t, env.br.createCalls, "проигравший гонку не должен создать вторую заявку")
}

func TestSubmit_EquipmentNotFound(t *testing.T) {
	env := newBorrowTestEnv()
	env.eq.lockFn = nil

	_, err := env.svc.Submit(ctxWithUser(5), validSubmitPayload())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSubmit_DateValidation(t *testing.T) {
	env := newBorrowTestEnv()
	now := time.Now()

	t.Run("возврат раньше выдачи", func(t *testing.T) {
		payload := validSubmitPayload()
		payload.ExpectedReturnDate = now.AddDate(0, 0, -1)

		_, err := env.svc.Submit(ctxWithUser(5), payload)

		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "expected_return_date")
	})

	t.Run("превышен максимальный срок", func(t *testing.T) {
		payload := validSubmitPayload()
		payload.ExpectedReturnDate = now.AddDate(0, 0, 45)

		_, err := env.svc.Submit(ctxWithUser(5), payload)

		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "expected_return_date")
	})
}

func TestApprove_Success(t *testing.T) {
	env := newBorrowTestEnv()
	env.br.findFn = func(ctx context.Context, id uint64) (*entities.BorrowRequest, error) {
		return &entities.BorrowRequest{ID: id, EquipmentID: 1, Status: constants.BorrowStatusPending}, nil
	}

	approvedBy := uint64(0)
	env.br.approveFn = func(ctx context.Context, q repositories.Querier, id uint64, approverID uint64) error {
		approvedBy = approverID
		return nil
	}

	err := env.svc.Approve(ctxWithUser(9, constants.PermApproveBorrow), 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), approvedBy)
}

func TestApprove_ConflictWhenAnotherActive(t *testing.T) {
	env := newBorrowTestEnv()
	env.br.findFn = func(ctx context.Context, id uint64) (*entities.BorrowRequest, error) {
		return &entities.BorrowRequest{ID: id, EquipmentID: 1, Status: constants.BorrowStatusPending}, nil
	}
	env.br.findActiveFn = func(ctx context.Context, q repositories.Querier, equipmentID uint64) (*entities.BorrowRequest, error) {
		return &entities.BorrowRequest{ID: 99, EquipmentID: equipmentID, Status: constants.BorrowStatusBorrowed}, nil
	}

	approveCalled := false
	env.br.approveFn = func(ctx context.Context, q repositories.Querier, id uint64, approverID uint64) error {
		approveCalled = true
		return nil
	}

	err := env.svc.Approve(ctxWithUser(9, constants.PermApproveBorrow), 3)

	var conflictErr *apperrors.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.False(t, approveCalled, "вторая активная выдача недопустима")
}

func TestApprove_RequiresPermission(t *testing.T) {
	env := newBorrowTestEnv()

	err := env.svc.Approve(ctxWithUser(9), 3)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestReturn_InvalidCondition(t *testing.T) {
	env := newBorrowTestEnv()

	bad := "SPARKLING"
	err := env.svc.Return(ctxWithUser(9, constants.PermApproveBorrow), 3, dto.ReturnBorrowDTO{ConditionAfter: &bad})

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "condition_after")
}

func TestReturn_Success(t *testing.T) {
	env := newBorrowTestEnv()
	env.br.findFn = func(ctx context.Context, id uint64) (*entities.BorrowRequest, error) {
		return &entities.BorrowRequest{ID: id, EquipmentID: 1, Status: constants.BorrowStatusBorrowed}, nil
	}

	var gotCondition *string
	env.br.returnFn = func(ctx context.Context, id uint64, conditionAfter *string) error {
		gotCondition = conditionAfter
		return nil
	}

	fair := constants.ConditionFair
	err := env.svc.Return(ctxWithUser(9, constants.PermApproveBorrow), 3, dto.ReturnBorrowDTO{ConditionAfter: &fair})
	require.NoError(t, err)
	require.NotNil(t, gotCondition)
	assert.Equal(t, constants.ConditionFair, *gotCondition)
}

func TestDelete_ForbiddenForForeignRequest(t *testing.T) {
	env := newBorrowTestEnv()
	env.br.findFn = func(ctx context.Context, id uint64) (*entities.BorrowRequest, error) {
		return &entities.BorrowRequest{ID: id, EquipmentID: 1, BorrowerID: 2, Status: constants.BorrowStatusPending}, nil
	}

	err := env.svc.Delete(ctxWithUser(5), 3)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestDelete_OwnerAllowed(t *testing.T) {
	env := newBorrowTestEnv()
	env.br.findFn = func(ctx context.Context, id uint64) (*entities.BorrowRequest, error) {
		return &entities.BorrowRequest{ID: id, EquipmentID: 1, BorrowerID: 5, Status: constants.BorrowStatusPending}, nil
	}

	var gotStatuses []string
	env.br.deleteGuardedFn = func(ctx context.Context, id uint64, allowedStatuses []string) error {
		gotStatuses = allowedStatuses
		return nil
	}

	err := env.svc.Delete(ctxWithUser(5), 3)
	require.NoError(t, err)
	assert.Equal(t, constants.DeletableBorrowStatuses, gotStatuses)
}

func TestPromoteOverdue_PassesThroughCount(t *testing.T) {
	env := newBorrowTestEnv()
	env.br.promoteFn = func(ctx context.Context, now time.Time) (int64, error) {
		return 4, nil
	}

	promoted, err := env.svc.PromoteOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), promoted)
}
