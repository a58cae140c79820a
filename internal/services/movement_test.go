package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"labequip-system/internal/dto"
	"labequip-system/internal/entities"
	"labequip-system/pkg/constants"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/eventbus"
)

type movementTestEnv struct {
	svc   MovementServiceInterface
	eq    *fakeEquipmentRepo
	mv    *fakeMovementRepo
	rooms *fakeRoomRepo
}

func newMovementTestEnv() *movementTestEnv {
	env := &movementTestEnv{
		eq:    &fakeEquipmentRepo{},
		mv:    &fakeMovementRepo{},
		rooms: &fakeRoomRepo{},
	}
	env.eq.findFn = func(ctx context.Context, id uint64) (*entities.Equipment, error) {
		return activeEquipment(id), nil
	}
	env.svc = NewMovementService(env.mv, env.eq, env.rooms, eventbus.New(zap.NewNop()), zap.NewNop())
	return env
}

func TestRecordMove_Success(t *testing.T) {
	env := newMovementTestEnv()

	var gotMove entities.MovementRecord
	env.mv.recordFn = func(ctx context.Context, move entities.MovementRecord) (*entities.MovementRecord, error) {
		gotMove = move
		saved := move
		saved.ID = 10
		return &saved, nil
	}

	record, err := env.svc.RecordMove(ctxWithUser(4, constants.PermMoveEquipment), 1, dto.RecordMoveDTO{
		ToRoomID: 2,
		Reason:   "перенос в лабораторию 201",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), record.ID)
	assert.Equal(t, uint64(4), gotMove.MovedBy, "перемещающий берётся из контекста")
	assert.Equal(t, uint64(2), gotMove.ToRoomID)
}

func TestRecordMove_RoomNotFound(t *testing.T) {
	env := newMovementTestEnv()
	env.rooms.existsFn = func(ctx context.Context, id uint64) (bool, error) {
		return false, nil
	}

	_, err := env.svc.RecordMove(ctxWithUser(4, constants.PermMoveEquipment), 1, dto.RecordMoveDTO{
		ToRoomID: 99,
		Reason:   "перенос",
	})

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "to_room_id")
}

func TestRecordMove_SameRoomConflict(t *testing.T) {
	env := newMovementTestEnv()
	roomID := uint64(2)
	env.eq.findFn = func(ctx context.Context, id uint64) (*entities.Equipment, error) {
		e := activeEquipment(id)
		e.RoomID = &roomID
		return e, nil
	}

	_, err := env.svc.RecordMove(ctxWithUser(4, constants.PermMoveEquipment), 1, dto.RecordMoveDTO{
		ToRoomID: 2,
		Reason:   "перенос туда же",
	})

	var conflictErr *apperrors.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

func TestRecordMove_RequiresPermission(t *testing.T) {
	env := newMovementTestEnv()

	_, err := env.svc.RecordMove(ctxWithUser(4), 1, dto.RecordMoveDTO{ToRoomID: 2, Reason: "перенос"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGetHistory_EquipmentNotFound(t *testing.T) {
	env := newMovementTestEnv()
	env.eq.findFn = nil

	_, err := env.svc.GetHistory(ctxWithUser(4), 77)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
