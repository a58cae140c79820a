package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labequip-system/internal/entities"
	"labequip-system/pkg/constants"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/types"
)

func TestEquipmentCRUD(t *testing.T) {
	pool := requireTestPool(t)
	truncateAll(t)
	ctx := context.Background()

	categoryID := seedCategory(t, "Осциллографы")
	repo := NewEquipmentRepository(pool)

	id, err := repo.CreateEquipment(ctx, entities.Equipment{
		Name:                 "Осциллограф Rigol DS1054Z",
		SerialNumber:         "RGL-0001",
		CategoryID:           categoryID,
		Condition:            constants.ConditionNew,
		AdministrativeStatus: constants.AdminStatusActive,
		Description:          "четырёхканальный",
	})
	require.NoError(t, err)

	found, err := repo.FindEquipment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "RGL-0001", found.SerialNumber)
	assert.Equal(t, constants.ConditionNew, found.Condition)
	assert.Nil(t, found.RoomID)

	found.Condition = constants.ConditionFair
	found.Description = "потёртый корпус"
	require.NoError(t, repo.UpdateEquipment(ctx, id, *found))

	found, err = repo.FindEquipment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.ConditionFair, found.Condition)
	assert.Equal(t, "потёртый корпус", found.Description)

	require.NoError(t, repo.DeleteEquipment(ctx, id))
	_, err = repo.FindEquipment(ctx, id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEquipmentUpdate_NotFound(t *testing.T) {
	pool := requireTestPool(t)
	truncateAll(t)

	repo := NewEquipmentRepository(pool)
	err := repo.UpdateEquipment(context.Background(), 12345, entities.Equipment{
		Name:                 "нет такого",
		SerialNumber:         "RGL-0404",
		CategoryID:           1,
		Condition:            constants.ConditionGood,
		AdministrativeStatus: constants.AdminStatusActive,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSerialNumberExists(t *testing.T) {
	pool := requireTestPool(t)
	truncateAll(t)
	ctx := context.Background()

	categoryID := seedCategory(t, "Осциллографы")
	id := seedEquipment(t, "RGL-0001", categoryID, nil)

	repo := NewEquipmentRepository(pool)

	exists, err := repo.SerialNumberExists(ctx, "RGL-0001", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	// Сама строка исключается при обновлении.
	exists, err = repo.SerialNumberExists(ctx, "RGL-0001", id)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.SerialNumberExists(ctx, "RGL-9999", 0)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCountDependents(t *testing.T) {
	pool := requireTestPool(t)
	truncateAll(t)
	ctx := context.Background()

	categoryID := seedCategory(t, "Осциллографы")
	equipmentID := seedEquipment(t, "RGL-0001", categoryID, nil)
	borrowerID := seedUser(t, "student@lab.local")

	seedBorrow(t, equipmentID, borrowerID, constants.BorrowStatusReturned, time.Now())
	seedBorrow(t, equipmentID, borrowerID, constants.BorrowStatusRejected, time.Now())

	repo := NewEquipmentRepository(pool)
	borrows, tickets, movements, err := repo.CountDependents(ctx, equipmentID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), borrows)
	assert.Zero(t, tickets)
	assert.Zero(t, movements)
}

func TestGetEquipments_SearchAndFilter(t *testing.T) {
	pool := requireTestPool(t)
	truncateAll(t)
	ctx := context.Background()

	oscID := seedCategory(t, "Осциллографы")
	genID := seedCategory(t, "Генераторы")
	seedEquipment(t, "RGL-0001", oscID, nil)
	seedEquipment(t, "RGL-0002", oscID, nil)
	seedEquipment(t, "SIG-0001", genID, nil)

	repo := NewEquipmentRepository(pool)

	list, total, err := repo.GetEquipments(ctx, types.Filter{Search: "RGL"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	assert.Len(t, list, 2)

	list, total, err = repo.GetEquipments(ctx, types.Filter{
		Filter: map[string]interface{}{"category_id": genID},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "SIG-0001", list[0].SerialNumber)
}

// Каскадное удаление на уровне репозиториев: все зависимые строки
// и само оборудование исчезают в одной транзакции.
func TestCascadeDeleteAtomicity(t *testing.T) {
	pool := requireTestPool(t)
	truncateAll(t)
	ctx := context.Background()

	categoryID := seedCategory(t, "Осциллографы")
	roomA := seedRoom(t, "Лаборатория 101")
	roomB := seedRoom(t, "Лаборатория 102")
	equipmentID := seedEquipment(t, "RGL-0001", categoryID, &roomA)
	borrowerID := seedUser(t, "student@lab.local")

	seedBorrow(t, equipmentID, borrowerID, constants.BorrowStatusReturned, time.Now())

	movementRepo := NewMovementRepository(pool)
	_, err := movementRepo.RecordMove(ctx, entities.MovementRecord{
		EquipmentID: equipmentID,
		ToRoomID:    roomB,
		MovedBy:     borrowerID,
		Reason:      "перенос",
	})
	require.NoError(t, err)

	equipmentRepo := NewEquipmentRepository(pool)
	borrowRepo := NewBorrowRepository(pool)
	maintenanceRepo := NewMaintenanceRepository(pool)
	txManager := NewTxManager(pool)

	var borrows, tickets, movements int64
	err = txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := equipmentRepo.LockEquipmentTx(ctx, tx, equipmentID); err != nil {
			return err
		}
		if borrows, err = borrowRepo.DeleteAllForEquipmentTx(ctx, tx, equipmentID); err != nil {
			return err
		}
		if tickets, err = maintenanceRepo.DeleteAllForEquipmentTx(ctx, tx, equipmentID); err != nil {
			return err
		}
		if movements, err = movementRepo.DeleteAllForEquipmentTx(ctx, tx, equipmentID); err != nil {
			return err
		}
		return equipmentRepo.DeleteEquipmentTx(ctx, tx, equipmentID)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), borrows)
	assert.Zero(t, tickets)
	assert.Equal(t, int64(1), movements)

	_, err = equipmentRepo.FindEquipment(ctx, equipmentID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var leftovers int
	require.NoError(t, pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM borrow_requests)
		     + (SELECT COUNT(*) FROM maintenance_requests)
		     + (SELECT COUNT(*) FROM equipment_movements)`).Scan(&leftovers))
	assert.Zero(t, leftovers)
}
