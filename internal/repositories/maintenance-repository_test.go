package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labequip-system/internal/entities"
	"labequip-system/pkg/constants"
	apperrors "labequip-system/pkg/errors"
)

func createTicket(t *testing.T, repo MaintenanceRepositoryInterface, equipmentID, reporterID uint64) uint64 {
	t.Helper()
	id, err := repo.CreateMaintenanceRequestTx(context.Background(), testPool, entities.MaintenanceRequest{
		EquipmentID:      equipmentID,
		ReporterID:       reporterID,
		IssueDescription: "не включается",
	})
	require.NoError(t, err)
	return id
}

func TestMaintenanceLifecycle(t *testing.T) {
	pool := requireTestPool(t)
	truncateAll(t)
	ctx := context.Background()

	categoryID := seedCategory(t, "Осциллографы")
	equipmentID := seedEquipment(t, "RGL-0001", categoryID, nil)
	reporterID := seedUser(t, "student@lab.local")
	technicianID := seedUser(t, "tech@lab.local")

	repo := NewMaintenanceRepository(pool)
	id := createTicket(t, repo, equipmentID, reporterID)

	// PENDING -> IN_PROGRESS
	require.NoError(t, repo.Assign(ctx, id, technicianID))
	req, err := repo.FindMaintenanceRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.MaintenanceStatusInProgress, req.Status)
	require.NotNil(t, req.TechnicianID)
	assert.Equal(t, technicianID, *req.TechnicianID)
	assert.NotNil(t, req.StartDate)

	// IN_PROGRESS -> COMPLETED
	require.NoError(t, repo.Complete(ctx, id, "заменён блок питания"))
	req, err = repo.FindMaintenanceRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.MaintenanceStatusCompleted, req.Status)
	assert.NotNil(t, req.CompletionDate)
	require.NotNil(t, req.ResolutionNotes)
	assert.Equal(t, "заменён блок питания", *req.ResolutionNotes)
}

func TestMaintenanceTransition_Guards(t *testing.T) {
	pool := requireTestPool(t)
	truncateAll(t)
	ctx := context.Background()

	categoryID := seedCategory(t, "Осциллографы")
	equipmentID := seedEquipment(t, "RGL-0001", categoryID, nil)
	reporterID := seedUser(t, "student@lab.local")
	technicianID := seedUser(t, "tech@lab.local")

	repo := NewMaintenanceRepository(pool)
	id := createTicket(t, repo, equipmentID, reporterID)

	// Завершить можно только назначенный тикет.
	err := repo.Complete(ctx, id, "готово")
	var conflictErr *apperrors.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Contains(t, conflictErr.Message, constants.MaintenanceStatusPending)

	require.NoError(t, repo.Assign(ctx, id, technicianID))
	require.NoError(t, repo.Complete(ctx, id, "готово"))

	// Завершённый тикет не отменяется.
	err = repo.Cancel(ctx, id)
	require.ErrorAs(t, err, &conflictErr)
	assert.Contains(t, conflictErr.Message, constants.MaintenanceStatusCompleted)
}

func TestMaintenanceCancel_FromBothActiveStatuses(t *testing.T) {
	pool := requireTestPool(t)
	truncateAll(t)
	ctx := context.Background()

	categoryID := seedCategory(t, "Осциллографы")
	eq1 := seedEquipment(t, "RGL-0001", categoryID, nil)
	eq2 := seedEquipment(t, "RGL-0002", categoryID, nil)
	reporterID := seedUser(t, "student@lab.local")
	technicianID := seedUser(t, "tech@lab.local")

	repo := NewMaintenanceRepository(pool)

	pending := createTicket(t, repo, eq1, reporterID)
	require.NoError(t, repo.Cancel(ctx, pending))

	inProgress := createTicket(t, repo, eq2, reporterID)
	require.NoError(t, repo.Assign(ctx, inProgress, technicianID))
	require.NoError(t, repo.Cancel(ctx, inProgress))
}

func TestFindActiveByEquipment_Maintenance(t *testing.T) {
	pool := requireTestPool(t)
	truncateAll(t)
	ctx := context.Background()

	categoryID := seedCategory(t, "Осциллографы")
	equipmentID := seedEquipment(t, "RGL-0001", categoryID, nil)
	reporterID := seedUser(t, "student@lab.local")

	repo := NewMaintenanceRepository(pool)

	active, err := repo.FindActiveByEquipmentTx(ctx, pool, equipmentID)
	require.NoError(t, err)
	assert.Nil(t, active)

	id := createTicket(t, repo, equipmentID, reporterID)
	active, err = repo.FindActiveByEquipmentTx(ctx, pool, equipmentID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, id, active.ID)

	// Отменённый тикет перестаёт блокировать оборудование.
	require.NoError(t, repo.Cancel(ctx, id))
	active, err = repo.FindActiveByEquipmentTx(ctx, pool, equipmentID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestDeleteCompleted(t *testing.T) {
	pool := requireTestPool(t)
	truncateAll(t)
	ctx := context.Background()

	categoryID := seedCategory(t, "Осциллографы")
	equipmentID := seedEquipment(t, "RGL-0001", categoryID, nil)
	reporterID := seedUser(t, "student@lab.local")
	technicianID := seedUser(t, "tech@lab.local")

	repo := NewMaintenanceRepository(pool)
	id := createTicket(t, repo, equipmentID, reporterID)

	// Открытый тикет удалить нельзя.
	err := repo.DeleteCompleted(ctx, id)
	var conflictErr *apperrors.ConflictError
	require.ErrorAs(t, err, &conflictErr)

	require.NoError(t, repo.Assign(ctx, id, technicianID))
	require.NoError(t, repo.Complete(ctx, id, "готово"))
	require.NoError(t, repo.DeleteCompleted(ctx, id))

	_, err = repo.FindMaintenanceRequest(ctx, id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOpenTicketUniqueIndex_Backstop(t *testing.T) {
	pool := requireTestPool(t)
	truncateAll(t)
	ctx := context.Background()

	categoryID := seedCategory(t, "Осциллографы")
	equipmentID := seedEquipment(t, "RGL-0001", categoryID, nil)
	reporterID := seedUser(t, "student@lab.local")

	repo := NewMaintenanceRepository(pool)
	createTicket(t, repo, equipmentID, reporterID)

	// Второй открытый тикет на ту же единицу рвётся на частичном
	// уникальном индексе.
	_, err := repo.CreateMaintenanceRequestTx(ctx, pool, entities.MaintenanceRequest{
		EquipmentID:      equipmentID,
		ReporterID:       reporterID,
		IssueDescription: "дубликат",
	})
	assert.Error(t, err)
}
