package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"labequip-system/internal/dto"
	"labequip-system/internal/entities"
	"labequip-system/internal/repositories"
	"labequip-system/pkg/contextkeys"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/types"
)

// Фейки репозиториев: поведение задаётся функциональными полями,
// незаданные методы возвращают нулевые значения (Find* — "не найдено").

func ctxWithUser(userID uint64, permissions ...string) context.Context {
	permMap := make(map[string]bool, len(permissions))
	for _, p := range permissions {
		permMap[p] = true
	}
	ctx := context.WithValue(context.Background(), contextkeys.UserIDKey, userID)
	return context.WithValue(ctx, contextkeys.UserPermissionsKey, permMap)
}

type fakeTxManager struct {
	beginErr error
	calls    int
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	m.calls++
	if m.beginErr != nil {
		return m.beginErr
	}
	return fn(nil)
}

type fakeEquipmentRepo struct {
	findFn           func(ctx context.Context, id uint64) (*entities.Equipment, error)
	lockFn           func(ctx context.Context, q repositories.Querier, id uint64) (*entities.Equipment, error)
	createFn         func(ctx context.Context, equipment entities.Equipment) (uint64, error)
	updateFn         func(ctx context.Context, id uint64, equipment entities.Equipment) error
	deleteFn         func(ctx context.Context, id uint64) error
	deleteTxFn       func(ctx context.Context, q repositories.Querier, id uint64) error
	serialExistsFn   func(ctx context.Context, serialNumber string, excludeID uint64) (bool, error)
	countDependsFn   func(ctx context.Context, id uint64) (int64, int64, int64, error)
	updateLocationFn func(ctx context.Context, q repositories.Querier, id uint64, roomID uint64) error

	deleteTxCalls int
}

func (r *fakeEquipmentRepo) GetEquipments(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error) {
	return nil, 0, nil
}

func (r *fakeEquipmentRepo) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	if r.findFn != nil {
		return r.findFn(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeEquipmentRepo) LockEquipmentTx(ctx context.Context, q repositories.Querier, id uint64) (*entities.Equipment, error) {
	if r.lockFn != nil {
		return r.lockFn(ctx, q, id)
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeEquipmentRepo) CreateEquipment(ctx context.Context, equipment entities.Equipment) (uint64, error) {
	if r.createFn != nil {
		return r.createFn(ctx, equipment)
	}
	return 1, nil
}

func (r *fakeEquipmentRepo) UpdateEquipment(ctx context.Context, id uint64, equipment entities.Equipment) error {
	if r.updateFn != nil {
		return r.updateFn(ctx, id, equipment)
	}
	return nil
}

func (r *fakeEquipmentRepo) DeleteEquipment(ctx context.Context, id uint64) error {
	if r.deleteFn != nil {
		return r.deleteFn(ctx, id)
	}
	return nil
}

func (r *fakeEquipmentRepo) DeleteEquipmentTx(ctx context.Context, q repositories.Querier, id uint64) error {
	r.deleteTxCalls++
	if r.deleteTxFn != nil {
		return r.deleteTxFn(ctx, q, id)
	}
	return nil
}

func (r *fakeEquipmentRepo) SerialNumberExists(ctx context.Context, serialNumber string, excludeID uint64) (bool, error) {
	if r.serialExistsFn != nil {
		return r.serialExistsFn(ctx, serialNumber, excludeID)
	}
	return false, nil
}

func (r *fakeEquipmentRepo) CountDependents(ctx context.Context, id uint64) (int64, int64, int64, error) {
	if r.countDependsFn != nil {
		return r.countDependsFn(ctx, id)
	}
	return 0, 0, 0, nil
}

func (r *fakeEquipmentRepo) UpdateLocationTx(ctx context.Context, q repositories.Querier, id uint64, roomID uint64) error {
	if r.updateLocationFn != nil {
		return r.updateLocationFn(ctx, q, id, roomID)
	}
	return nil
}

type fakeBorrowRepo struct {
	findFn          func(ctx context.Context, id uint64) (*entities.BorrowRequest, error)
	findActiveFn    func(ctx context.Context, q repositories.Querier, equipmentID uint64) (*entities.BorrowRequest, error)
	createFn        func(ctx context.Context, q repositories.Querier, req entities.BorrowRequest) (uint64, error)
	approveFn       func(ctx context.Context, q repositories.Querier, id uint64, approverID uint64) error
	rejectFn        func(ctx context.Context, id uint64, approverID uint64) error
	checkoutFn      func(ctx context.Context, id uint64) error
	returnFn        func(ctx context.Context, id uint64, conditionAfter *string) error
	deleteGuardedFn func(ctx context.Context, id uint64, allowedStatuses []string) error
	promoteFn       func(ctx context.Context, now time.Time) (int64, error)
	deleteAllFn     func(ctx context.Context, q repositories.Querier, equipmentID uint64) (int64, error)

	createCalls    int
	deleteAllCalls int
}

func (r *fakeBorrowRepo) GetBorrowRequests(ctx context.Context, filter types.Filter) ([]dto.BorrowRequestDTO, uint64, error) {
	return nil, 0, nil
}

func (r *fakeBorrowRepo) FindBorrowRequest(ctx context.Context, id uint64) (*entities.BorrowRequest, error) {
	if r.findFn != nil {
		return r.findFn(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeBorrowRepo) FindActiveByEquipmentTx(ctx context.Context, q repositories.Querier, equipmentID uint64) (*entities.BorrowRequest, error) {
	if r.findActiveFn != nil {
		return r.findActiveFn(ctx, q, equipmentID)
	}
	return nil, nil
}

func (r *fakeBorrowRepo) CreateBorrowRequestTx(ctx context.Context, q repositories.Querier, req entities.BorrowRequest) (uint64, error) {
	r.createCalls++
	if r.createFn != nil {
		return r.createFn(ctx, q, req)
	}
	return 1, nil
}

func (r *fakeBorrowRepo) ApproveTx(ctx context.Context, q repositories.Querier, id uint64, approverID uint64) error {
	if r.approveFn != nil {
		return r.approveFn(ctx, q, id, approverID)
	}
	return nil
}

func (r *fakeBorrowRepo) Reject(ctx context.Context, id uint64, approverID uint64) error {
	if r.rejectFn != nil {
		return r.rejectFn(ctx, id, approverID)
	}
	return nil
}

func (r *fakeBorrowRepo) Checkout(ctx context.Context, id uint64) error {
	if r.checkoutFn != nil {
		return r.checkoutFn(ctx, id)
	}
	return nil
}

func (r *fakeBorrowRepo) Return(ctx context.Context, id uint64, conditionAfter *string) error {
	if r.returnFn != nil {
		return r.returnFn(ctx, id, conditionAfter)
	}
	return nil
}

func (r *fakeBorrowRepo) DeleteGuarded(ctx context.Context, id uint64, allowedStatuses []string) error {
	if r.deleteGuardedFn != nil {
		return r.deleteGuardedFn(ctx, id, allowedStatuses)
	}
	return nil
}

func (r *fakeBorrowRepo) PromoteOverdue(ctx context.Context, now time.Time) (int64, error) {
	if r.promoteFn != nil {
		return r.promoteFn(ctx, now)
	}
	return 0, nil
}

func (r *fakeBorrowRepo) DeleteAllForEquipmentTx(ctx context.Context, q repositories.Querier, equipmentID uint64) (int64, error) {
	r.deleteAllCalls++
	if r.deleteAllFn != nil {
		return r.deleteAllFn(ctx, q, equipmentID)
	}
	return 0, nil
}

type fakeMaintenanceRepo struct {
	findFn       func(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error)
	findActiveFn func(ctx context.Context, q repositories.Querier, equipmentID uint64) (*entities.MaintenanceRequest, error)
	createFn     func(ctx context.Context, q repositories.Querier, req entities.MaintenanceRequest) (uint64, error)
	assignFn     func(ctx context.Context, id uint64, technicianID uint64) error
	completeFn   func(ctx context.Context, id uint64, resolutionNotes string) error
	cancelFn     func(ctx context.Context, id uint64) error
	deleteFn     func(ctx context.Context, id uint64) error
	deleteAllFn  func(ctx context.Context, q repositories.Querier, equipmentID uint64) (int64, error)

	createCalls    int
	deleteAllCalls int
}

func (r *fakeMaintenanceRepo) GetMaintenanceRequests(ctx context.Context, filter types.Filter) ([]dto.MaintenanceRequestDTO, uint64, error) {
	return nil, 0, nil
}

func (r *fakeMaintenanceRepo) FindMaintenanceRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error) {
	if r.findFn != nil {
		return r.findFn(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeMaintenanceRepo) FindActiveByEquipmentTx(ctx context.Context, q repositories.Querier, equipmentID uint64) (*entities.MaintenanceRequest, error) {
	if r.findActiveFn != nil {
		return r.findActiveFn(ctx, q, equipmentID)
	}
	return nil, nil
}

func (r *fakeMaintenanceRepo) CreateMaintenanceRequestTx(ctx context.Context, q repositories.Querier, req entities.MaintenanceRequest) (uint64, error) {
	r.createCalls++
	if r.createFn != nil {
		return r.createFn(ctx, q, req)
	}
	return 1, nil
}

func (r *fakeMaintenanceRepo) Assign(ctx context.Context, id uint64, technicianID uint64) error {
	if r.assignFn != nil {
		return r.assignFn(ctx, id, technicianID)
	}
	return nil
}

func (r *fakeMaintenanceRepo) Complete(ctx context.Context, id uint64, resolutionNotes string) error {
	if r.completeFn != nil {
		return r.completeFn(ctx, id, resolutionNotes)
	}
	return nil
}

func (r *fakeMaintenanceRepo) Cancel(ctx context.Context, id uint64) error {
	if r.cancelFn != nil {
		return r.cancelFn(ctx, id)
	}
	return nil
}

func (r *fakeMaintenanceRepo) DeleteCompleted(ctx context.Context, id uint64) error {
	if r.deleteFn != nil {
		return r.deleteFn(ctx, id)
	}
	return nil
}

func (r *fakeMaintenanceRepo) DeleteAllForEquipmentTx(ctx context.Context, q repositories.Querier, equipmentID uint64) (int64, error) {
	r.deleteAllCalls++
	if r.deleteAllFn != nil {
		return r.deleteAllFn(ctx, q, equipmentID)
	}
	return 0, nil
}

type fakeMovementRepo struct {
	recordFn    func(ctx context.Context, move entities.MovementRecord) (*entities.MovementRecord, error)
	historyFn   func(ctx context.Context, equipmentID uint64) ([]dto.MovementRecordDTO, error)
	latestFn    func(ctx context.Context, equipmentID uint64) (*entities.MovementRecord, error)
	deleteAllFn func(ctx context.Context, q repositories.Querier, equipmentID uint64) (int64, error)

	deleteAllCalls int
}

func (r *fakeMovementRepo) RecordMove(ctx context.Context, move entities.MovementRecord) (*entities.MovementRecord, error) {
	if r.recordFn != nil {
		return r.recordFn(ctx, move)
	}
	saved := move
	saved.ID = 1
	return &saved, nil
}

func (r *fakeMovementRepo) GetHistory(ctx context.Context, equipmentID uint64) ([]dto.MovementRecordDTO, error) {
	if r.historyFn != nil {
		return r.historyFn(ctx, equipmentID)
	}
	return nil, nil
}

func (r *fakeMovementRepo) FindLatestForEquipment(ctx context.Context, equipmentID uint64) (*entities.MovementRecord, error) {
	if r.latestFn != nil {
		return r.latestFn(ctx, equipmentID)
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeMovementRepo) DeleteAllForEquipmentTx(ctx context.Context, q repositories.Querier, equipmentID uint64) (int64, error) {
	r.deleteAllCalls++
	if r.deleteAllFn != nil {
		return r.deleteAllFn(ctx, q, equipmentID)
	}
	return 0, nil
}

type fakeRoomRepo struct {
	existsFn func(ctx context.Context, id uint64) (bool, error)
}

func (r *fakeRoomRepo) GetRooms(ctx context.Context, limit, offset uint64) ([]dto.RoomDTO, uint64, error) {
	return nil, 0, nil
}

func (r *fakeRoomRepo) FindRoom(ctx context.Context, id uint64) (*dto.RoomDTO, error) {
	return nil, apperrors.ErrNotFound
}

func (r *fakeRoomRepo) RoomExists(ctx context.Context, id uint64) (bool, error) {
	if r.existsFn != nil {
		return r.existsFn(ctx, id)
	}
	return true, nil
}

func (r *fakeRoomRepo) CreateRoom(ctx context.Context, payload dto.CreateRoomDTO) (uint64, error) {
	return 1, nil
}

func (r *fakeRoomRepo) UpdateRoom(ctx context.Context, id uint64, payload dto.UpdateRoomDTO) error {
	return nil
}

func (r *fakeRoomRepo) DeleteRoom(ctx context.Context, id uint64) error { return nil }

type fakeCategoryRepo struct {
	existsFn func(ctx context.Context, id uint64) (bool, error)
}

func (r *fakeCategoryRepo) GetCategories(ctx context.Context, limit, offset uint64) ([]dto.CategoryDTO, uint64, error) {
	return nil, 0, nil
}

func (r *fakeCategoryRepo) FindCategory(ctx context.Context, id uint64) (*dto.CategoryDTO, error) {
	return nil, apperrors.ErrNotFound
}

func (r *fakeCategoryRepo) CategoryExists(ctx context.Context, id uint64) (bool, error) {
	if r.existsFn != nil {
		return r.existsFn(ctx, id)
	}
	return true, nil
}

func (r *fakeCategoryRepo) CreateCategory(ctx context.Context, payload dto.CreateCategoryDTO) (uint64, error) {
	return 1, nil
}

func (r *fakeCategoryRepo) UpdateCategory(ctx context.Context, id uint64, payload dto.UpdateCategoryDTO) error {
	return nil
}

func (r *fakeCategoryRepo) DeleteCategory(ctx context.Context, id uint64) error { return nil }

type fakeUserRepo struct {
	findFn        func(ctx context.Context, id uint64) (*entities.User, error)
	findByEmailFn func(ctx context.Context, email string) (*entities.User, error)
	existsFn      func(ctx context.Context, id uint64) (bool, error)
}

func (r *fakeUserRepo) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	if r.findFn != nil {
		return r.findFn(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	if r.findByEmailFn != nil {
		return r.findByEmailFn(ctx, email)
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) UserExists(ctx context.Context, id uint64) (bool, error) {
	if r.existsFn != nil {
		return r.existsFn(ctx, id)
	}
	return true, nil
}

// fakeCache — кеш в памяти без TTL.
type fakeCache struct {
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return "", apperrors.ErrNotFound
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.data[key] = value.(string)
	return nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}
