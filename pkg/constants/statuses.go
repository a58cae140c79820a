package constants

// --- СТАТУСЫ ЗАЯВОК НА ВЫДАЧУ (совпадают с кодами в БД) ---
const (
	BorrowStatusPending  = "PENDING"
	BorrowStatusApproved = "APPROVED"
	BorrowStatusRejected = "REJECTED"
	BorrowStatusBorrowed = "BORROWED"
	BorrowStatusReturned = "RETURNED"
	BorrowStatusOverdue  = "OVERDUE"
)

// ActiveBorrowStatuses — статусы, при которых оборудование считается занятым.
// Инвариант: на одну единицу оборудования не более одной заявки в этих статусах.
var ActiveBorrowStatuses = []string{
	BorrowStatusApproved,
	BorrowStatusBorrowed,
	BorrowStatusOverdue,
}

func IsActiveBorrowStatus(code string) bool {
	for _, s := range ActiveBorrowStatuses {
		if s == code {
			return true
		}
	}
	return false
}

// DeletableBorrowStatuses — только эти строки можно физически удалить.
// Удаление активной заявки молча "освободило" бы выданное оборудование.
var DeletableBorrowStatuses = []string{
	BorrowStatusPending,
	BorrowStatusRejected,
	BorrowStatusReturned,
}

func IsDeletableBorrowStatus(code string) bool {
	for _, s := range DeletableBorrowStatuses {
		if s == code {
			return true
		}
	}
	return false
}

// --- СТАТУСЫ ЗАЯВОК НА ОБСЛУЖИВАНИЕ ---
const (
	MaintenanceStatusPending    = "PENDING"
	MaintenanceStatusInProgress = "IN_PROGRESS"
	MaintenanceStatusCompleted  = "COMPLETED"
	MaintenanceStatusCancelled  = "CANCELLED"
)

// ActiveMaintenanceStatuses — открытый тикет блокирует доступность оборудования.
var ActiveMaintenanceStatuses = []string{
	MaintenanceStatusPending,
	MaintenanceStatusInProgress,
}

func IsActiveMaintenanceStatus(code string) bool {
	for _, s := range ActiveMaintenanceStatuses {
		if s == code {
			return true
		}
	}
	return false
}

// --- СОСТОЯНИЕ ОБОРУДОВАНИЯ ---
const (
	ConditionNew              = "NEW"
	ConditionGood             = "GOOD"
	ConditionFair             = "FAIR"
	ConditionPoor             = "POOR"
	ConditionUnderMaintenance = "UNDER_MAINTENANCE"
	ConditionDisposed         = "DISPOSED"
)

var EquipmentConditions = []string{
	ConditionNew,
	ConditionGood,
	ConditionFair,
	ConditionPoor,
	ConditionUnderMaintenance,
	ConditionDisposed,
}

func IsValidCondition(code string) bool {
	for _, s := range EquipmentConditions {
		if s == code {
			return true
		}
	}
	return false
}

// --- АДМИНИСТРАТИВНЫЙ СТАТУС ОБОРУДОВАНИЯ ---
// Ставится администратором и не зависит от выдач/обслуживания.
const (
	AdminStatusActive   = "ACTIVE"
	AdminStatusInactive = "INACTIVE"
)

// --- ПРИЧИНЫ НЕДОСТУПНОСТИ ---
const (
	ReasonAvailable        = ""
	ReasonInactive         = "оборудование выведено из эксплуатации"
	ReasonDisposed         = "оборудование списано"
	ReasonUnderMaintenance = "оборудование на обслуживании"
	ReasonActiveBorrow     = "оборудование уже выдано или зарезервировано"
	ReasonOpenTicket       = "по оборудованию открыта заявка на обслуживание"
)

// --- ПРАВА ---
const (
	PermApproveBorrow   = "approve_borrow"
	PermManageEquipment = "manage_equipment"
	PermAssignTech      = "assign_technician"
	PermMoveEquipment   = "move_equipment"
	PermViewReports     = "view_reports"
)
