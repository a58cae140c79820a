package dto

import "github.com/aarondl/null/v8"

type CreateEquipmentDTO struct {
	Name         string `json:"name" validate:"required,min=2,max=255"`
	SerialNumber string `json:"serial_number" validate:"required,serial_number"`
	CategoryID   uint64 `json:"category_id" validate:"required,gt=0"`
	Condition    string `json:"condition" validate:"omitempty"`
	Description  string `json:"description" validate:"omitempty,max=2000"`
}

type UpdateEquipmentDTO struct {
	Name                 *string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	SerialNumber         *string `json:"serial_number,omitempty" validate:"omitempty,serial_number"`
	CategoryID           *uint64 `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	Condition            *string `json:"condition,omitempty"`
	AdministrativeStatus *string `json:"administrative_status,omitempty"`
	Description          *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type EquipmentDTO struct {
	ID                   uint64           `json:"id"`
	Name                 string           `json:"name"`
	SerialNumber         string           `json:"serial_number"`
	Condition            string           `json:"condition"`
	AdministrativeStatus string           `json:"administrative_status"`
	Description          string           `json:"description"`
	Category             ShortCategoryDTO `json:"category"`
	Room                 *ShortRoomDTO    `json:"room"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type AvailabilityDTO struct {
	EquipmentID uint64 `json:"equipment_id"`
	Available   bool   `json:"available"`
	Reason      string `json:"reason,omitempty"`
}

// CascadeDeleteSummaryDTO — сводка каскадного удаления для аудита:
// сколько зависимых строк снесено в каждой таблице.
type CascadeDeleteSummaryDTO struct {
	EquipmentID         uint64 `json:"equipment_id"`
	BorrowRequests      int64  `json:"borrow_requests"`
	MaintenanceRequests int64  `json:"maintenance_requests"`
	Movements           int64  `json:"movements"`
}

// InventoryReportRowDTO — строка сводного отчёта по оборудованию.
type InventoryReportRowDTO struct {
	ID                   uint64      `json:"id"`
	Name                 string      `json:"name"`
	SerialNumber         string      `json:"serial_number"`
	CategoryName         string      `json:"category_name"`
	RoomName             null.String `json:"room_name"`
	Condition            string      `json:"condition"`
	AdministrativeStatus string      `json:"administrative_status"`
	ActiveBorrowStatus   null.String `json:"active_borrow_status"`
	ActiveBorrowerFio    null.String `json:"active_borrower_fio"`
	OpenTicketStatus     null.String `json:"open_ticket_status"`
}
