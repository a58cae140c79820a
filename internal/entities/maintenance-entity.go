package entities

import (
	"time"

	"labequip-system/pkg/types"
)

// MaintenanceRequest — заявка на обслуживание.
// PENDING -> IN_PROGRESS -> COMPLETED; PENDING|IN_PROGRESS -> CANCELLED.
type MaintenanceRequest struct {
	ID           uint64  `json:"id"`
	EquipmentID  uint64  `json:"equipment_id"`
	ReporterID   uint64  `json:"reporter_id"`
	TechnicianID *uint64 `json:"technician_id"`
	Status       string  `json:"status"`

	IssueDescription string     `json:"issue_description"`
	StartDate        *time.Time `json:"start_date"`
	CompletionDate   *time.Time `json:"completion_date"`
	ResolutionNotes  *string    `json:"resolution_notes"`

	types.BaseEntity

	Equipment  *Equipment `db:"-"`
	Reporter   *User      `db:"-"`
	Technician *User      `db:"-"`
}
