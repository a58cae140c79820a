package dto

import "github.com/aarondl/null/v8"

type ReportMaintenanceDTO struct {
	EquipmentID      uint64 `json:"equipment_id" validate:"required,gt=0"`
	IssueDescription string `json:"issue_description" validate:"required,min=5,max=2000"`
}

type AssignMaintenanceDTO struct {
	TechnicianID uint64 `json:"technician_id" validate:"required,gt=0"`
}

type CompleteMaintenanceDTO struct {
	ResolutionNotes string `json:"resolution_notes" validate:"required,min=3,max=2000"`
}

type MaintenanceRequestDTO struct {
	ID         uint64            `json:"id"`
	Status     string            `json:"status"`
	Equipment  ShortEquipmentDTO `json:"equipment"`
	Reporter   ShortUserDTO      `json:"reporter"`
	Technician *ShortUserDTO     `json:"technician,omitempty"`

	IssueDescription string      `json:"issue_description"`
	StartDate        null.String `json:"start_date"`
	CompletionDate   null.String `json:"completion_date"`
	ResolutionNotes  null.String `json:"resolution_notes"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
