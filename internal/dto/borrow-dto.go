package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type SubmitBorrowDTO struct {
	EquipmentID        uint64    `json:"equipment_id" validate:"required,gt=0"`
	BorrowDate         time.Time `json:"borrow_date" validate:"required,date_not_past"`
	ExpectedReturnDate time.Time `json:"expected_return_date" validate:"required,date_not_past"`
	Purpose            string    `json:"purpose" validate:"required,min=3,max=1000"`
}

type RejectBorrowDTO struct {
	Comment string `json:"comment" validate:"omitempty,max=1000"`
}

type ReturnBorrowDTO struct {
	ConditionAfter *string `json:"condition_after,omitempty"`
}

type BorrowRequestDTO struct {
	ID          uint64       `json:"id"`
	Status      string       `json:"status"`
	Equipment   ShortEquipmentDTO `json:"equipment"`
	Borrower    ShortUserDTO `json:"borrower"`
	ApprovedBy  *ShortUserDTO `json:"approved_by,omitempty"`

	BorrowDate         string      `json:"borrow_date"`
	ExpectedReturnDate string      `json:"expected_return_date"`
	ActualReturnDate   null.String `json:"actual_return_date"`

	Purpose         string      `json:"purpose"`
	ConditionBefore null.String `json:"condition_before"`
	ConditionAfter  null.String `json:"condition_after"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ShortEquipmentDTO struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`
}

// BorrowHistoryReportRowDTO — строка отчёта по истории выдач.
type BorrowHistoryReportRowDTO struct {
	ID                 uint64      `json:"id"`
	EquipmentName      string      `json:"equipment_name"`
	SerialNumber       string      `json:"serial_number"`
	BorrowerFio        string      `json:"borrower_fio"`
	Status             string      `json:"status"`
	BorrowDate         string      `json:"borrow_date"`
	ExpectedReturnDate string      `json:"expected_return_date"`
	ActualReturnDate   null.String `json:"actual_return_date"`
}
