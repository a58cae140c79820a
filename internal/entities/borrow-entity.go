package entities

import (
	"time"

	"labequip-system/pkg/types"
)

// BorrowRequest — заявка на выдачу оборудования.
// Статусная машина: PENDING -> APPROVED -> BORROWED -> RETURNED,
// PENDING -> REJECTED, BORROWED -> OVERDUE -> RETURNED.
type BorrowRequest struct {
	ID          uint64 `json:"id"`
	EquipmentID uint64 `json:"equipment_id"`
	BorrowerID  uint64 `json:"borrower_id"`
	Status      string `json:"status"`

	BorrowDate         time.Time  `json:"borrow_date"`
	ExpectedReturnDate time.Time  `json:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date"`

	ApprovedBy *uint64    `json:"approved_by"`
	ApprovedAt *time.Time `json:"approved_at"`

	Purpose string `json:"purpose"`

	// Снимки состояния оборудования на момент выдачи и возврата.
	ConditionBefore *string `json:"condition_before"`
	ConditionAfter  *string `json:"condition_after"`

	types.BaseEntity

	Equipment *Equipment `db:"-"`
	Borrower  *User      `db:"-"`
}
