package entities

import (
	"labequip-system/pkg/types"
)

type Equipment struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	SerialNumber string `json:"serial_number"`
	CategoryID uint64 `json:"category_id"`
	// RoomID — денормализованная копия последней записи журнала перемещений.
	// Обновляется ТОЛЬКО в одной транзакции с добавлением записи в журнал.
	RoomID               *uint64 `json:"room_id"`
	Condition            string  `json:"condition"`
	AdministrativeStatus string  `json:"administrative_status"`
	Description          string  `json:"description"`

	types.BaseEntity // CreatedAt, UpdatedAt

	// Поля для связанных данных (не колонки в таблице)
	Category *Category `db:"-"`
	Room     *Room     `db:"-"`
}

// Availability — производный признак: можно ли прямо сейчас подать
// заявку на выдачу этой единицы оборудования.
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}
