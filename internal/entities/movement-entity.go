package entities

import "time"

// MovementRecord — запись журнала перемещений. Журнал append-only:
// записи никогда не обновляются и не удаляются, кроме каскадного удаления
// оборудования целиком.
type MovementRecord struct {
	ID          uint64  `json:"id"`
	EquipmentID uint64  `json:"equipment_id"`
	FromRoomID  *uint64 `json:"from_room_id"`
	ToRoomID    uint64  `json:"to_room_id"`
	MovedBy     uint64  `json:"moved_by"`
	Reason      string  `json:"reason"`

	MovedAt   time.Time `json:"moved_at"`
	CreatedAt time.Time `json:"created_at"`

	FromRoom *Room `db:"-"`
	ToRoom   *Room `db:"-"`
	Mover    *User `db:"-"`
}
