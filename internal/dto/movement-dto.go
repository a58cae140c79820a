package dto

import "time"

type RecordMoveDTO struct {
	ToRoomID uint64     `json:"to_room_id" validate:"required,gt=0"`
	Reason   string     `json:"reason" validate:"required,min=3,max=1000"`
	When     *time.Time `json:"when,omitempty"`
}

type MovementRecordDTO struct {
	ID          uint64        `json:"id"`
	EquipmentID uint64        `json:"equipment_id"`
	FromRoom    *ShortRoomDTO `json:"from_room"`
	ToRoom      ShortRoomDTO  `json:"to_room"`
	Mover       ShortUserDTO  `json:"moved_by"`
	Reason      string        `json:"reason"`
	MovedAt     string        `json:"moved_at"`
}
