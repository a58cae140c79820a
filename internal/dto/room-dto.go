package dto

type CreateRoomDTO struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Building string `json:"building" validate:"required,min=1,max=255"`
	Floor    int    `json:"floor" validate:"omitempty"`
}

type UpdateRoomDTO struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Building *string `json:"building,omitempty" validate:"omitempty,min=1,max=255"`
	Floor    *int    `json:"floor,omitempty"`
}

type RoomDTO struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Building string `json:"building"`
	Floor    int    `json:"floor"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
