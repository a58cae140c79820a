package dto

type ShortRoomDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type ShortCategoryDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type ShortUserDTO struct {
	ID  uint64 `json:"id"`
	Fio string `json:"fio"`
}
