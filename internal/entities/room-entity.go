package entities

import "labequip-system/pkg/types"

type Room struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Building string `json:"building"`
	Floor    int    `json:"floor"`

	types.BaseEntity
}
