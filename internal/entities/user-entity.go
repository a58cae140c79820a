package entities

import "labequip-system/pkg/types"

type User struct {
	ID           uint64   `json:"id"`
	Fio          string   `json:"fio"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`

	types.BaseEntity
}
