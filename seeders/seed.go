package seeders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"labequip-system/pkg/constants"
	"labequip-system/pkg/utils"
)

type seedUser struct {
	fio         string
	email       string
	password    string
	role        string
	permissions []string
}

var seedUsers = []seedUser{
	{
		fio:      "Администратор системы",
		email:    "admin@lab.local",
		password: "admin123",
		role:     "admin",
		permissions: []string{
			constants.PermApproveBorrow,
			constants.PermManageEquipment,
			constants.PermAssignTech,
			constants.PermMoveEquipment,
			constants.PermViewReports,
		},
	},
	{
		fio:      "Заведующий лабораторией",
		email:    "manager@lab.local",
		password: "manager123",
		role:     "manager",
		permissions: []string{
			constants.PermApproveBorrow,
			constants.PermMoveEquipment,
			constants.PermViewReports,
		},
	},
	{
		fio:         "Техник по обслуживанию",
		email:       "tech@lab.local",
		password:    "tech123",
		role:        "technician",
		permissions: []string{constants.PermAssignTech},
	},
	{
		fio:         "Студент Иванов",
		email:       "student@lab.local",
		password:    "student123",
		role:        "user",
		permissions: []string{},
	},
}

var seedRooms = [][2]string{
	{"101", "Главный корпус"},
	{"102", "Главный корпус"},
	{"Склад", "Главный корпус"},
	{"201", "Лабораторный корпус"},
}

var seedCategories = [][2]string{
	{"Осциллографы", "Измерительная техника"},
	{"Микроскопы", "Оптическое оборудование"},
	{"Источники питания", "Лабораторные блоки питания"},
	{"Ноутбуки", "Вычислительная техника"},
}

// Run наполняет справочники стартовыми данными. Повторный запуск
// безопасен: существующие строки не трогаются.
func Run(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	for _, u := range seedUsers {
		hash, err := utils.HashPassword(u.password)
		if err != nil {
			return fmt.Errorf("не удалось захешировать пароль пользователя %s: %w", u.email, err)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO users (fio, email, password_hash, role, permissions)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (email) DO NOTHING`,
			u.fio, u.email, hash, u.role, u.permissions,
		)
		if err != nil {
			return fmt.Errorf("не удалось создать пользователя %s: %w", u.email, err)
		}
	}

	for _, r := range seedRooms {
		if _, err := pool.Exec(ctx, `
			INSERT INTO rooms (name, building)
			VALUES ($1, $2)
			ON CONFLICT (name, building) DO NOTHING`,
			r[0], r[1],
		); err != nil {
			return fmt.Errorf("не удалось создать помещение %s: %w", r[0], err)
		}
	}

	for _, c := range seedCategories {
		if _, err := pool.Exec(ctx, `
			INSERT INTO categories (name, description)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING`,
			c[0], c[1],
		); err != nil {
			return fmt.Errorf("не удалось создать категорию %s: %w", c[0], err)
		}
	}

	logger.Info("Стартовые данные загружены",
		zap.Int("users", len(seedUsers)),
		zap.Int("rooms", len(seedRooms)),
		zap.Int("categories", len(seedCategories)),
	)
	return nil
}
