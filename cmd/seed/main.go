package main

import (
	"context"

	"go.uber.org/zap"

	"labequip-system/pkg/config"
	"labequip-system/pkg/database/postgresql"
	"labequip-system/pkg/logger"
	"labequip-system/seeders"
)

func main() {
	cfg := config.New()
	log := logger.NewLogger()
	defer func() { _ = log.Sync() }()

	pool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer pool.Close()

	if err := seeders.Run(context.Background(), pool, log); err != nil {
		log.Fatal("Сидирование не выполнено", zap.Error(err))
	}
}
