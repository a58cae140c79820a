package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"labequip-system/internal/routes"
	"labequip-system/pkg/config"
	"labequip-system/pkg/customvalidator"
	"labequip-system/pkg/database/postgresql"
	"labequip-system/pkg/logger"
	"labequip-system/pkg/utils"
)

func main() {
	cfg := config.New()

	log := logger.NewLogger()
	defer func() { _ = log.Sync() }()

	if err := runMigrations(cfg.Postgres.DSN, log); err != nil {
		log.Fatal("Не удалось применить миграции", zap.Error(err))
	}

	pool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// Кеш не критичен для старта: доступность будет считаться каждый раз.
		log.Warn("Redis недоступен, кеширование доступности работать не будет", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		log.Fatal("Не удалось зарегистрировать кастомные валидации", zap.Error(err))
	}
	e.Validator = utils.NewValidator(v)

	deps := routes.InitRoutes(e, pool, redisClient, cfg, log)

	// Фоновая зачистка: просроченные BORROWED переводятся в OVERDUE.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go runOverdueSweep(sweepCtx, deps, cfg.Borrow.OverdueSweepTick, log)

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil {
			log.Info("Сервер остановлен", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Ошибка при остановке сервера", zap.Error(err))
	}
}

func runMigrations(dsn string, log *zap.Logger) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := goose.Up(db, "migrations"); err != nil {
		return err
	}
	log.Info("Миграции применены")
	return nil
}

func runOverdueSweep(ctx context.Context, deps *routes.Deps, tick time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := deps.BorrowService.PromoteOverdue(ctx); err != nil {
				log.Error("Зачистка просроченных выдач завершилась ошибкой", zap.Error(err))
			}
		}
	}
}
