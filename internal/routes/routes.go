package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"labequip-system/internal/controllers"
	"labequip-system/internal/listeners"
	"labequip-system/internal/repositories"
	"labequip-system/internal/services"
	"labequip-system/pkg/config"
	"labequip-system/pkg/eventbus"
	"labequip-system/pkg/logger"
	"labequip-system/pkg/middleware"
	"labequip-system/pkg/service"
)

// Deps — всё, что собирает InitRoutes. Наружу отдаётся то, что нужно
// фоновым задачам (зачистка просрочки).
type Deps struct {
	BorrowService services.BorrowServiceInterface
}

// InitRoutes — единственная точка сборки зависимостей: репозитории,
// сервисы, контроллеры и маршруты собираются здесь вручную.
func InitRoutes(e *echo.Echo, pool *pgxpool.Pool, redisClient *redis.Client, cfg *config.Config, log *zap.Logger) *Deps {
	// --- Инфраструктура ---
	bus := eventbus.New(logger.Named(log, "eventbus"))
	listeners.NewAuditListener(logger.Named(log, "audit")).Register(bus)

	jwtService := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	authMiddleware := middleware.NewAuthMiddleware(jwtService, logger.Named(log, "auth"))

	// --- Репозитории ---
	txManager := repositories.NewTxManager(pool)
	equipmentRepo := repositories.NewEquipmentRepository(pool)
	borrowRepo := repositories.NewBorrowRepository(pool)
	maintenanceRepo := repositories.NewMaintenanceRepository(pool)
	movementRepo := repositories.NewMovementRepository(pool)
	roomRepo := repositories.NewRoomRepository(pool)
	categoryRepo := repositories.NewCategoryRepository(pool)
	userRepo := repositories.NewUserRepository(pool)
	reportRepo := repositories.NewReportRepository(pool)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- Сервисы ---
	equipmentService := services.NewEquipmentService(
		equipmentRepo, borrowRepo, maintenanceRepo, categoryRepo, cacheRepo,
		pool, cfg, bus, logger.Named(log, "equipment"),
	)
	borrowService := services.NewBorrowService(
		borrowRepo, equipmentRepo, equipmentService, txManager, cfg, bus, logger.Named(log, "borrow"),
	)
	maintenanceService := services.NewMaintenanceService(
		maintenanceRepo, equipmentRepo, userRepo, equipmentService, txManager, bus, logger.Named(log, "maintenance"),
	)
	movementService := services.NewMovementService(
		movementRepo, equipmentRepo, roomRepo, bus, logger.Named(log, "movement"),
	)
	cascadeService := services.NewCascadeDeleteService(
		equipmentRepo, borrowRepo, maintenanceRepo, movementRepo, equipmentService, txManager, bus, logger.Named(log, "cascade"),
	)
	roomService := services.NewRoomService(roomRepo, logger.Named(log, "room"))
	categoryService := services.NewCategoryService(categoryRepo, logger.Named(log, "category"))
	authService := services.NewAuthService(userRepo, jwtService, logger.Named(log, "auth"))
	reportService := services.NewReportService(reportRepo, logger.Named(log, "report"))

	// --- Контроллеры ---
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, cascadeService, logger.Named(log, "equipment-ctrl"))
	borrowCtrl := controllers.NewBorrowController(borrowService, logger.Named(log, "borrow-ctrl"))
	maintenanceCtrl := controllers.NewMaintenanceController(maintenanceService, logger.Named(log, "maintenance-ctrl"))
	movementCtrl := controllers.NewMovementController(movementService, logger.Named(log, "movement-ctrl"))
	roomCtrl := controllers.NewRoomController(roomService, logger.Named(log, "room-ctrl"))
	categoryCtrl := controllers.NewCategoryController(categoryService, logger.Named(log, "category-ctrl"))
	authCtrl := controllers.NewAuthController(authService, logger.Named(log, "auth-ctrl"))
	reportCtrl := controllers.NewReportController(reportService, logger.Named(log, "report-ctrl"))

	// --- Маршруты ---
	api := e.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/login", authCtrl.Login)
	auth.POST("/refresh", authCtrl.Refresh)

	equipments := api.Group("/equipments", authMiddleware.Auth)
	equipments.GET("", equipmentCtrl.GetEquipments)
	equipments.GET("/:id", equipmentCtrl.FindEquipment)
	equipments.POST("", equipmentCtrl.CreateEquipment)
	equipments.PUT("/:id", equipmentCtrl.UpdateEquipment)
	equipments.DELETE("/:id", equipmentCtrl.DeleteEquipment)
	equipments.DELETE("/:id/cascade", equipmentCtrl.CascadeDeleteEquipment)
	equipments.GET("/:id/availability", equipmentCtrl.GetAvailability)
	equipments.POST("/:id/movements", movementCtrl.RecordMove)
	equipments.GET("/:id/movements", movementCtrl.GetHistory)

	borrows := api.Group("/borrow-requests", authMiddleware.Auth)
	borrows.GET("", borrowCtrl.GetBorrowRequests)
	borrows.GET("/:id", borrowCtrl.FindBorrowRequest)
	borrows.POST("", borrowCtrl.Submit)
	borrows.POST("/:id/approve", borrowCtrl.Approve)
	borrows.POST("/:id/reject", borrowCtrl.Reject)
	borrows.POST("/:id/checkout", borrowCtrl.Checkout)
	borrows.POST("/:id/return", borrowCtrl.Return)
	borrows.DELETE("/:id", borrowCtrl.Delete)

	maintenance := api.Group("/maintenance-requests", authMiddleware.Auth)
	maintenance.GET("", maintenanceCtrl.GetMaintenanceRequests)
	maintenance.GET("/:id", maintenanceCtrl.FindMaintenanceRequest)
	maintenance.POST("", maintenanceCtrl.Report)
	maintenance.POST("/:id/assign", maintenanceCtrl.Assign)
	maintenance.POST("/:id/complete", maintenanceCtrl.Complete)
	maintenance.POST("/:id/cancel", maintenanceCtrl.Cancel)
	maintenance.DELETE("/:id", maintenanceCtrl.Delete)

	rooms := api.Group("/rooms", authMiddleware.Auth)
	rooms.GET("", roomCtrl.GetRooms)
	rooms.GET("/:id", roomCtrl.FindRoom)
	rooms.POST("", roomCtrl.CreateRoom)
	rooms.PUT("/:id", roomCtrl.UpdateRoom)
	rooms.DELETE("/:id", roomCtrl.DeleteRoom)

	categories := api.Group("/categories", authMiddleware.Auth)
	categories.GET("", categoryCtrl.GetCategories)
	categories.GET("/:id", categoryCtrl.FindCategory)
	categories.POST("", categoryCtrl.CreateCategory)
	categories.PUT("/:id", categoryCtrl.UpdateCategory)
	categories.DELETE("/:id", categoryCtrl.DeleteCategory)

	reports := api.Group("/reports", authMiddleware.Auth)
	reports.GET("/inventory", reportCtrl.GetInventoryReport)
	reports.GET("/inventory/export", reportCtrl.ExportInventoryReport)
	reports.GET("/borrow-history", reportCtrl.GetBorrowHistoryReport)
	reports.GET("/borrow-history/export", reportCtrl.ExportBorrowHistoryReport)

	return &Deps{BorrowService: borrowService}
}
