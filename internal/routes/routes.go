package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/controllers"
	"asset-system/internal/listeners"
	"asset-system/internal/repositories"
	"asset-system/internal/services"
	"asset-system/pkg/config"
	"asset-system/pkg/constants"
	"asset-system/pkg/eventbus"
	"asset-system/pkg/filestorage"
	"asset-system/pkg/middleware"
	"asset-system/pkg/service"
)

// InitRouter собирает весь граф зависимостей и вешает маршруты.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, logger *zap.Logger, cfg *config.Config) error {
	api := e.Group("/api")

	fileStorage, err := filestorage.NewLocalFileStorage(cfg.Upload.BasePath)
	if err != nil {
		return err
	}

	bus := eventbus.New(logger)
	txManager := repositories.NewTxManager(dbConn)

	// --- РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn, logger)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	deviceRepo := repositories.NewDeviceRepository(dbConn, logger)
	assignmentRepo := repositories.NewAssignmentRepository(dbConn, logger)
	incidentRepo := repositories.NewIncidentRepository(dbConn, logger)
	repairRepo := repositories.NewRepairRepository(dbConn, logger)
	replacementRepo := repositories.NewReplacementRepository(dbConn)
	liquidationRepo := repositories.NewLiquidationRepository(dbConn)
	historyRepo := repositories.NewHistoryRepository(dbConn)
	departmentRepo := repositories.NewDepartmentRepository(dbConn)
	deviceTypeRepo := repositories.NewDeviceTypeRepository(dbConn)
	supplierRepo := repositories.NewSupplierRepository(dbConn)
	reportRepo := repositories.NewReportRepository(dbConn)

	// --- СЕРВИСЫ ---
	authService := services.NewAuthService(userRepo, cacheRepo, jwtSvc, logger)
	deviceService := services.NewDeviceService(deviceRepo, historyRepo, logger)
	assignmentService := services.NewAssignmentService(txManager, assignmentRepo, deviceRepo, historyRepo, userRepo, bus, logger)
	incidentService := services.NewIncidentService(txManager, incidentRepo, deviceRepo, repairRepo, historyRepo, bus, logger)
	repairService := services.NewRepairService(txManager, repairRepo, deviceRepo, incidentRepo, historyRepo, userRepo, bus, logger)
	replacementService := services.NewReplacementService(txManager, replacementRepo, deviceRepo, assignmentRepo, incidentRepo, historyRepo, bus, logger)
	liquidationService := services.NewLiquidationService(txManager, liquidationRepo, deviceRepo, incidentRepo, repairRepo, historyRepo, bus, logger, cfg.Liquidation.DepreciationYears)
	departmentService := services.NewDepartmentService(departmentRepo, logger)
	deviceTypeService := services.NewDeviceTypeService(deviceTypeRepo, logger)
	supplierService := services.NewSupplierService(supplierRepo, logger)
	reportService := services.NewReportService(reportRepo, logger)
	notificationService := services.NewLogNotificationService(logger)

	// --- СЛУШАТЕЛИ (после коммита, fire-and-forget) ---
	listeners.NewNotificationListener(notificationService, logger).Register(bus)

	// --- КОНТРОЛЛЕРЫ ---
	authController := controllers.NewAuthController(authService, logger)
	deviceController := controllers.NewDeviceController(deviceService, logger)
	assignmentController := controllers.NewAssignmentController(assignmentService, logger)
	incidentController := controllers.NewIncidentController(incidentService, logger)
	repairController := controllers.NewRepairController(repairService, fileStorage, cfg.Upload.MaxImageSize, logger)
	replacementController := controllers.NewReplacementController(replacementService, logger)
	liquidationController := controllers.NewLiquidationController(liquidationService, logger)
	departmentController := controllers.NewDepartmentController(departmentService, logger)
	deviceTypeController := controllers.NewDeviceTypeController(deviceTypeService, logger)
	supplierController := controllers.NewSupplierController(supplierService, logger)
	reportController := controllers.NewReportController(reportService, logger)

	// --- МАРШРУТЫ ---
	authMW := middleware.NewAuthMiddleware(jwtSvc, authService, logger)
	admin := authMW.RequireRole(constants.RoleAdmin)
	technician := authMW.RequireRole(constants.RoleTechnician)
	employee := authMW.RequireRole(constants.RoleEmployee, constants.RoleAdmin)

	auth := api.Group("/auth")
	auth.POST("/login", authController.Login)
	auth.POST("/refresh", authController.RefreshToken)
	auth.GET("/profile", authController.GetProfile, authMW.Auth)

	secured := api.Group("", authMW.Auth)

	devices := secured.Group("/devices")
	devices.GET("", deviceController.GetDevices)
	devices.GET("/:id", deviceController.FindDevice)
	devices.GET("/:id/history", deviceController.GetDeviceHistory)
	devices.POST("", deviceController.CreateDevice, admin)
	devices.PUT("/:id", deviceController.UpdateDevice, admin)
	devices.DELETE("/:id", deviceController.DeleteDevice, admin)

	assignments := secured.Group("/assignments")
	assignments.GET("", assignmentController.GetAssignments)
	assignments.GET("/:id", assignmentController.FindAssignment)
	assignments.POST("", assignmentController.CreateAssignment, admin)
	assignments.POST("/:id/revoke", assignmentController.RevokeAssignment, admin)
	assignments.POST("/transfer", assignmentController.TransferAssignment, admin)

	incidents := secured.Group("/incidents")
	incidents.GET("", incidentController.GetIncidents)
	incidents.GET("/:id", incidentController.FindIncident)
	incidents.POST("", incidentController.CreateIncident, employee)
	incidents.POST("/:id/approve", incidentController.ApproveIncident, admin)
	incidents.POST("/:id/reject", incidentController.RejectIncident, admin)

	repairs := secured.Group("/repairs")
	repairs.GET("", repairController.GetRepairs)
	repairs.GET("/:id", repairController.FindRepair)
	repairs.POST("", repairController.CreateRepair, admin)
	repairs.POST("/:id/assign", repairController.AssignTechnician, admin)
	repairs.POST("/:id/accept", repairController.AcceptRepair, technician)
	repairs.POST("/:id/complete", repairController.CompleteRepair, technician)
	repairs.POST("/:id/reject", repairController.RejectRepair, technician)
	repairs.POST("/:id/not-needed", repairController.MarkNotNeeded, technician)
	repairs.POST("/:id/confirm-completion", repairController.ConfirmCompletion, admin)
	repairs.POST("/upload-image", repairController.UploadImage, technician)

	replacements := secured.Group("/replacements")
	replacements.GET("", replacementController.GetReplacements)
	replacements.POST("", replacementController.CreateReplacement, admin)

	liquidation := secured.Group("/liquidation", admin)
	liquidation.GET("", liquidationController.GetLiquidations)
	liquidation.GET("/eligible-devices", liquidationController.GetEligibleDevices)
	liquidation.POST("/single", liquidationController.LiquidateOne)
	liquidation.POST("/batch", liquidationController.LiquidateBatch)

	departments := secured.Group("/departments")
	departments.GET("", departmentController.GetDepartments)
	departments.GET("/:id", departmentController.FindDepartment)
	departments.POST("", departmentController.CreateDepartment, admin)
	departments.PUT("/:id", departmentController.UpdateDepartment, admin)
	departments.DELETE("/:id", departmentController.DeleteDepartment, admin)

	deviceTypes := secured.Group("/device-types")
	deviceTypes.GET("", deviceTypeController.GetDeviceTypes)
	deviceTypes.GET("/:id", deviceTypeController.FindDeviceType)
	deviceTypes.POST("", deviceTypeController.CreateDeviceType, admin)
	deviceTypes.PUT("/:id", deviceTypeController.UpdateDeviceType, admin)
	deviceTypes.DELETE("/:id", deviceTypeController.DeleteDeviceType, admin)

	suppliers := secured.Group("/suppliers")
	suppliers.GET("", supplierController.GetSuppliers)
	suppliers.GET("/:id", supplierController.FindSupplier)
	suppliers.POST("", supplierController.CreateSupplier, admin)
	suppliers.PUT("/:id", supplierController.UpdateSupplier, admin)
	suppliers.DELETE("/:id", supplierController.DeleteSupplier, admin)

	reports := secured.Group("/reports", admin)
	reports.GET("/devices/export", reportController.GetDeviceInventoryXLSX)

	return nil
}
