package routes

import (
	"log/slog"

	"trolley-tracker/internal/api/handlers"
	"trolley-tracker/internal/api/middleware"
	"trolley-tracker/internal/config"
	"trolley-tracker/internal/events"
	"trolley-tracker/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies are the process-wide resources built in main.
type Dependencies struct {
	DB        *gorm.DB
	Limiter   middleware.Limiter
	Publisher events.Publisher
	Logger    *slog.Logger
	Metrics   *middleware.Metrics
}

func SetupRoutes(r *gin.Engine, cfg *config.Config, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Noop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = middleware.NewMetrics()
	}
	if deps.Limiter == nil {
		deps.Limiter = middleware.NewMemoryLimiter(cfg.Security.RateLimit.LoginMax, cfg.LoginWindow())
	}

	// Initialize services
	authService := services.NewAuthService(deps.DB, cfg)
	employeeService := services.NewEmployeeService(deps.DB, authService)
	ledgerService := services.NewLedgerService(deps.DB)
	trolleyService := services.NewTrolleyService(deps.DB, ledgerService, deps.Publisher, deps.Logger)
	trolleyService.OnConflict(deps.Metrics.LedgerConflict)
	auditService := services.NewAuditService(deps.DB)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, employeeService)
	employeeHandler := handlers.NewEmployeeHandler(employeeService, cfg.Security.AllowPublicAdminSignup)
	trolleyHandler := handlers.NewTrolleyHandler(trolleyService)
	trolleyNumberHandler := handlers.NewTrolleyNumberHandler(ledgerService)
	logsHandler := handlers.NewLogsHandler(auditService, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	tokens := authService.Tokens()
	requireToken := middleware.AuthMiddleware(tokens)
	requireAdmin := middleware.RequireAdmin()

	var loginLimit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.Security.RateLimit.Enabled {
		loginLimit = middleware.RateLimit(deps.Limiter, deps.Logger)
	}

	// Middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(deps.Metrics.Middleware())
	r.Use(middleware.CORSMiddleware())

	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", deps.Metrics.Handler())

	api := r.Group(cfg.Server.BasePath)

	// Public routes
	{
		api.POST("/addTrolley", trolleyHandler.AddTrolley)
		api.GET("/getAllTrolleys", trolleyHandler.GetAllTrolleys)
		api.GET("/getAllTrolleyNumbers", trolleyNumberHandler.GetAllTrolleyNumbers)
		api.GET("/getTrolleyNumber/:trolleyNumber", trolleyNumberHandler.GetTrolleyNumber)
		api.POST("/login", loginLimit, authHandler.Login)
		api.POST("/addAdmin", middleware.OptionalAuth(tokens), employeeHandler.AddAdmin)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(requireToken)
	{
		protected.PUT("/updateTrolley/:balanceNumber", trolleyHandler.UpdateByBalanceNumber)
		protected.PUT("/updateTrolleyByBalance/:balanceNumber", trolleyHandler.UpdateByBalanceNumber)
		protected.PUT("/updateTrolleyByNumber/:trolleyNumber", trolleyHandler.UpdateByTrolleyNumber)
		protected.GET("/getTrolleys/:trolleyNumber", trolleyHandler.GetTrolleys)
		protected.DELETE("/deleteTrolley/:balanceNumber", trolleyHandler.DeleteTrolley)

		protected.PUT("/updateTrolleyNumber/:trolleyNumber", trolleyNumberHandler.UpdateTrolleyNumber)
		protected.DELETE("/deleteTrolleyNumber/:trolleyNumber", trolleyNumberHandler.DeleteTrolleyNumber)

		protected.GET("/getCurrentUser", authHandler.GetCurrentUser)
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/profile", authHandler.Profile)
		protected.POST("/log", logsHandler.LogAction)
	}

	// Admin routes
	admin := protected.Group("")
	admin.Use(requireAdmin)
	{
		admin.POST("/addTrolleyNumber", trolleyNumberHandler.AddTrolleyNumber)

		admin.POST("/addEmployee", employeeHandler.AddEmployee)
		admin.GET("/getAllEmployees", employeeHandler.GetAllEmployees)
		admin.PUT("/updateEmployee/:employeeId", employeeHandler.UpdateEmployee)
		admin.DELETE("/deleteEmployee/:employeeId", employeeHandler.DeleteEmployee)

		admin.GET("/getAdminEmployees", employeeHandler.GetAdminEmployees)
		admin.GET("/getAdmin/:id", employeeHandler.GetAdmin)
		admin.PUT("/updateAdmin/:employeeId", employeeHandler.UpdateAdmin)
		admin.DELETE("/deleteAdmin/:employeeId", employeeHandler.DeleteAdmin)

		admin.GET("/logs", logsHandler.GetLogs)
		admin.DELETE("/logs/:date", logsHandler.DeleteLogs)
	}
}
