package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"trolley-tracker/internal/api/middleware"
	"trolley-tracker/internal/api/routes"
	"trolley-tracker/internal/config"
	"trolley-tracker/internal/events"
	"trolley-tracker/internal/models"
	"trolley-tracker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Server.Mode)
	slog.SetDefault(logger)

	// Initialize database
	db, err := models.OpenDB(cfg)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	// Create default admin if the directory is empty
	authService := services.NewAuthService(db, cfg)
	employeeService := services.NewEmployeeService(db, authService)
	created, err := employeeService.EnsureDefaultAdmin(context.Background(), cfg.DefaultUser)
	if err != nil {
		logger.Warn("failed to create default admin", "error", err)
	} else if created {
		logger.Info("created default admin", "username", cfg.DefaultUser.Username)
	}

	deps := routes.Dependencies{
		DB:        db,
		Limiter:   newLoginLimiter(cfg, logger),
		Publisher: newPublisher(cfg, logger),
		Logger:    logger,
		Metrics:   middleware.NewMetrics(),
	}

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	routes.SetupRoutes(r, cfg, deps)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "API endpoint not found"})
	})

	// Run server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting trolley tracker", "addr", addr, "base_path", cfg.Server.BasePath)
	if err := r.Run(addr); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

func newLogger(mode string) *slog.Logger {
	if mode == "debug" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// newLoginLimiter uses Redis when it answers, so the limit holds across
// instances. Otherwise each process limits on its own.
func newLoginLimiter(cfg *config.Config, logger *slog.Logger) middleware.Limiter {
	rl := cfg.Security.RateLimit
	memory := middleware.NewMemoryLimiter(rl.LoginMax, cfg.LoginWindow())

	if cfg.Redis.Addr == "" {
		return memory
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-process login limiter", "addr", cfg.Redis.Addr, "error", err)
		_ = rdb.Close()
		return memory
	}

	logger.Info("using redis login limiter", "addr", cfg.Redis.Addr)
	return middleware.NewRedisLimiter(rdb, rl.LoginMax, cfg.LoginWindow(), rl.Prefix)
}

func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if cfg.Events.AMQPURL == "" {
		return events.Noop{}
	}

	p := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Queue, logger)
	if err := p.Ping(); err != nil {
		// Keep the publisher; the broker may come up later.
		logger.Warn("rabbitmq not reachable at startup", "queue", cfg.Events.Queue, "error", err)
	}
	return p
}
