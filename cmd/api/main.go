package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"car-portal/internal/config"
	"car-portal/internal/handler"
	"car-portal/internal/media"
	"car-portal/internal/middleware"
	"car-portal/internal/pkg/logger"
	"car-portal/internal/repository"
	"car-portal/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	zl, err := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.JWTSecret == "" {
		zl.Fatal("JWT_SECRET must be set")
	}

	loc, err := cfg.Location()
	if err != nil {
		zl.Fatal("Invalid FACILITY_TIMEZONE", zap.String("timezone", cfg.FacilityTimezone), zap.Error(err))
	}

	ctx := context.Background()

	if err := config.RunMigrations(cfg.DatabaseURL, zl); err != nil {
		zl.Fatal("Failed to run migrations", zap.Error(err))
	}

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := config.NewRedisClient(ctx, cfg)
	if err != nil {
		zl.Warn("Redis unavailable, dashboard cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	store, staticDir := newMediaStore(ctx, cfg, zl)

	repos := repository.NewRepositories(db, cfg.SearchFullText)
	services := service.NewServices(repos, redisClient, store, cfg, loc, zl)
	handlers := handler.NewHandlers(services, store, loc)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(zl),
		BodyLimit:    cfg.BodyLimitBytes,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(middleware.Metrics())

	if staticDir != "" {
		app.Static(cfg.UploadURLPrefix, staticDir)
	}

	setupRoutes(app, handlers, services, db, redisClient)

	go func() {
		zl.Info("Server starting", zap.String("port", cfg.Port), zap.String("media_backend", cfg.MediaBackend))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("Shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zl.Error("Shutdown failed", zap.Error(err))
	}
}

// newMediaStore builds the configured blob backend. For the disk backend the
// returned directory is served statically.
func newMediaStore(ctx context.Context, cfg *config.Config, zl *zap.Logger) (media.Store, string) {
	switch cfg.MediaBackend {
	case config.MediaBackendMinIO:
		client, err := config.NewMinIOClient(ctx, cfg, zl)
		if err != nil {
			zl.Fatal("Failed to connect to MinIO", zap.Error(err))
		}
		return media.NewMinIOStore(client, cfg.MinIOBucket, cfg.MinIOPublicEndpoint, cfg.MinIOPublicUseSSL, zl), ""
	case config.MediaBackendDisk:
		store, err := media.NewDiskStore(cfg.UploadDir, cfg.UploadURLPrefix, zl)
		if err != nil {
			zl.Fatal("Failed to prepare upload directory", zap.String("dir", cfg.UploadDir), zap.Error(err))
		}
		return store, store.Dir()
	default:
		zl.Fatal("Unknown MEDIA_BACKEND", zap.String("backend", cfg.MediaBackend))
		return nil, ""
	}
}

func setupRoutes(app *fiber.App, h *handler.Handlers, services *service.Services, db *sqlx.DB, redisClient *redis.Client) {
	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{"status": "ok", "database": "ok"}
		code := fiber.StatusOK
		if err := db.PingContext(c.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			code = fiber.StatusServiceUnavailable
		}
		if redisClient != nil {
			status["redis"] = "ok"
			if err := redisClient.Ping(c.Context()).Err(); err != nil {
				status["redis"] = "unreachable"
			}
		}
		return c.Status(code).JSON(status)
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/forgot-password", h.Auth.ForgotPassword)
	auth.Post("/reset-password", h.Auth.ResetPassword)
	auth.Get("/verify", middleware.AuthRequired(services.Auth), h.Auth.Verify)

	protected := api.Group("", middleware.AuthRequired(services.Auth))
	protected.Post("/car-entry", h.Car.Create)
	protected.Get("/car-records", h.Car.List)
	protected.Get("/car/:id", h.Car.Get)
	protected.Put("/car/:id", h.Car.Update)
	protected.Delete("/car/:id", h.Car.Delete)
	protected.Get("/dashboard", h.Dashboard.GetStats)
}
