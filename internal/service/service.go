package service

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"car-portal/internal/config"
	"car-portal/internal/media"
	"car-portal/internal/repository"
	"car-portal/internal/service/auth"
	"car-portal/internal/service/car"
	"car-portal/internal/service/dashboard"
	"car-portal/internal/service/email"
)

type Services struct {
	Auth      auth.Service
	Email     email.Service
	Car       car.Service
	Dashboard dashboard.Service
}

func NewServices(repos *repository.Repositories, redis *redis.Client, store media.Store, cfg *config.Config, loc *time.Location, logger *zap.Logger) *Services {
	emailService := email.NewService(cfg)
	authService := auth.NewService(repos.User, emailService, cfg, logger)

	dashboardService := dashboard.NewService(repos.Car, redis, dashboard.Options{
		CacheTTL: cfg.DashboardCacheTTL,
		Location: loc,
	}, logger)

	carService := car.NewService(repos.Car, store, dashboardService, car.Limits{
		ImageBytes: cfg.MediaImageMaxBytes,
		VideoBytes: cfg.MediaVideoMaxBytes,
	}, logger)

	return &Services{
		Auth:      authService,
		Email:     emailService,
		Car:       carService,
		Dashboard: dashboardService,
	}
}
