package handler

import (
	"time"

	"car-portal/internal/service"
)

type Handlers struct {
	Auth      *AuthHandler
	Car       *CarHandler
	Dashboard *DashboardHandler
}

func NewHandlers(services *service.Services, urls URLResolver, loc *time.Location) *Handlers {
	return &Handlers{
		Auth:      NewAuthHandler(services.Auth),
		Car:       NewCarHandler(services.Car, urls, loc),
		Dashboard: NewDashboardHandler(services.Dashboard, urls),
	}
}
