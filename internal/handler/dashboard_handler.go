package handler

import (
	"github.com/gofiber/fiber/v2"

	"car-portal/internal/service/dashboard"
)

type DashboardHandler struct {
	dashboardService dashboard.Service
	urls             URLResolver
}

func NewDashboardHandler(dashboardService dashboard.Service, urls URLResolver) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, urls: urls}
}

func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.dashboardService.GetStats(c.Context())
	if err != nil {
		return err
	}

	if h.urls != nil {
		for i := range stats.Recent {
			stats.Recent[i].ResolveURLs(h.urls.URL)
		}
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}
