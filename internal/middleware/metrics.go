package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"car-portal/internal/pkg/metrics"
)

// Metrics records request counts and latency per matched route. Errors are
// rendered here so the recorded status is the one sent to the client.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		route := c.Route().Path
		method := c.Method()
		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().StatusCode())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return nil
	}
}
