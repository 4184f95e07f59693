package admin

import (
	"tradenet-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *Service
}

// GetStats GET /api/v1/admin/stats
func (h *Handlers) GetStats(c *fiber.Ctx) error {
	stats, err := h.Service.Collect(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Marketplace statistics", stats, nil)
}
