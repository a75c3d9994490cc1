package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/analytics"
)

// DashboardHandler trata a requisição do resumo do dashboard.
type DashboardHandler struct {
	uc *analytics.UseCase
}

// NewDashboardHandler constrói o handler.
func NewDashboardHandler(uc *analytics.UseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// Summary GET /api/v1/dashboard
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	sum, err := h.uc.Dashboard(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sum)
}
