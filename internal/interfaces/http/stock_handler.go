package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/stock"
)

// StockHandler trata as requisições HTTP de estoque.
type StockHandler struct {
	uc *stock.UseCase
}

// NewStockHandler constrói o handler.
func NewStockHandler(uc *stock.UseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// ListAvailable GET /api/v1/estoque
func (h *StockHandler) ListAvailable(c *fiber.Ctx) error {
	items, err := h.uc.ListAvailable(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(items)
}
