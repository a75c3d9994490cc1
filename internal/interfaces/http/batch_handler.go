package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/batches"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/dto"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/stock"
)

// BatchHandler trata as requisições HTTP de lotes.
type BatchHandler struct {
	uc      *batches.UseCase
	stockUC *stock.UseCase
}

// NewBatchHandler constrói o handler.
func NewBatchHandler(uc *batches.UseCase, stockUC *stock.UseCase) *BatchHandler {
	return &BatchHandler{uc: uc, stockUC: stockUC}
}

// Create POST /api/v1/lotes
func (h *BatchHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	b, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

// List GET /api/v1/lotes
func (h *BatchHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// GetByID GET /api/v1/lotes/:id
func (h *BatchHandler) GetByID(c *fiber.Ctx) error {
	b, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(b)
}

// Close POST /api/v1/lotes/:id/fechar
func (h *BatchHandler) Close(c *fiber.Ctx) error {
	var in dto.CloseBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.uc.Close(c.Context(), c.Params("id"), in); err != nil {
		return fail(c, err)
	}
	b, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(b)
}

// Reverse POST /api/v1/lotes/:id/estornar
func (h *BatchHandler) Reverse(c *fiber.Ctx) error {
	var in struct {
		Actor string `json:"ator"`
	}
	_ = c.BodyParser(&in) // corpo opcional
	sum, err := h.uc.Reverse(c.Context(), c.Params("id"), in.Actor)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sum)
}

// Stock GET /api/v1/lotes/:id/estoque
func (h *BatchHandler) Stock(c *fiber.Ctx) error {
	items, err := h.stockUC.ListByBatch(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(items)
}
