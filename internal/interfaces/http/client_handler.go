package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/clients"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/dto"
)

// ClientHandler trata as requisições HTTP de clientes.
type ClientHandler struct {
	uc *clients.UseCase
}

// NewClientHandler constrói o handler.
func NewClientHandler(uc *clients.UseCase) *ClientHandler {
	return &ClientHandler{uc: uc}
}

// Create POST /api/v1/clientes
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var in dto.ClientRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	client, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}

// List GET /api/v1/clientes
func (h *ClientHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// GetByID GET /api/v1/clientes/:id
func (h *ClientHandler) GetByID(c *fiber.Ctx) error {
	client, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(client)
}

// Update PUT /api/v1/clientes/:id
func (h *ClientHandler) Update(c *fiber.Ctx) error {
	var in dto.ClientRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	client, err := h.uc.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(client)
}

// Delete DELETE /api/v1/clientes/:id
func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
