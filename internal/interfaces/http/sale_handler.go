package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/dto"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/finance"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/sales"
)

// SaleHandler trata as requisições HTTP de vendas. Os endpoints de pagamento
// compõem o registro na venda com o lançamento de caixa correspondente.
type SaleHandler struct {
	uc        *sales.UseCase
	financeUC *finance.UseCase
}

// NewSaleHandler constrói o handler.
func NewSaleHandler(uc *sales.UseCase, financeUC *finance.UseCase) *SaleHandler {
	return &SaleHandler{uc: uc, financeUC: financeUC}
}

// Confirm POST /api/v1/vendas
func (h *SaleHandler) Confirm(c *fiber.Ctx) error {
	var in dto.ConfirmSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	created, err := h.uc.Confirm(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// List GET /api/v1/vendas?clienteId=...
func (h *SaleHandler) List(c *fiber.Ctx) error {
	if clientID := c.Query("clienteId"); clientID != "" {
		list, err := h.uc.ListByClient(c.Context(), clientID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(list)
	}
	list, err := h.uc.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// GetByID GET /api/v1/vendas/:id
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	s, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(s)
}

// Reverse POST /api/v1/vendas/:id/estornar
func (h *SaleHandler) Reverse(c *fiber.Ctx) error {
	var in struct {
		Actor string `json:"ator"`
	}
	_ = c.BodyParser(&in) // corpo opcional
	s, err := h.uc.Reverse(c.Context(), c.Params("id"), in.Actor)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(s)
}

// Pay POST /api/v1/vendas/:id/pagamentos — registra o pagamento parcial na
// venda e lança a entrada no caixa.
func (h *SaleHandler) Pay(c *fiber.Ctx) error {
	var in dto.PaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	s, err := h.uc.AddPartialPayment(c.Context(), c.Params("id"), in.Amount.Decimal)
	if err != nil {
		return fail(c, err)
	}
	if _, err := h.financeUC.RecordSaleReceipt(c.Context(), s, in.Amount.Decimal, in.PaymentMethod); err != nil {
		return fail(c, err)
	}
	return c.JSON(s)
}

// ReceiveClientPayment POST /api/v1/recebimentos — liquida o recebimento nas
// vendas pendentes do cliente (da mais antiga para a mais nova) e lança uma
// entrada única no caixa.
func (h *SaleHandler) ReceiveClientPayment(c *fiber.Ctx) error {
	var in dto.ClientPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	allocations, err := h.uc.ReceiveClientPayment(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	if len(allocations) > 0 {
		if _, err := h.financeUC.RecordClientReceipt(c.Context(), in.ClientID, in.Amount.Decimal, in.PaymentMethod); err != nil {
			return fail(c, err)
		}
	}
	return c.JSON(allocations)
}
