package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/dto"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/finance"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
)

// FinanceHandler trata as requisições HTTP do financeiro (razão e contas a pagar).
type FinanceHandler struct {
	uc *finance.UseCase
}

// NewFinanceHandler constrói o handler.
func NewFinanceHandler(uc *finance.UseCase) *FinanceHandler {
	return &FinanceHandler{uc: uc}
}

// ListTransactions GET /api/v1/transacoes
func (h *FinanceHandler) ListTransactions(c *fiber.Ctx) error {
	list, err := h.uc.ListTransactions(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// CreateTransaction POST /api/v1/transacoes
func (h *FinanceHandler) CreateTransaction(c *fiber.Ctx) error {
	var in dto.TransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	t, err := h.uc.AddTransaction(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// ReverseTransaction POST /api/v1/transacoes/:id/estornar
func (h *FinanceHandler) ReverseTransaction(c *fiber.Ctx) error {
	var in struct {
		Actor string `json:"ator"`
	}
	_ = c.BodyParser(&in) // corpo opcional
	m, err := h.uc.ReverseTransaction(c.Context(), c.Params("id"), in.Actor)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

// Balance GET /api/v1/caixa
func (h *FinanceHandler) Balance(c *fiber.Ctx) error {
	balance, err := h.uc.CashBalance(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"saldo": entity.N(balance)})
}

// ListPayables GET /api/v1/contas-pagar
func (h *FinanceHandler) ListPayables(c *fiber.Ctx) error {
	list, err := h.uc.ListPayables(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// CreatePayable POST /api/v1/contas-pagar
func (h *FinanceHandler) CreatePayable(c *fiber.Ctx) error {
	var in dto.PayableRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.uc.AddPayable(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// UpdatePayable PUT /api/v1/contas-pagar/:id
func (h *FinanceHandler) UpdatePayable(c *fiber.Ctx) error {
	var in dto.PayableRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.uc.UpdatePayable(c.Context(), c.Params("id"), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}

// PayPayable POST /api/v1/contas-pagar/:id/pagamentos — registra o pagamento
// na conta e lança a saída no caixa.
func (h *FinanceHandler) PayPayable(c *fiber.Ctx) error {
	var in dto.PaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.uc.PayPayable(c.Context(), c.Params("id"), in.Amount.Decimal)
	if err != nil {
		return fail(c, err)
	}
	if _, err := h.uc.RecordPayablePayment(c.Context(), p, in.Amount.Decimal, in.PaymentMethod); err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}

// ReversePayable POST /api/v1/contas-pagar/:id/estornar
func (h *FinanceHandler) ReversePayable(c *fiber.Ctx) error {
	var in struct {
		Actor string `json:"ator"`
	}
	_ = c.BodyParser(&in) // corpo opcional
	p, err := h.uc.ReversePayable(c.Context(), c.Params("id"), in.Actor)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}
