// Package http expõe a API REST sobre fiber: handlers finos que traduzem
// JSON <-> casos de uso e mapeiam erros de domínio para status HTTP.
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/analytics"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/batches"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/clients"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/finance"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/sales"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/stock"
)

// RouterDeps dependências para o router.
type RouterDeps struct {
	BatchUC     *batches.UseCase
	StockUC     *stock.UseCase
	SaleUC      *sales.UseCase
	FinanceUC   *finance.UseCase
	ClientUC    *clients.UseCase
	AnalyticsUC *analytics.UseCase
}

// Router registra as rotas da API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/v1")

	// Lotes
	lotes := api.Group("/lotes")
	batchHandler := NewBatchHandler(deps.BatchUC, deps.StockUC)
	lotes.Post("/", batchHandler.Create)
	lotes.Get("/", batchHandler.List)
	lotes.Get("/:id", batchHandler.GetByID)
	lotes.Post("/:id/fechar", batchHandler.Close)
	lotes.Post("/:id/estornar", batchHandler.Reverse)
	lotes.Get("/:id/estoque", batchHandler.Stock)

	// Estoque disponível (apenas de lotes fechados)
	stockHandler := NewStockHandler(deps.StockUC)
	api.Get("/estoque", stockHandler.ListAvailable)

	// Vendas e recebimentos
	vendas := api.Group("/vendas")
	saleHandler := NewSaleHandler(deps.SaleUC, deps.FinanceUC)
	vendas.Post("/", saleHandler.Confirm)
	vendas.Get("/", saleHandler.List)
	vendas.Get("/:id", saleHandler.GetByID)
	vendas.Post("/:id/estornar", saleHandler.Reverse)
	vendas.Post("/:id/pagamentos", saleHandler.Pay)
	api.Post("/recebimentos", saleHandler.ReceiveClientPayment)

	// Financeiro
	financeHandler := NewFinanceHandler(deps.FinanceUC)
	transacoes := api.Group("/transacoes")
	transacoes.Get("/", financeHandler.ListTransactions)
	transacoes.Post("/", financeHandler.CreateTransaction)
	transacoes.Post("/:id/estornar", financeHandler.ReverseTransaction)
	api.Get("/caixa", financeHandler.Balance)

	contas := api.Group("/contas-pagar")
	contas.Get("/", financeHandler.ListPayables)
	contas.Post("/", financeHandler.CreatePayable)
	contas.Put("/:id", financeHandler.UpdatePayable)
	contas.Post("/:id/pagamentos", financeHandler.PayPayable)
	contas.Post("/:id/estornar", financeHandler.ReversePayable)

	// Clientes
	clientes := api.Group("/clientes")
	clientHandler := NewClientHandler(deps.ClientUC)
	clientes.Post("/", clientHandler.Create)
	clientes.Get("/", clientHandler.List)
	clientes.Get("/:id", clientHandler.GetByID)
	clientes.Put("/:id", clientHandler.Update)
	clientes.Delete("/:id", clientHandler.Delete)

	// Dashboard
	dashboardHandler := NewDashboardHandler(deps.AnalyticsUC)
	api.Get("/dashboard", dashboardHandler.Summary)
}
