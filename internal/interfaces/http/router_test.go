package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/analytics"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/batches"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/clients"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/finance"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/sales"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/stock"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/infrastructure/audit"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/infrastructure/memory"
	httpapi "github.com/tportooliveira-alt/frigogest-2026-sub002/internal/interfaces/http"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/pkg/logger"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.New()
	log := logger.Nop()
	sink := audit.NewStoreSink(store, log)

	app := fiber.New()
	httpapi.Router(app, httpapi.RouterDeps{
		BatchUC:     batches.New(store, sink, log),
		StockUC:     stock.New(store, log),
		SaleUC:      sales.New(store, sink, log),
		FinanceUC:   finance.New(store, sink, log),
		ClientUC:    clients.New(store, sink, log),
		AnalyticsUC: analytics.New(store, log),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, payload
}

// Fluxo completo pela API: criar cliente e lote, fechar, vender, pagar e
// estornar o lote — verificando os status HTTP de cada passo.
func TestRouter_FluxoCompleto(t *testing.T) {
	app := newTestApp(t)

	// Cliente
	status, body := doJSON(t, app, "POST", "/api/v1/clientes", fiber.Map{"nome": "Açougue Central"})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var client struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &client))

	// Lote
	status, body = doJSON(t, app, "POST", "/api/v1/lotes", fiber.Map{
		"fornecedor": "João Silva", "pesoTotal": 500, "valorCompra": 10000, "frete": 200,
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var batch struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &batch))
	require.NotEmpty(t, batch.ID)
	assert.Contains(t, batch.ID, "LOTE-JOA-", "id determinístico derivado do fornecedor")

	// Vender antes de fechar: estoque ainda não existe.
	itemA := batch.ID + "-01-A"
	status, _ = doJSON(t, app, "POST", "/api/v1/vendas", fiber.Map{
		"clienteId": client.ID,
		"itens":     []fiber.Map{{"itemId": itemA, "pesoSaida": 125}},
		"precoKg":   38,
	})
	assert.Equal(t, fiber.StatusNotFound, status)

	// Fechar o lote.
	status, body = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/lotes/%s/fechar", batch.ID), fiber.Map{
		"formaPagamento": "PARCELADO", "entrada": 2000, "prazoDias": 30,
		"carcacas": []fiber.Map{{"sequencia": 1, "pesoBandaA": 130, "pesoBandaB": 128}},
	})
	require.Equal(t, fiber.StatusOK, status, string(body))

	// Estoque disponível aparece.
	status, body = doJSON(t, app, "GET", "/api/v1/estoque", nil)
	require.Equal(t, fiber.StatusOK, status)
	var items []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &items))
	assert.Len(t, items, 2)

	// Venda das duas bandas.
	status, body = doJSON(t, app, "POST", "/api/v1/vendas", fiber.Map{
		"clienteId": client.ID,
		"itens": []fiber.Map{
			{"itemId": batch.ID + "-01-A", "pesoSaida": 125},
			{"itemId": batch.ID + "-01-B", "pesoSaida": 123},
		},
		"precoKg": 38,
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var created []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	require.Len(t, created, 1)

	// Pagamento parcial lança entrada no caixa.
	status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/vendas/%s/pagamentos", created[0].ID), fiber.Map{
		"valor": 5000, "formaPagamento": "PIX",
	})
	require.Equal(t, fiber.StatusOK, status)

	status, body = doJSON(t, app, "GET", "/api/v1/caixa", nil)
	require.Equal(t, fiber.StatusOK, status)
	var caixa struct {
		Saldo string `json:"saldo"`
	}
	require.NoError(t, json.Unmarshal(body, &caixa))
	assert.Equal(t, "3000", caixa.Saldo, "5000 recebidos - 2000 de entrada do lote")

	// Dashboard reflete a venda pendente.
	status, body = doJSON(t, app, "GET", "/api/v1/dashboard", nil)
	require.Equal(t, fiber.StatusOK, status)
	var dash struct {
		PendingSales int    `json:"vendasPendentes"`
		Receivables  string `json:"recebiveisPendentes"`
	}
	require.NoError(t, json.Unmarshal(body, &dash))
	assert.Equal(t, 1, dash.PendingSales)
	assert.Equal(t, "4424", dash.Receivables)

	// Estorno em cascata do lote.
	status, body = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/lotes/%s/estornar", batch.ID), nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	var sum struct {
		Sales int `json:"vendasEstornadas"`
		Stock int `json:"estoqueEstornado"`
	}
	require.NoError(t, json.Unmarshal(body, &sum))
	assert.Equal(t, 1, sum.Sales)
	assert.Equal(t, 2, sum.Stock)

	// Fechar de novo depois do estorno: conflito.
	status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/lotes/%s/fechar", batch.ID), fiber.Map{
		"formaPagamento": "AVISTA",
	})
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestRouter_MapeamentoDeErros(t *testing.T) {
	app := newTestApp(t)

	status, _ := doJSON(t, app, "GET", "/api/v1/lotes/LOTE-XXX-2025-001", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = doJSON(t, app, "POST", "/api/v1/lotes", fiber.Map{"fornecedor": ""})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, "POST", "/api/v1/clientes", fiber.Map{"nome": ""})
	assert.Equal(t, fiber.StatusBadRequest, status)

	// Estorno de transação vinculada: 422.
	statusTx, body := doJSON(t, app, "POST", "/api/v1/transacoes", fiber.Map{
		"descricao": "Compra de gelo", "direcao": "SAIDA", "valor": 100,
	})
	require.Equal(t, fiber.StatusCreated, statusTx, string(body))
	var tx struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &tx))

	status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/transacoes/%s/estornar", tx.ID), nil)
	assert.Equal(t, fiber.StatusCreated, status, "manual pode ser estornada")

	status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/transacoes/%s/estornar", tx.ID), nil)
	assert.Equal(t, fiber.StatusConflict, status, "segundo estorno rejeitado")
}
