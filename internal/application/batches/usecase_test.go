package batches_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/batches"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/dto"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/sales"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/lote"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/repository"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/infrastructure/audit"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/infrastructure/memory"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/pkg/logger"
)

func newBatchUC(t *testing.T) (*batches.UseCase, *memory.Store) {
	t.Helper()
	store := memory.New()
	log := logger.Nop()
	return batches.New(store, audit.NewStoreSink(store, log), log), store
}

func createBatch(t *testing.T, uc *batches.UseCase) *entity.Batch {
	t.Helper()
	b, err := uc.Create(context.Background(), dto.CreateBatchRequest{
		Supplier:      "João Silva",
		ReceivedDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		TotalWeight:   entity.NF(500),
		PurchaseValue: entity.NF(10000),
		Freight:       entity.NF(200),
	})
	require.NoError(t, err)
	return b
}

var closeParcelado = dto.CloseBatchRequest{
	PaymentMethod:   entity.PaymentInstallment,
	DownPayment:     entity.NF(2000),
	InstallmentDays: 30,
	Carcasses: []dto.CarcassInput{
		{Sequence: 1, SideAWeight: entity.NF(130), SideBWeight: entity.NF(128)},
		{Sequence: 2, Whole: true, WholeWeight: entity.NF(120)},
	},
}

func TestCreate_IDDeterministicoECustoReal(t *testing.T) {
	uc, _ := newBatchUC(t)
	b := createBatch(t, uc)

	assert.Equal(t, "LOTE-JOA-2025-001", b.ID)
	assert.Equal(t, entity.BatchStatusOpen, b.Status)
	// (10000 + 200) / 500 = 20.4
	assert.Equal(t, "20.4", b.RealCostPerKg.String())

	// Segundo lote do mesmo fornecedor no mesmo ano incrementa a sequência.
	b2 := createBatch(t, uc)
	assert.Equal(t, "LOTE-JOA-2025-002", b2.ID)
}

func TestCreate_SemFornecedor(t *testing.T) {
	uc, _ := newBatchUC(t)
	_, err := uc.Create(context.Background(), dto.CreateBatchRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Compra parcelada com entrada: saída da entrada no caixa e conta a pagar do
// saldo, vencendo em dataRecebimento + prazo.
func TestClose_ParceladoComEntrada(t *testing.T) {
	uc, store := newBatchUC(t)
	ctx := context.Background()
	b := createBatch(t, uc)

	require.NoError(t, uc.Close(ctx, b.ID, closeParcelado))

	closed, err := uc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusClosed, closed.Status)

	// Estoque materializado: duas bandas + uma inteira, todos DISPONIVEL.
	stockDocs, err := store.ListAll(ctx, repository.ColStock)
	require.NoError(t, err)
	require.Len(t, stockDocs, 3)
	for _, d := range stockDocs {
		item, err := entity.DecodeStockItem(d.Data)
		require.NoError(t, err)
		assert.Equal(t, entity.StockAvailable, item.Status)
		assert.Equal(t, b.ID, item.BatchID)
	}

	// Entrada de 2000 lançada como SAIDA com id determinístico.
	raw, err := store.GetByID(ctx, repository.ColTransactions, lote.DownPaymentTransactionID(b.ID))
	require.NoError(t, err)
	down, err := entity.DecodeTransaction(raw)
	require.NoError(t, err)
	assert.Equal(t, entity.DirectionOut, down.Direction)
	assert.Equal(t, entity.CategoryPurchase, down.Category)
	assert.Equal(t, "2000", down.Amount.String())

	// Conta a pagar do saldo: 10200 - 2000 = 8200, vencendo em 31/03.
	raw, err = store.GetByID(ctx, repository.ColPayables, lote.PayableID(b.ID))
	require.NoError(t, err)
	p, err := entity.DecodePayable(raw)
	require.NoError(t, err)
	assert.Equal(t, "8200", p.Amount.String())
	assert.Equal(t, entity.PayablePending, p.Status)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), p.DueDate)
}

func TestClose_AVistaLancaCompraTotal(t *testing.T) {
	uc, store := newBatchUC(t)
	ctx := context.Background()
	b := createBatch(t, uc)

	in := closeParcelado
	in.PaymentMethod = entity.PaymentCash
	in.DownPayment = entity.ZeroNum()
	require.NoError(t, uc.Close(ctx, b.ID, in))

	raw, err := store.GetByID(ctx, repository.ColTransactions, lote.TransactionID(b.ID))
	require.NoError(t, err)
	tx, err := entity.DecodeTransaction(raw)
	require.NoError(t, err)
	assert.Equal(t, "10200", tx.Amount.String())
	assert.Equal(t, entity.DirectionOut, tx.Direction)

	// À vista não gera conta a pagar.
	payables, err := store.ListAll(ctx, repository.ColPayables)
	require.NoError(t, err)
	assert.Empty(t, payables)
}

// Retry de fechamento: ids determinísticos convergem e o guard impede a
// segunda conta a pagar.
func TestClose_RetryNaoDuplica(t *testing.T) {
	uc, store := newBatchUC(t)
	ctx := context.Background()
	b := createBatch(t, uc)

	require.NoError(t, uc.Close(ctx, b.ID, closeParcelado))
	require.NoError(t, uc.Close(ctx, b.ID, closeParcelado))

	stockDocs, _ := store.ListAll(ctx, repository.ColStock)
	assert.Len(t, stockDocs, 3, "estoque não pode duplicar")

	txDocs, _ := store.ListAll(ctx, repository.ColTransactions)
	assert.Len(t, txDocs, 1, "transação de entrada não pode duplicar")

	payDocs, _ := store.ListAll(ctx, repository.ColPayables)
	assert.Len(t, payDocs, 1, "conta a pagar não pode duplicar")
}

// Refechamento depois de uma venda: a materialização não pode sobrescrever
// itens já existentes, senão um item vendido voltaria a DISPONIVEL com a
// venda ainda ativa.
func TestClose_RefechamentoNaoRessuscitaItemVendido(t *testing.T) {
	uc, store := newBatchUC(t)
	ctx := context.Background()
	b := createBatch(t, uc)
	require.NoError(t, uc.Close(ctx, b.ID, closeParcelado))

	// Cliente e venda das duas bandas da carcaça 1.
	require.NoError(t, store.SetByID(ctx, repository.ColClients, "cliente-1", &entity.Client{
		ID: "cliente-1", Name: "Açougue Central",
	}))
	log := logger.Nop()
	salesUC := sales.New(store, audit.NewStoreSink(store, log), log)
	created, err := salesUC.Confirm(ctx, dto.ConfirmSaleRequest{
		ClientID: "cliente-1",
		Items: []dto.SaleItemInput{
			{StockItemID: entity.StockItemID(b.ID, 1, entity.SideA), ExitWeight: entity.NF(125)},
			{StockItemID: entity.StockItemID(b.ID, 1, entity.SideB), ExitWeight: entity.NF(123)},
		},
		PricePerKg: entity.NF(38),
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	// Retry do fechamento com a mesma entrada.
	require.NoError(t, uc.Close(ctx, b.ID, closeParcelado))

	raw, err := store.GetByID(ctx, repository.ColStock, entity.StockItemID(b.ID, 1, entity.SideA))
	require.NoError(t, err)
	item, err := entity.DecodeStockItem(raw)
	require.NoError(t, err)
	assert.Equal(t, entity.StockSold, item.Status, "item vendido não pode voltar a DISPONIVEL")
	assert.Equal(t, "125", item.ExitWeight.String(), "peso de saída preservado")
	assert.Equal(t, 2, item.Version, "versão do item não pode regredir")

	raw, err = store.GetByID(ctx, repository.ColSales, created[0].ID)
	require.NoError(t, err)
	sale, err := entity.DecodeSale(raw)
	require.NoError(t, err)
	assert.Equal(t, entity.SalePending, sale.PaymentStatus, "a venda segue ativa")

	stockDocs, _ := store.ListAll(ctx, repository.ColStock)
	assert.Len(t, stockDocs, 3, "refechamento não cria itens novos")
}

func TestClose_LoteEstornadoRejeita(t *testing.T) {
	uc, _ := newBatchUC(t)
	ctx := context.Background()
	b := createBatch(t, uc)
	require.NoError(t, uc.Close(ctx, b.ID, closeParcelado))
	_, err := uc.Reverse(ctx, b.ID, "")
	require.NoError(t, err)

	err = uc.Close(ctx, b.ID, closeParcelado)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// Estorno do lote depois da conta paga: a conta vira ESTORNADO e o caixa
// recebe de volta o que saiu (espelhos da conta e da entrada).
func TestReverse_CascataComContaPaga(t *testing.T) {
	uc, store := newBatchUC(t)
	ctx := context.Background()
	b := createBatch(t, uc)
	require.NoError(t, uc.Close(ctx, b.ID, closeParcelado))

	// Paga a conta integralmente (registro direto: o fluxo HTTP passa pelo
	// caso de uso de finanças, irrelevante para a cascata).
	payableID := lote.PayableID(b.ID)
	require.NoError(t, store.UpdateFields(ctx, repository.ColPayables, payableID, map[string]any{
		"valorPago": entity.NF(8200),
		"status":    entity.PayablePaid,
	}))

	sum, err := uc.Reverse(ctx, b.ID, "maria")
	require.NoError(t, err)

	assert.Equal(t, 3, sum.StockReversed)
	assert.Equal(t, 1, sum.PayablesReversed)
	assert.Equal(t, 0, sum.PayablesCancelled)
	assert.Equal(t, 2, sum.MirrorTransactions, "espelho da conta paga + espelho da entrada")

	reversed, err := uc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusReversed, reversed.Status)

	raw, err := store.GetByID(ctx, repository.ColPayables, payableID)
	require.NoError(t, err)
	p, err := entity.DecodePayable(raw)
	require.NoError(t, err)
	assert.Equal(t, entity.PayableReversed, p.Status)

	// Um espelho ENTRADA de 8200 referenciando a conta.
	var mirrorIn, mirrorDown bool
	txDocs, _ := store.ListAll(ctx, repository.ColTransactions)
	for _, d := range txDocs {
		tx, err := entity.DecodeTransaction(d.Data)
		require.NoError(t, err)
		if !tx.IsReversal() {
			continue
		}
		switch tx.ReferenceID {
		case payableID:
			assert.Equal(t, entity.DirectionIn, tx.Direction)
			assert.Equal(t, "8200", tx.Amount.String())
			mirrorIn = true
		case lote.DownPaymentTransactionID(b.ID):
			assert.Equal(t, entity.DirectionIn, tx.Direction)
			assert.Equal(t, "2000", tx.Amount.String())
			mirrorDown = true
		}
	}
	assert.True(t, mirrorIn, "espelho do pagamento da conta")
	assert.True(t, mirrorDown, "espelho da entrada da compra")
}

// Conta nunca paga vira CANCELADO, sem movimento de caixa.
func TestReverse_ContaSemPagamentoCancela(t *testing.T) {
	uc, store := newBatchUC(t)
	ctx := context.Background()
	b := createBatch(t, uc)
	require.NoError(t, uc.Close(ctx, b.ID, closeParcelado))

	sum, err := uc.Reverse(ctx, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.PayablesCancelled)
	assert.Equal(t, 0, sum.PayablesReversed)
	assert.Equal(t, 1, sum.MirrorTransactions, "só o espelho da entrada de 2000")

	raw, err := store.GetByID(ctx, repository.ColPayables, lote.PayableID(b.ID))
	require.NoError(t, err)
	p, _ := entity.DecodePayable(raw)
	assert.Equal(t, entity.PayableCancelled, p.Status)
}

// Reexecutar a cascata não pode duplicar espelhos nem recontar mudanças.
func TestReverse_ReexecucaoEhNoOp(t *testing.T) {
	uc, store := newBatchUC(t)
	ctx := context.Background()
	b := createBatch(t, uc)
	require.NoError(t, uc.Close(ctx, b.ID, closeParcelado))

	_, err := uc.Reverse(ctx, b.ID, "")
	require.NoError(t, err)
	before, _ := store.ListAll(ctx, repository.ColTransactions)

	sum, err := uc.Reverse(ctx, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 0, sum.StockReversed)
	assert.Equal(t, 0, sum.PayablesCancelled+sum.PayablesReversed)
	assert.Equal(t, 0, sum.MirrorTransactions)

	after, _ := store.ListAll(ctx, repository.ColTransactions)
	assert.Len(t, after, len(before), "reexecução não cria transações novas")
}

func TestReverse_LoteInexistente(t *testing.T) {
	uc, _ := newBatchUC(t)
	_, err := uc.Reverse(context.Background(), "LOTE-XXX-2025-001", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
