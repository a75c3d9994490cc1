package finance_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/dto"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/finance"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/repository"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/infrastructure/audit"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/infrastructure/memory"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/pkg/logger"
)

func newFinanceUC(t *testing.T) (*finance.UseCase, *memory.Store) {
	t.Helper()
	store := memory.New()
	log := logger.Nop()
	return finance.New(store, audit.NewStoreSink(store, log), log), store
}

func TestAddTransaction_LancamentoManual(t *testing.T) {
	uc, _ := newFinanceUC(t)
	ctx := context.Background()

	tx, err := uc.AddTransaction(ctx, dto.TransactionRequest{
		Description: "Compra de sal grosso",
		Direction:   entity.DirectionOut,
		Amount:      entity.NF(150),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CategoryOther, tx.Category, "categoria ausente vira OUTRO")
	assert.Contains(t, tx.ID, "TR-")

	_, err = uc.AddTransaction(ctx, dto.TransactionRequest{Direction: "LATERAL", Amount: entity.NF(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.AddTransaction(ctx, dto.TransactionRequest{Direction: entity.DirectionIn})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "valor zero rejeitado")
}

func TestCashBalance_EntradasMenosSaidas(t *testing.T) {
	uc, _ := newFinanceUC(t)
	ctx := context.Background()

	_, err := uc.AddTransaction(ctx, dto.TransactionRequest{Description: "venda de couro", Direction: entity.DirectionIn, Amount: entity.NF(500)})
	require.NoError(t, err)
	_, err = uc.AddTransaction(ctx, dto.TransactionRequest{Description: "frete", Direction: entity.DirectionOut, Amount: entity.NF(120)})
	require.NoError(t, err)

	balance, err := uc.CashBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "380", balance.String())
}

// O estorno nunca apaga: gera um espelho com direção invertida e o saldo
// volta ao que era.
func TestReverseTransaction_GeraEspelho(t *testing.T) {
	uc, store := newFinanceUC(t)
	ctx := context.Background()

	tx, err := uc.AddTransaction(ctx, dto.TransactionRequest{
		Description: "Compra de lenha", Direction: entity.DirectionOut, Amount: entity.NF(300),
	})
	require.NoError(t, err)

	m, err := uc.ReverseTransaction(ctx, tx.ID, "maria")
	require.NoError(t, err)
	assert.Equal(t, entity.DirectionIn, m.Direction)
	assert.Equal(t, entity.CategoryReversal, m.Category)
	assert.Equal(t, tx.ID, m.ReferenceID)

	balance, err := uc.CashBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "espelho devolve o saldo ao zero")

	// A original continua no razão, intacta.
	docs, _ := store.ListAll(ctx, repository.ColTransactions)
	assert.Len(t, docs, 2, "original + espelho; nada foi apagado")

	// Segundo estorno do mesmo lançamento é rejeitado.
	_, err = uc.ReverseTransaction(ctx, tx.ID, "maria")
	assert.ErrorIs(t, err, domain.ErrAlreadyReversed)

	// Estornar um estorno também.
	_, err = uc.ReverseTransaction(ctx, m.ID, "maria")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// Transações estruturais (recebimento de venda, pagamento de conta, compra de
// lote) só podem ser estornadas pela entidade dona.
func TestReverseTransaction_RejeitaVinculadas(t *testing.T) {
	uc, store := newFinanceUC(t)
	ctx := context.Background()

	owned := []*entity.Transaction{
		entity.NewTransaction("TR-REC-abc", "Recebimento do cliente x", entity.DirectionIn, entity.CategoryReceipt, decimal.NewFromInt(100), "cliente-x"),
		entity.NewTransaction("TR-VENDA-abc", "Recebimento da venda y", entity.DirectionIn, entity.CategoryReceipt, decimal.NewFromInt(200), "venda-y"),
		entity.NewTransaction("TR-PAG-abc", "Pagamento da conta z", entity.DirectionOut, entity.CategoryPayment, decimal.NewFromInt(300), "conta-z"),
		entity.NewTransaction("TR-LOTE-LOTE-JOA-2025-001", "Compra do lote", entity.DirectionOut, entity.CategoryPurchase, decimal.NewFromInt(400), "LOTE-JOA-2025-001"),
	}
	for _, tx := range owned {
		require.NoError(t, store.SetByID(ctx, repository.ColTransactions, tx.ID, tx))
	}

	for _, tx := range owned {
		_, err := uc.ReverseTransaction(ctx, tx.ID, "")
		assert.ErrorIs(t, err, domain.ErrOwnedTransaction, "id %s", tx.ID)
	}

	docs, _ := store.ListAll(ctx, repository.ColTransactions)
	assert.Len(t, docs, len(owned), "nenhum espelho pode ter sido criado")
}

// Transação antiga sem prefixo estrutural, mas cuja referência resolve para
// uma venda existente, também é vinculada.
func TestReverseTransaction_ReferenciaResolvida(t *testing.T) {
	uc, store := newFinanceUC(t)
	ctx := context.Background()

	require.NoError(t, store.SetByID(ctx, repository.ColSales, "venda-1", &entity.Sale{ID: "venda-1"}))
	old := entity.NewTransaction("TR-legado-1", "Recebimento antigo", entity.DirectionIn, entity.CategoryReceipt, decimal.NewFromInt(50), "venda-1")
	require.NoError(t, store.SetByID(ctx, repository.ColTransactions, old.ID, old))

	_, err := uc.ReverseTransaction(ctx, old.ID, "")
	assert.ErrorIs(t, err, domain.ErrOwnedTransaction)
}

func TestAddPayable_GuardDeDuplicataPorLote(t *testing.T) {
	uc, _ := newFinanceUC(t)
	ctx := context.Background()

	p, err := uc.AddPayable(ctx, dto.PayableRequest{
		Description: "Saldo da compra do lote LOTE-JOA-2025-001",
		Amount:      entity.NF(8200),
		BatchID:     "LOTE-JOA-2025-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "PAY-LOTE-LOTE-JOA-2025-001", p.ID, "conta de lote usa id determinístico")

	// Segunda conta do mesmo lote, mesmo sem o campo estruturado: o id de
	// lote extraído da descrição casa com a conta ativa existente.
	_, err = uc.AddPayable(ctx, dto.PayableRequest{
		Description: "Outra conta do LOTE-JOA-2025-001",
		Amount:      entity.NF(100),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// Conta avulsa sem lote passa.
	avulsa, err := uc.AddPayable(ctx, dto.PayableRequest{Description: "Energia elétrica", Amount: entity.NF(900)})
	require.NoError(t, err)
	assert.Empty(t, avulsa.BatchID)
}

func TestPayPayable_ParcialEQuitacao(t *testing.T) {
	uc, _ := newFinanceUC(t)
	ctx := context.Background()
	p, err := uc.AddPayable(ctx, dto.PayableRequest{Description: "Energia", Amount: entity.NF(1000)})
	require.NoError(t, err)

	updated, err := uc.PayPayable(ctx, p.ID, decimal.NewFromInt(400))
	require.NoError(t, err)
	assert.Equal(t, entity.PayablePartial, updated.Status)

	updated, err = uc.PayPayable(ctx, p.ID, decimal.NewFromInt(600))
	require.NoError(t, err)
	assert.Equal(t, entity.PayablePaid, updated.Status)
	assert.Equal(t, "1000", updated.AmountPaid.String())
}

func TestPayPayable_RejeitaAcimaDoSaldo(t *testing.T) {
	uc, _ := newFinanceUC(t)
	ctx := context.Background()
	p, err := uc.AddPayable(ctx, dto.PayableRequest{Description: "Energia", Amount: entity.NF(1000)})
	require.NoError(t, err)

	_, err = uc.PayPayable(ctx, p.ID, decimal.NewFromInt(1100))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "pagamento acima do valor da conta")

	unchanged, err := uc.GetPayable(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, unchanged.AmountPaid.IsZero())
	assert.Equal(t, entity.PayablePending, unchanged.Status)
}

func TestReversePayable_ComEPagamento(t *testing.T) {
	uc, store := newFinanceUC(t)
	ctx := context.Background()

	// Sem pagamento: CANCELADO, caixa intocado.
	semPag, err := uc.AddPayable(ctx, dto.PayableRequest{Description: "Frete avulso", Amount: entity.NF(500)})
	require.NoError(t, err)
	reversed, err := uc.ReversePayable(ctx, semPag.ID, "")
	require.NoError(t, err)
	assert.Equal(t, entity.PayableCancelled, reversed.Status)

	balance, _ := uc.CashBalance(ctx)
	assert.True(t, balance.IsZero())

	// Com pagamento parcial: ESTORNADO e uma ENTRADA do valor pago.
	comPag, err := uc.AddPayable(ctx, dto.PayableRequest{Description: "Energia", Amount: entity.NF(1000)})
	require.NoError(t, err)
	_, err = uc.PayPayable(ctx, comPag.ID, decimal.NewFromInt(400))
	require.NoError(t, err)

	reversed, err = uc.ReversePayable(ctx, comPag.ID, "")
	require.NoError(t, err)
	assert.Equal(t, entity.PayableReversed, reversed.Status)

	var mirror *entity.Transaction
	docs, _ := store.ListAll(ctx, repository.ColTransactions)
	for _, d := range docs {
		tx, _ := entity.DecodeTransaction(d.Data)
		if tx.IsReversal() && tx.ReferenceID == comPag.ID {
			mirror = tx
		}
	}
	require.NotNil(t, mirror, "estorno de conta paga gera espelho")
	assert.Equal(t, entity.DirectionIn, mirror.Direction)
	assert.Equal(t, "400", mirror.Amount.String())

	// Conta já estornada não aceita novo estorno nem pagamento.
	_, err = uc.ReversePayable(ctx, comPag.ID, "")
	assert.ErrorIs(t, err, domain.ErrAlreadyReversed)
	_, err = uc.PayPayable(ctx, comPag.ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdatePayable_SoContaAtiva(t *testing.T) {
	uc, _ := newFinanceUC(t)
	ctx := context.Background()
	p, err := uc.AddPayable(ctx, dto.PayableRequest{Description: "Energia", Amount: entity.NF(1000)})
	require.NoError(t, err)

	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	updated, err := uc.UpdatePayable(ctx, p.ID, dto.PayableRequest{Amount: entity.NF(1200), DueDate: due})
	require.NoError(t, err)
	assert.Equal(t, "1200", updated.Amount.String())
	assert.Equal(t, due, updated.DueDate)

	_, err = uc.ReversePayable(ctx, p.ID, "")
	require.NoError(t, err)
	_, err = uc.UpdatePayable(ctx, p.ID, dto.PayableRequest{Amount: entity.NF(1)})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
