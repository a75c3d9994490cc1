// Package analytics agrega as leituras de dashboard: posição de estoque,
// recebíveis, contas a pagar e saldo de caixa em uma passada só.
package analytics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/repository"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/pkg/logger"
)

// Summary é a fotografia do negócio exibida no dashboard.
type Summary struct {
	OpenBatches        int        `json:"lotesAbertos"`
	ClosedBatches      int        `json:"lotesFechados"`
	AvailableItems     int        `json:"itensDisponiveis"`
	AvailableWeightKg  entity.Num `json:"pesoDisponivelKg"`
	PendingSales       int        `json:"vendasPendentes"`
	PendingReceivables entity.Num `json:"recebiveisPendentes"`
	PendingPayables    entity.Num `json:"contasPendentes"`
	CashBalance        entity.Num `json:"saldoCaixa"`
}

// UseCase leituras agregadas.
type UseCase struct {
	store repository.LedgerStore
	log   *logger.Logger
}

// New constrói o caso de uso.
func New(store repository.LedgerStore, log *logger.Logger) *UseCase {
	return &UseCase{store: store, log: log}
}

// Dashboard monta o resumo. Documentos ilegíveis são ignorados com log, como
// nas demais listagens: um registro corrompido não derruba o dashboard.
func (uc *UseCase) Dashboard(ctx context.Context) (*Summary, error) {
	sum := &Summary{
		AvailableWeightKg:  entity.ZeroNum(),
		PendingReceivables: entity.ZeroNum(),
		PendingPayables:    entity.ZeroNum(),
		CashBalance:        entity.ZeroNum(),
	}

	closed := make(map[string]bool)
	batchDocs, err := uc.store.ListAll(ctx, repository.ColBatches)
	if err != nil {
		return nil, fmt.Errorf("listar lotes: %w", err)
	}
	for _, d := range batchDocs {
		b, err := entity.DecodeBatch(d.Data)
		if err != nil {
			uc.log.Warn().Err(err).Str("id", d.ID).Msg("dashboard: lote ilegível ignorado")
			continue
		}
		switch b.Status {
		case entity.BatchStatusOpen:
			sum.OpenBatches++
		case entity.BatchStatusClosed:
			sum.ClosedBatches++
			closed[b.ID] = true
		}
	}

	stockDocs, err := uc.store.ListAll(ctx, repository.ColStock)
	if err != nil {
		return nil, fmt.Errorf("listar estoque: %w", err)
	}
	weight := decimal.Zero
	for _, d := range stockDocs {
		item, err := entity.DecodeStockItem(d.Data)
		if err != nil {
			continue
		}
		if item.Status == entity.StockAvailable && closed[item.BatchID] {
			sum.AvailableItems++
			weight = weight.Add(item.EntryWeight.Decimal)
		}
	}
	sum.AvailableWeightKg = entity.N(weight)

	saleDocs, err := uc.store.ListAll(ctx, repository.ColSales)
	if err != nil {
		return nil, fmt.Errorf("listar vendas: %w", err)
	}
	receivables := decimal.Zero
	for _, d := range saleDocs {
		s, err := entity.DecodeSale(d.Data)
		if err != nil {
			continue
		}
		if s.PaymentStatus == entity.SalePending {
			sum.PendingSales++
			receivables = receivables.Add(s.Outstanding())
		}
	}
	sum.PendingReceivables = entity.N(receivables)

	payableDocs, err := uc.store.ListAll(ctx, repository.ColPayables)
	if err != nil {
		return nil, fmt.Errorf("listar contas a pagar: %w", err)
	}
	payables := decimal.Zero
	for _, d := range payableDocs {
		p, err := entity.DecodePayable(d.Data)
		if err != nil {
			continue
		}
		if p.Status == entity.PayablePending || p.Status == entity.PayablePartial {
			payables = payables.Add(p.Amount.Sub(p.AmountPaid.Decimal))
		}
	}
	sum.PendingPayables = entity.N(payables)

	txDocs, err := uc.store.ListAll(ctx, repository.ColTransactions)
	if err != nil {
		return nil, fmt.Errorf("listar transações: %w", err)
	}
	balance := decimal.Zero
	for _, d := range txDocs {
		t, err := entity.DecodeTransaction(d.Data)
		if err != nil {
			continue
		}
		if t.Direction == entity.DirectionIn {
			balance = balance.Add(t.Amount.Decimal)
		} else {
			balance = balance.Sub(t.Amount.Decimal)
		}
	}
	sum.CashBalance = entity.N(balance)

	return sum, nil
}
