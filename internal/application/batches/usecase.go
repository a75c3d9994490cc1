// Package batches implementa o ciclo de vida do lote: criação (ABERTO),
// fechamento (materializa estoque e lança o financeiro) e estorno em cascata.
package batches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/dto"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/lote"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/repository"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/pkg/logger"
)

// UseCase operações de lote contra o ledger store.
type UseCase struct {
	store repository.LedgerStore
	audit repository.AuditSink
	log   *logger.Logger
}

// New constrói o caso de uso.
func New(store repository.LedgerStore, audit repository.AuditSink, log *logger.Logger) *UseCase {
	return &UseCase{store: store, audit: audit, log: log}
}

// Create abre um lote novo (status ABERTO). O lote aberto é provisório:
// invisível para vendas e dashboards até o fechamento.
func (uc *UseCase) Create(ctx context.Context, in dto.CreateBatchRequest) (*entity.Batch, error) {
	if in.Supplier == "" {
		return nil, fmt.Errorf("fornecedor obrigatório: %w", domain.ErrInvalidInput)
	}
	received := in.ReceivedDate
	if received.IsZero() {
		received = time.Now().UTC()
	}

	id, err := uc.nextID(ctx, in.Supplier, received)
	if err != nil {
		return nil, err
	}

	totalCost := in.PurchaseValue.Add(in.Freight.Decimal).Add(in.ExtraCosts.Decimal)
	costPerKg := decimal.Zero
	if in.TotalWeight.IsPositive() {
		costPerKg = totalCost.DivRound(in.TotalWeight.Decimal, 4)
	}

	days := in.InstallmentDays
	if days <= 0 {
		days = entity.DefaultTermDays
	}

	now := time.Now().UTC()
	b := &entity.Batch{
		ID:              id,
		Supplier:        in.Supplier,
		ReceivedDate:    received,
		TotalWeight:     in.TotalWeight,
		PurchaseValue:   in.PurchaseValue,
		Freight:         in.Freight,
		ExtraCosts:      in.ExtraCosts,
		RealCostPerKg:   entity.N(costPerKg),
		PaymentMethod:   in.PaymentMethod,
		DownPayment:     in.DownPayment,
		InstallmentDays: days,
		Status:          entity.BatchStatusOpen,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.store.SetByID(ctx, repository.ColBatches, b.ID, b); err != nil {
		return nil, fmt.Errorf("gravar lote: %w", err)
	}

	uc.audit.Record(ctx, entity.AuditEntry{
		Actor:       "sistema",
		Action:      entity.AuditActionCreate,
		Entity:      entity.AuditEntityBatch,
		Description: fmt.Sprintf("Lote %s criado (%s, %s kg)", b.ID, b.Supplier, b.TotalWeight.String()),
	})
	return b, nil
}

// nextID gera o próximo id determinístico LOTE-<cod>-<ano>-<seq> contando os
// lotes existentes do mesmo fornecedor no mesmo ano.
func (uc *UseCase) nextID(ctx context.Context, supplier string, received time.Time) (string, error) {
	docs, err := uc.store.ListAll(ctx, repository.ColBatches)
	if err != nil {
		return "", fmt.Errorf("listar lotes: %w", err)
	}
	prefix := fmt.Sprintf("%s%s-%d-", lote.IDPrefix, lote.SupplierCode(supplier), lote.YearOf(received))
	seq := 0
	for _, d := range docs {
		if strings.HasPrefix(d.ID, prefix) {
			seq++
		}
	}
	return lote.NewID(supplier, lote.YearOf(received), seq+1), nil
}

// GetByID devolve o lote decodificado.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	data, err := uc.store.GetByID(ctx, repository.ColBatches, id)
	if err != nil {
		return nil, err
	}
	return entity.DecodeBatch(data)
}

// List devolve todos os lotes.
func (uc *UseCase) List(ctx context.Context) ([]*entity.Batch, error) {
	docs, err := uc.store.ListAll(ctx, repository.ColBatches)
	if err != nil {
		return nil, fmt.Errorf("listar lotes: %w", err)
	}
	out := make([]*entity.Batch, 0, len(docs))
	for _, d := range docs {
		b, err := entity.DecodeBatch(d.Data)
		if err != nil {
			uc.log.Warn().Err(err).Str("id", d.ID).Msg("lote ilegível ignorado")
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Close fecha o lote: persiste status FECHADO, materializa os itens de
// estoque e lança o financeiro. Todos os ids derivados são determinísticos,
// então um retry após falha parcial converge em vez de duplicar (o guard da
// conta a pagar cobre o único insert não substituível).
func (uc *UseCase) Close(ctx context.Context, batchID string, in dto.CloseBatchRequest) error {
	b, err := uc.GetByID(ctx, batchID)
	if err != nil {
		return err
	}
	if b.Status == entity.BatchStatusReversed {
		return fmt.Errorf("lote %s estornado: %w", batchID, domain.ErrConflict)
	}

	days := in.InstallmentDays
	if days <= 0 {
		days = entity.DefaultTermDays
	}
	method := in.PaymentMethod
	if method == "" {
		method = b.PaymentMethod
	}
	if method != entity.PaymentCash && method != entity.PaymentInstallment {
		return fmt.Errorf("forma de pagamento %q: %w", method, domain.ErrInvalidInput)
	}

	// 1. Status FECHADO primeiro: a partir daqui o lote é visível a jusante.
	now := time.Now().UTC()
	err = uc.store.UpdateFields(ctx, repository.ColBatches, batchID, map[string]any{
		"status":         entity.BatchStatusClosed,
		"formaPagamento": method,
		"entrada":        in.DownPayment,
		"prazoDias":      days,
		"versao":         b.Version + 1,
		"atualizadoEm":   now,
	})
	if err != nil {
		return fmt.Errorf("fechar lote %s: %w", batchID, err)
	}

	// 2. Materializa o estoque (ids determinísticos -> upsert idempotente).
	created, err := uc.materializeStock(ctx, b, in.Carcasses, now)
	if err != nil {
		return err
	}

	// 3/4. Lançamentos financeiros.
	totalCost := b.TotalCost()
	switch method {
	case entity.PaymentCash:
		if totalCost.IsPositive() {
			t := entity.NewTransaction(
				lote.TransactionID(batchID),
				fmt.Sprintf("Compra do lote %s (%s)", batchID, b.Supplier),
				entity.DirectionOut, entity.CategoryPurchase, totalCost, batchID,
			)
			t.PaymentMethod = method
			if err := uc.store.SetByID(ctx, repository.ColTransactions, t.ID, t); err != nil {
				return fmt.Errorf("lançar compra do lote %s: %w", batchID, err)
			}
		}
	case entity.PaymentInstallment:
		if in.DownPayment.IsPositive() {
			t := entity.NewTransaction(
				lote.DownPaymentTransactionID(batchID),
				fmt.Sprintf("Entrada do lote %s (%s)", batchID, b.Supplier),
				entity.DirectionOut, entity.CategoryPurchase, in.DownPayment.Decimal, batchID,
			)
			t.PaymentMethod = method
			if err := uc.store.SetByID(ctx, repository.ColTransactions, t.ID, t); err != nil {
				return fmt.Errorf("lançar entrada do lote %s: %w", batchID, err)
			}
		}
		remaining := totalCost.Sub(in.DownPayment.Decimal)
		if remaining.IsPositive() {
			if err := uc.createPayableGuarded(ctx, b, remaining, days, now); err != nil {
				return err
			}
		}
	}

	uc.audit.Record(ctx, entity.AuditEntry{
		Actor:       actorOrSystem(in.Actor),
		Action:      entity.AuditActionUpdate,
		Entity:      entity.AuditEntityBatch,
		Description: fmt.Sprintf("Lote %s fechado (%d itens de estoque)", batchID, created),
		Metadata:    map[string]any{"itens": created, "formaPagamento": method},
	})
	return nil
}

func (uc *UseCase) materializeStock(ctx context.Context, b *entity.Batch, carcasses []dto.CarcassInput, now time.Time) (int, error) {
	created := 0
	put := func(seq int, side string, weight entity.Num) error {
		id := entity.StockItemID(b.ID, seq, side)
		// Refechamento: item já materializado não é tocado. Sobrescrever
		// ressuscitaria como DISPONIVEL um item já vendido.
		if _, err := uc.store.GetByID(ctx, repository.ColStock, id); err == nil {
			return nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("verificar item %s: %w", id, err)
		}
		item := &entity.StockItem{
			ID:          id,
			BatchID:     b.ID,
			Sequence:    seq,
			SideType:    side,
			EntryWeight: weight,
			Status:      entity.StockAvailable,
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := uc.store.SetByID(ctx, repository.ColStock, item.ID, item); err != nil {
			return fmt.Errorf("gravar item %s: %w", item.ID, err)
		}
		created++
		return nil
	}
	for _, c := range carcasses {
		if c.Whole {
			if err := put(c.Sequence, entity.SideWhole, c.WholeWeight); err != nil {
				return created, err
			}
			continue
		}
		if err := put(c.Sequence, entity.SideA, c.SideAWeight); err != nil {
			return created, err
		}
		if err := put(c.Sequence, entity.SideB, c.SideBWeight); err != nil {
			return created, err
		}
	}
	return created, nil
}

// createPayableGuarded cria a conta a pagar do saldo a prazo, a menos que já
// exista uma conta do lote (retry ou fechamento duplicado): nesse caso sai
// em silêncio — prevenção de duplicata, não erro.
func (uc *UseCase) createPayableGuarded(ctx context.Context, b *entity.Batch, remaining decimal.Decimal, days int, now time.Time) error {
	docs, err := uc.store.ListAll(ctx, repository.ColPayables)
	if err != nil {
		return fmt.Errorf("listar contas a pagar: %w", err)
	}
	for _, d := range docs {
		p, err := entity.DecodePayable(d.Data)
		if err != nil {
			continue
		}
		if ok, strategy := lote.PayableMatches(p, b.ID); ok {
			uc.log.Info().
				Str("lote", b.ID).Str("conta", p.ID).Str("estrategia", string(strategy)).
				Msg("conta a pagar do lote já existe; criação ignorada")
			return nil
		}
	}

	p := &entity.Payable{
		ID:          lote.PayableID(b.ID),
		Description: fmt.Sprintf("Saldo da compra do lote %s (%s)", b.ID, b.Supplier),
		Amount:      entity.N(remaining),
		DueDate:     b.ReceivedDate.AddDate(0, 0, days),
		Status:      entity.PayablePending,
		Category:    entity.PayableCategoryPurchase,
		BatchID:     b.ID,
		SupplierID:  lote.SupplierCode(b.Supplier),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.store.SetByID(ctx, repository.ColPayables, p.ID, p); err != nil {
		return fmt.Errorf("criar conta a pagar do lote %s: %w", b.ID, err)
	}
	return nil
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return "sistema"
	}
	return actor
}

// ReversalSummary contagem por coleção afetada pela cascata de estorno.
type ReversalSummary struct {
	StockReversed      int `json:"estoqueEstornado"`
	PayablesCancelled  int `json:"contasCanceladas"`
	PayablesReversed   int `json:"contasEstornadas"`
	SalesReversed      int `json:"vendasEstornadas"`
	MirrorTransactions int `json:"transacoesEspelho"`
}

// Reverse executa a cascata completa de estorno do lote, na ordem: status do
// lote, estoque, contas a pagar, vendas, transações. Cada passo é falível de
// forma independente: a cascata loga e segue em frente, porque é idempotente
// e pode ser reexecutada para completar o que faltou — abortar no meio sem
// rastro não é recuperável.
func (uc *UseCase) Reverse(ctx context.Context, batchID string, actor string) (*ReversalSummary, error) {
	b, err := uc.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	sum := &ReversalSummary{}
	now := time.Now().UTC()

	// 1. Flip do status do lote primeiro: leitores concorrentes enxergam
	// "lote estornado" o quanto antes.
	err = uc.store.UpdateFields(ctx, repository.ColBatches, batchID, map[string]any{
		"status":       entity.BatchStatusReversed,
		"versao":       b.Version + 1,
		"atualizadoEm": now,
	})
	if err != nil {
		return nil, fmt.Errorf("estornar lote %s: %w", batchID, err)
	}

	// Conjunto de transações já espelhadas (reexecução não duplica espelhos).
	mirrored, transactions := uc.loadMirroredSet(ctx)

	// 2. Estoque do lote.
	uc.reverseStock(ctx, batchID, now, sum)

	// 3. Contas a pagar do lote (três estratégias de casamento para
	// registros antigos sem loteId estruturado).
	uc.reversePayables(ctx, batchID, mirrored, now, sum)

	// 4. Vendas que consumiram estoque do lote.
	uc.reverseSales(ctx, batchID, mirrored, now, sum)

	// 5. Espelho das transações de compra do lote.
	uc.mirrorPurchaseTransactions(ctx, batchID, transactions, mirrored, sum)

	uc.audit.Record(ctx, entity.AuditEntry{
		Actor:       actorOrSystem(actor),
		Action:      entity.AuditActionReversal,
		Entity:      entity.AuditEntityBatch,
		Description: fmt.Sprintf("Estorno do lote %s", batchID),
		Metadata: map[string]any{
			"estoque":           sum.StockReversed,
			"contasCanceladas":  sum.PayablesCancelled,
			"contasEstornadas":  sum.PayablesReversed,
			"vendas":            sum.SalesReversed,
			"transacoesEspelho": sum.MirrorTransactions,
		},
	})
	return sum, nil
}

// loadMirroredSet devolve os ids de transações que já têm espelho de estorno
// e o snapshot completo da coleção de transações.
func (uc *UseCase) loadMirroredSet(ctx context.Context) (map[string]bool, []*entity.Transaction) {
	mirrored := make(map[string]bool)
	var all []*entity.Transaction
	docs, err := uc.store.ListAll(ctx, repository.ColTransactions)
	if err != nil {
		uc.log.Error().Err(err).Msg("estorno: falha ao listar transações")
		return mirrored, all
	}
	for _, d := range docs {
		t, err := entity.DecodeTransaction(d.Data)
		if err != nil {
			continue
		}
		all = append(all, t)
		if t.IsReversal() && t.ReferenceID != "" {
			mirrored[t.ReferenceID] = true
		}
	}
	return mirrored, all
}

func (uc *UseCase) reverseStock(ctx context.Context, batchID string, now time.Time, sum *ReversalSummary) {
	docs, err := uc.store.ListAll(ctx, repository.ColStock)
	if err != nil {
		uc.log.Error().Err(err).Str("lote", batchID).Msg("estorno: falha ao listar estoque")
		return
	}
	for _, d := range docs {
		item, err := entity.DecodeStockItem(d.Data)
		if err != nil || item.BatchID != batchID || item.Status == entity.StockReversed {
			continue
		}
		err = uc.store.UpdateFields(ctx, repository.ColStock, item.ID, map[string]any{
			"status":       entity.StockReversed,
			"versao":       item.Version + 1,
			"atualizadoEm": now,
		})
		if err != nil {
			uc.log.Warn().Err(err).Str("item", item.ID).Msg("estorno: item de estoque não atualizado")
			continue
		}
		sum.StockReversed++
	}
}

func (uc *UseCase) reversePayables(ctx context.Context, batchID string, mirrored map[string]bool, now time.Time, sum *ReversalSummary) {
	docs, err := uc.store.ListAll(ctx, repository.ColPayables)
	if err != nil {
		uc.log.Error().Err(err).Str("lote", batchID).Msg("estorno: falha ao listar contas a pagar")
		return
	}
	for _, d := range docs {
		p, err := entity.DecodePayable(d.Data)
		if err != nil {
			continue
		}
		ok, _ := lote.PayableMatches(p, batchID)
		if !ok || p.Settled() {
			continue
		}

		status := entity.PayableCancelled
		if p.HasPayment() {
			status = entity.PayableReversed
		}
		err = uc.store.UpdateFields(ctx, repository.ColPayables, p.ID, map[string]any{
			"status":       status,
			"versao":       p.Version + 1,
			"atualizadoEm": now,
		})
		if err != nil {
			uc.log.Warn().Err(err).Str("conta", p.ID).Msg("estorno: conta a pagar não atualizada")
			continue
		}

		if status == entity.PayableReversed {
			sum.PayablesReversed++
			if !mirrored[p.ID] {
				m := entity.NewTransaction(
					entity.TRReversalPrefix+uuid.New().String(),
					fmt.Sprintf("Estorno do pagamento da conta %s", p.ID),
					entity.DirectionIn, entity.CategoryReversal, p.AmountPaid.Decimal, p.ID,
				)
				if err := uc.store.SetByID(ctx, repository.ColTransactions, m.ID, m); err != nil {
					uc.log.Warn().Err(err).Str("conta", p.ID).Msg("estorno: espelho da conta não gravado")
					continue
				}
				sum.MirrorTransactions++
			}
		} else {
			sum.PayablesCancelled++
		}
	}
}

func (uc *UseCase) reverseSales(ctx context.Context, batchID string, mirrored map[string]bool, now time.Time, sum *ReversalSummary) {
	docs, err := uc.store.ListAll(ctx, repository.ColSales)
	if err != nil {
		uc.log.Error().Err(err).Str("lote", batchID).Msg("estorno: falha ao listar vendas")
		return
	}
	for _, d := range docs {
		s, err := entity.DecodeSale(d.Data)
		if err != nil || s.PaymentStatus == entity.SaleReversed || !lote.SaleBelongsToBatch(s, batchID) {
			continue
		}

		prevPaid := s.AmountPaid.Decimal
		err = uc.store.UpdateFields(ctx, repository.ColSales, s.ID, map[string]any{
			"statusPagamento": entity.SaleReversed,
			"valorPago":       entity.ZeroNum(),
			"versao":          s.Version + 1,
			"atualizadoEm":    now,
		})
		if err != nil {
			uc.log.Warn().Err(err).Str("venda", s.ID).Msg("estorno: venda não atualizada")
			continue
		}
		sum.SalesReversed++

		if prevPaid.IsPositive() && !mirrored[s.ID] {
			m := entity.NewTransaction(
				entity.TRReversalPrefix+uuid.New().String(),
				fmt.Sprintf("Estorno do recebimento da venda %s", s.ID),
				entity.DirectionOut, entity.CategoryReversal, prevPaid, s.ID,
			)
			if err := uc.store.SetByID(ctx, repository.ColTransactions, m.ID, m); err != nil {
				uc.log.Warn().Err(err).Str("venda", s.ID).Msg("estorno: espelho da venda não gravado")
				continue
			}
			sum.MirrorTransactions++
		}
	}
}

func (uc *UseCase) mirrorPurchaseTransactions(ctx context.Context, batchID string, transactions []*entity.Transaction, mirrored map[string]bool, sum *ReversalSummary) {
	for _, t := range transactions {
		if t.IsReversal() || t.Category != entity.CategoryPurchase {
			continue
		}
		if t.ReferenceID != batchID &&
			t.ID != lote.TransactionID(batchID) &&
			t.ID != lote.DownPaymentTransactionID(batchID) {
			continue
		}
		if mirrored[t.ID] {
			continue
		}
		m := entity.NewMirror(t)
		if err := uc.store.SetByID(ctx, repository.ColTransactions, m.ID, m); err != nil {
			uc.log.Warn().Err(err).Str("transacao", t.ID).Msg("estorno: espelho da compra não gravado")
			continue
		}
		mirrored[t.ID] = true
		sum.MirrorTransactions++
	}
}
