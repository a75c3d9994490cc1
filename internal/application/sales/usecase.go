// Package sales implementa a confirmação de venda (consumo atômico de
// estoque), o estorno pontual de venda e os recebimentos.
package sales

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/dto"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/repository"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/pkg/logger"
)

// UseCase operações de venda contra o ledger store.
type UseCase struct {
	store repository.LedgerStore
	audit repository.AuditSink
	log   *logger.Logger
}

// New constrói o caso de uso.
func New(store repository.LedgerStore, audit repository.AuditSink, log *logger.Logger) *UseCase {
	return &UseCase{store: store, audit: audit, log: log}
}

// saleGroup acumula os itens de uma mesma carcaça (lote + sequência): as duas
// bandas do mesmo animal vendidas juntas viram uma venda só.
type saleGroup struct {
	batch       *entity.Batch
	items       []*entity.StockItem
	exitWeights []decimal.Decimal
	exitWeight  decimal.Decimal
	entryWeight decimal.Decimal
}

// Confirm valida e confirma a venda. Os itens são agrupados por carcaça
// (loteId, sequência) e cada grupo vira uma venda. O insert das vendas e a
// marcação VENDIDO dos itens entram no mesmo commit atômico: ou a venda
// inteira existe, ou nada mudou.
func (uc *UseCase) Confirm(ctx context.Context, in dto.ConfirmSaleRequest) ([]*entity.Sale, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("venda sem itens: %w", domain.ErrInvalidInput)
	}
	if !in.PricePerKg.IsPositive() {
		return nil, fmt.Errorf("preço por kg deve ser positivo: %w", domain.ErrInvalidInput)
	}

	client, err := uc.loadClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}

	groups, totalExit, err := uc.loadGroups(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	days := in.TermDays
	if days <= 0 {
		days = entity.DefaultTermDays
	}
	now := time.Now().UTC()

	// Rateio dos custos extras por participação no peso de saída; o último
	// grupo leva o resíduo do arredondamento.
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	extraLeft := in.ExtraCostsTotal.Decimal
	var sales []*entity.Sale
	var ops []repository.Operation

	for i, k := range keys {
		g := groups[k]

		extra := extraLeft
		if i < len(keys)-1 && totalExit.IsPositive() {
			extra = in.ExtraCostsTotal.Mul(g.exitWeight).DivRound(totalExit, 2)
			extraLeft = extraLeft.Sub(extra)
		}

		revenue := g.exitWeight.Mul(in.PricePerKg.Decimal)
		cost := g.exitWeight.Mul(g.batch.RealCostPerKg.Decimal)
		itemIDs := make([]string, len(g.items))
		for j, it := range g.items {
			itemIDs[j] = it.ID
		}

		s := &entity.Sale{
			ID:            uuid.New().String(),
			ClientID:      client.ID,
			ClientName:    client.Name,
			StockItemIDs:  itemIDs,
			ExitWeight:    entity.N(g.exitWeight),
			PricePerKg:    in.PricePerKg,
			SaleDate:      now,
			DueDate:       now.AddDate(0, 0, days),
			PaymentTerm:   days,
			PaymentMethod: in.PaymentMethod,
			AmountPaid:    entity.ZeroNum(),
			PaymentStatus: entity.SalePending,
			WeightLossKg:  entity.N(g.entryWeight.Sub(g.exitWeight)),
			NetProfit:     entity.N(revenue.Sub(cost).Sub(extra)),
			ExtraCosts:    entity.N(extra),
			Version:       1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		sales = append(sales, s)
		ops = append(ops, repository.Operation{
			Kind: repository.OpSet, Collection: repository.ColSales, ID: s.ID, Data: s,
		})

		for j, it := range g.items {
			ops = append(ops, repository.Operation{
				Kind: repository.OpUpdate, Collection: repository.ColStock, ID: it.ID,
				Data: map[string]any{
					"status":       entity.StockSold,
					"pesoSaida":    entity.N(g.exitWeights[j]),
					"versao":       it.Version + 1,
					"atualizadoEm": now,
				},
			})
		}
	}

	if err := uc.store.CommitAtomic(ctx, ops); err != nil {
		return nil, fmt.Errorf("confirmar venda: %w", err)
	}

	for _, s := range sales {
		uc.audit.Record(ctx, entity.AuditEntry{
			Actor:       actorOrSystem(in.Actor),
			Action:      entity.AuditActionCreate,
			Entity:      entity.AuditEntitySale,
			Description: fmt.Sprintf("Venda %s para %s (%s kg)", s.ID, s.ClientName, s.ExitWeight.String()),
			Metadata:    map[string]any{"itens": s.StockItemIDs},
		})
	}
	return sales, nil
}

func (uc *UseCase) loadClient(ctx context.Context, clientID string) (*entity.Client, error) {
	if clientID == "" {
		return nil, fmt.Errorf("cliente obrigatório: %w", domain.ErrInvalidInput)
	}
	data, err := uc.store.GetByID(ctx, repository.ColClients, clientID)
	if err != nil {
		return nil, err
	}
	return entity.DecodeClient(data)
}

// loadGroups carrega e valida os itens vendidos, agrupando por carcaça.
// Regras: item DISPONIVEL, peso de saída positivo, lote dono FECHADO.
func (uc *UseCase) loadGroups(ctx context.Context, items []dto.SaleItemInput) (map[string]*saleGroup, decimal.Decimal, error) {
	groups := make(map[string]*saleGroup)
	batches := make(map[string]*entity.Batch)
	seen := make(map[string]bool)
	totalExit := decimal.Zero

	for _, input := range items {
		if seen[input.StockItemID] {
			return nil, decimal.Zero, fmt.Errorf("item %s repetido: %w", input.StockItemID, domain.ErrInvalidInput)
		}
		seen[input.StockItemID] = true
		if !input.ExitWeight.IsPositive() {
			return nil, decimal.Zero, fmt.Errorf("peso de saída do item %s deve ser positivo: %w", input.StockItemID, domain.ErrInvalidInput)
		}

		data, err := uc.store.GetByID(ctx, repository.ColStock, input.StockItemID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		item, err := entity.DecodeStockItem(data)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if item.Status != entity.StockAvailable {
			return nil, decimal.Zero, fmt.Errorf("item %s com status %s: %w", item.ID, item.Status, domain.ErrStockUnavailable)
		}

		b, ok := batches[item.BatchID]
		if !ok {
			raw, err := uc.store.GetByID(ctx, repository.ColBatches, item.BatchID)
			if err != nil {
				return nil, decimal.Zero, err
			}
			if b, err = entity.DecodeBatch(raw); err != nil {
				return nil, decimal.Zero, err
			}
			batches[item.BatchID] = b
		}
		if b.Status != entity.BatchStatusClosed {
			return nil, decimal.Zero, fmt.Errorf("lote %s com status %s: %w", b.ID, b.Status, domain.ErrBatchNotOpen)
		}

		key := fmt.Sprintf("%s#%03d", item.BatchID, item.Sequence)
		g, ok := groups[key]
		if !ok {
			g = &saleGroup{batch: b}
			groups[key] = g
		}
		g.items = append(g.items, item)
		g.exitWeights = append(g.exitWeights, input.ExitWeight.Decimal)
		g.exitWeight = g.exitWeight.Add(input.ExitWeight.Decimal)
		g.entryWeight = g.entryWeight.Add(item.EntryWeight.Decimal)
		totalExit = totalExit.Add(input.ExitWeight.Decimal)
	}
	return groups, totalExit, nil
}

// GetByID devolve a venda decodificada.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	data, err := uc.store.GetByID(ctx, repository.ColSales, id)
	if err != nil {
		return nil, err
	}
	return entity.DecodeSale(data)
}

// List devolve todas as vendas ordenadas da mais recente para a mais antiga.
func (uc *UseCase) List(ctx context.Context) ([]*entity.Sale, error) {
	docs, err := uc.store.ListAll(ctx, repository.ColSales)
	if err != nil {
		return nil, fmt.Errorf("listar vendas: %w", err)
	}
	out := make([]*entity.Sale, 0, len(docs))
	for _, d := range docs {
		s, err := entity.DecodeSale(d.Data)
		if err != nil {
			uc.log.Warn().Err(err).Str("id", d.ID).Msg("venda ilegível ignorada")
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SaleDate.After(out[j].SaleDate) })
	return out, nil
}

// ListByClient devolve as vendas do cliente, da mais antiga para a mais nova.
func (uc *UseCase) ListByClient(ctx context.Context, clientID string) ([]*entity.Sale, error) {
	all, err := uc.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*entity.Sale
	for _, s := range all {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SaleDate.Before(out[j].SaleDate) })
	return out, nil
}

// Reverse estorna uma venda pontual: a venda é o registro autoritativo
// (status ESTORNADO, valorPago zerado); o retorno do estoque e os espelhos
// financeiros são best-effort com log, porque a reexecução completa o resto.
func (uc *UseCase) Reverse(ctx context.Context, saleID string, actor string) (*entity.Sale, error) {
	s, err := uc.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if s.PaymentStatus == entity.SaleReversed {
		return nil, fmt.Errorf("venda %s: %w", saleID, domain.ErrAlreadyReversed)
	}

	prevPaid := s.AmountPaid.Decimal
	now := time.Now().UTC()
	err = uc.store.UpdateFields(ctx, repository.ColSales, saleID, map[string]any{
		"statusPagamento": entity.SaleReversed,
		"valorPago":       entity.ZeroNum(),
		"versao":          s.Version + 1,
		"atualizadoEm":    now,
	})
	if err != nil {
		return nil, fmt.Errorf("estornar venda %s: %w", saleID, err)
	}
	s.PaymentStatus = entity.SaleReversed
	s.AmountPaid = entity.ZeroNum()
	s.Version++
	s.UpdatedAt = now

	// Devolve os itens ao estoque. Item ausente (documento antigo com id
	// solto) não aborta o estorno: a venda já está estornada.
	for _, itemID := range s.Items() {
		raw, err := uc.store.GetByID(ctx, repository.ColStock, itemID)
		if err != nil {
			uc.log.Warn().Err(err).Str("item", itemID).Msg("estorno de venda: item não encontrado")
			continue
		}
		item, err := entity.DecodeStockItem(raw)
		if err != nil || item.Status != entity.StockSold {
			continue
		}
		err = uc.store.UpdateFields(ctx, repository.ColStock, itemID, map[string]any{
			"status":       entity.StockAvailable,
			"pesoSaida":    entity.ZeroNum(),
			"versao":       item.Version + 1,
			"atualizadoEm": now,
		})
		if err != nil {
			uc.log.Warn().Err(err).Str("item", itemID).Msg("estorno de venda: item não devolvido")
		}
	}

	uc.mirrorSaleFinance(ctx, s, prevPaid)

	uc.audit.Record(ctx, entity.AuditEntry{
		Actor:       actorOrSystem(actor),
		Action:      entity.AuditActionReversal,
		Entity:      entity.AuditEntitySale,
		Description: fmt.Sprintf("Estorno da venda %s (%s)", s.ID, s.ClientName),
	})
	return s, nil
}

// mirrorSaleFinance gera os espelhos financeiros do estorno da venda: uma
// SAIDA do total recebido e uma ENTRADA para cada desconto concedido na venda.
func (uc *UseCase) mirrorSaleFinance(ctx context.Context, s *entity.Sale, prevPaid decimal.Decimal) {
	docs, err := uc.store.ListAll(ctx, repository.ColTransactions)
	if err != nil {
		uc.log.Error().Err(err).Str("venda", s.ID).Msg("estorno de venda: falha ao listar transações")
		return
	}
	mirrored := make(map[string]bool)
	var discounts []*entity.Transaction
	for _, d := range docs {
		t, err := entity.DecodeTransaction(d.Data)
		if err != nil {
			continue
		}
		if t.IsReversal() && t.ReferenceID != "" {
			mirrored[t.ReferenceID] = true
		}
		if t.Category == entity.CategoryDiscount && t.ReferenceID == s.ID {
			discounts = append(discounts, t)
		}
	}

	if prevPaid.IsPositive() && !mirrored[s.ID] {
		m := entity.NewTransaction(
			entity.TRReversalPrefix+uuid.New().String(),
			fmt.Sprintf("Estorno do recebimento da venda %s (%s)", s.ID, s.ClientName),
			entity.DirectionOut, entity.CategoryReversal, prevPaid, s.ID,
		)
		if err := uc.store.SetByID(ctx, repository.ColTransactions, m.ID, m); err != nil {
			uc.log.Warn().Err(err).Str("venda", s.ID).Msg("estorno de venda: espelho do recebimento não gravado")
		}
	}
	for _, t := range discounts {
		if mirrored[t.ID] {
			continue
		}
		m := entity.NewMirror(t)
		if err := uc.store.SetByID(ctx, repository.ColTransactions, m.ID, m); err != nil {
			uc.log.Warn().Err(err).Str("transacao", t.ID).Msg("estorno de venda: espelho do desconto não gravado")
		}
	}
}

// AddPartialPayment registra um pagamento parcial na venda e devolve a venda
// atualizada. O lançamento de caixa correspondente é responsabilidade do
// chamador (a camada HTTP compõe pagamento + transação).
func (uc *UseCase) AddPartialPayment(ctx context.Context, saleID string, amount decimal.Decimal) (*entity.Sale, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("valor do pagamento deve ser positivo: %w", domain.ErrInvalidInput)
	}
	s, err := uc.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if s.PaymentStatus == entity.SaleReversed {
		return nil, fmt.Errorf("venda %s: %w", saleID, domain.ErrAlreadyReversed)
	}

	// valorPago nunca passa do faturamento da venda. Acima do saldo devedor
	// (com tolerância do epsilon) o pagamento é rejeitado; dentro da
	// tolerância, o acumulado é travado no faturamento.
	outstanding := s.Outstanding()
	if amount.Sub(outstanding).GreaterThan(entity.Epsilon) {
		return nil, fmt.Errorf("pagamento de %s excede o saldo devedor %s da venda %s: %w",
			amount.String(), outstanding.String(), saleID, domain.ErrInvalidInput)
	}

	newPaid := s.AmountPaid.Add(amount)
	if newPaid.GreaterThan(s.Revenue()) {
		newPaid = s.Revenue()
	}
	status := entity.SalePending
	if s.Revenue().Sub(newPaid).LessThanOrEqual(entity.Epsilon) {
		status = entity.SalePaid
	}

	now := time.Now().UTC()
	err = uc.store.UpdateFields(ctx, repository.ColSales, saleID, map[string]any{
		"valorPago":       entity.N(newPaid),
		"statusPagamento": status,
		"versao":          s.Version + 1,
		"atualizadoEm":    now,
	})
	if err != nil {
		return nil, fmt.Errorf("registrar pagamento da venda %s: %w", saleID, err)
	}
	s.AmountPaid = entity.N(newPaid)
	s.PaymentStatus = status
	s.Version++
	s.UpdatedAt = now
	return s, nil
}

// Allocation é a parcela de um recebimento aplicada a uma venda.
type Allocation struct {
	SaleID string     `json:"vendaId"`
	Amount entity.Num `json:"valor"`
	Status string     `json:"statusPagamento"`
}

// ReceiveClientPayment liquida um recebimento do cliente nas vendas
// pendentes, da mais antiga para a mais nova, até esgotar o valor (sobras
// abaixo do epsilon são ignoradas em vez de girar em centavos).
func (uc *UseCase) ReceiveClientPayment(ctx context.Context, in dto.ClientPaymentRequest) ([]Allocation, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("valor do recebimento deve ser positivo: %w", domain.ErrInvalidInput)
	}
	if _, err := uc.loadClient(ctx, in.ClientID); err != nil {
		return nil, err
	}

	sales, err := uc.ListByClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}

	remaining := in.Amount.Decimal
	var allocations []Allocation
	for _, s := range sales {
		if remaining.LessThanOrEqual(entity.Epsilon) {
			break
		}
		if s.PaymentStatus != entity.SalePending {
			continue
		}
		owed := s.Outstanding()
		if !owed.IsPositive() {
			continue
		}
		applied := decimal.Min(owed, remaining)
		updated, err := uc.AddPartialPayment(ctx, s.ID, applied)
		if err != nil {
			return allocations, err
		}
		remaining = remaining.Sub(applied)
		allocations = append(allocations, Allocation{
			SaleID: s.ID,
			Amount: entity.N(applied),
			Status: updated.PaymentStatus,
		})
	}

	uc.audit.Record(ctx, entity.AuditEntry{
		Actor:       actorOrSystem(in.Actor),
		Action:      entity.AuditActionUpdate,
		Entity:      entity.AuditEntitySale,
		Description: fmt.Sprintf("Recebimento de %s do cliente %s (%d vendas)", in.Amount.String(), in.ClientID, len(allocations)),
	})
	return allocations, nil
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return "sistema"
	}
	return actor
}
