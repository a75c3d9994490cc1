// Package finance implementa o razão de caixa (transações append-only) e as
// contas a pagar.
package finance

import (
	"context"
	"fmt"
	"sort"
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

// Prefixos de transação que pertencem ao ciclo de vida de outra entidade.
// O estorno direto dessas transações é recusado: quem estorna é a entidade dona.
var ownedPrefixes = []string{
	entity.TRBatchPrefix,
	entity.TRSaleReceiptPrefix,
	entity.TRClientReceiptPrefix,
	entity.TRPayablePayPrefix,
}

// UseCase operações financeiras contra o ledger store.
type UseCase struct {
	store repository.LedgerStore
	audit repository.AuditSink
	log   *logger.Logger
}

// New constrói o caso de uso.
func New(store repository.LedgerStore, audit repository.AuditSink, log *logger.Logger) *UseCase {
	return &UseCase{store: store, audit: audit, log: log}
}

// AddTransaction lança um movimento manual no caixa.
func (uc *UseCase) AddTransaction(ctx context.Context, in dto.TransactionRequest) (*entity.Transaction, error) {
	if in.Direction != entity.DirectionIn && in.Direction != entity.DirectionOut {
		return nil, fmt.Errorf("direção %q: %w", in.Direction, domain.ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("valor deve ser positivo: %w", domain.ErrInvalidInput)
	}
	category := in.Category
	if category == "" {
		category = entity.CategoryOther
	}

	t := entity.NewTransaction(
		entity.TRManualPrefix+uuid.New().String(),
		in.Description, in.Direction, category, in.Amount.Decimal, in.ReferenceID,
	)
	t.PaymentMethod = in.PaymentMethod
	if !in.Date.IsZero() {
		t.Date = in.Date
	}
	if err := uc.store.SetByID(ctx, repository.ColTransactions, t.ID, t); err != nil {
		return nil, fmt.Errorf("gravar transação: %w", err)
	}

	uc.audit.Record(ctx, entity.AuditEntry{
		Actor:       actorOrSystem(in.Actor),
		Action:      entity.AuditActionCreate,
		Entity:      entity.AuditEntityTransaction,
		Description: fmt.Sprintf("Transação %s (%s %s)", t.ID, t.Direction, t.Amount.String()),
	})
	return t, nil
}

// Post grava uma transação já montada (usado pela camada HTTP para compor
// pagamento + lançamento de caixa).
func (uc *UseCase) Post(ctx context.Context, t *entity.Transaction) error {
	if err := uc.store.SetByID(ctx, repository.ColTransactions, t.ID, t); err != nil {
		return fmt.Errorf("gravar transação %s: %w", t.ID, err)
	}
	return nil
}

// RecordSaleReceipt lança a entrada de caixa de um pagamento de venda.
func (uc *UseCase) RecordSaleReceipt(ctx context.Context, s *entity.Sale, amount decimal.Decimal, method string) (*entity.Transaction, error) {
	t := entity.NewTransaction(
		entity.TRSaleReceiptPrefix+uuid.New().String(),
		fmt.Sprintf("Recebimento da venda %s (%s)", s.ID, s.ClientName),
		entity.DirectionIn, entity.CategoryReceipt, amount, s.ID,
	)
	t.PaymentMethod = method
	return t, uc.Post(ctx, t)
}

// RecordClientReceipt lança a entrada de caixa de um recebimento avulso do
// cliente (liquidado em várias vendas).
func (uc *UseCase) RecordClientReceipt(ctx context.Context, clientID string, amount decimal.Decimal, method string) (*entity.Transaction, error) {
	t := entity.NewTransaction(
		entity.TRClientReceiptPrefix+uuid.New().String(),
		fmt.Sprintf("Recebimento do cliente %s", clientID),
		entity.DirectionIn, entity.CategoryReceipt, amount, clientID,
	)
	t.PaymentMethod = method
	return t, uc.Post(ctx, t)
}

// RecordPayablePayment lança a saída de caixa de um pagamento de conta.
func (uc *UseCase) RecordPayablePayment(ctx context.Context, p *entity.Payable, amount decimal.Decimal, method string) (*entity.Transaction, error) {
	t := entity.NewTransaction(
		entity.TRPayablePayPrefix+uuid.New().String(),
		fmt.Sprintf("Pagamento da conta %s", p.ID),
		entity.DirectionOut, entity.CategoryPayment, amount, p.ID,
	)
	t.PaymentMethod = method
	return t, uc.Post(ctx, t)
}

// GetTransaction devolve a transação decodificada.
func (uc *UseCase) GetTransaction(ctx context.Context, id string) (*entity.Transaction, error) {
	data, err := uc.store.GetByID(ctx, repository.ColTransactions, id)
	if err != nil {
		return nil, err
	}
	return entity.DecodeTransaction(data)
}

// ListTransactions devolve o razão, da mais recente para a mais antiga.
func (uc *UseCase) ListTransactions(ctx context.Context) ([]*entity.Transaction, error) {
	docs, err := uc.store.ListAll(ctx, repository.ColTransactions)
	if err != nil {
		return nil, fmt.Errorf("listar transações: %w", err)
	}
	out := make([]*entity.Transaction, 0, len(docs))
	for _, d := range docs {
		t, err := entity.DecodeTransaction(d.Data)
		if err != nil {
			uc.log.Warn().Err(err).Str("id", d.ID).Msg("transação ilegível ignorada")
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// CashBalance devolve ENTRADA menos SAIDA sobre o razão inteiro. Como todo
// estorno é uma transação espelho, o saldo é sempre a soma simples.
func (uc *UseCase) CashBalance(ctx context.Context) (decimal.Decimal, error) {
	docs, err := uc.store.ListAll(ctx, repository.ColTransactions)
	if err != nil {
		return decimal.Zero, fmt.Errorf("listar transações: %w", err)
	}
	balance := decimal.Zero
	for _, d := range docs {
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
	return balance, nil
}

// ReverseTransaction estorna um lançamento manual gerando o espelho. Recusa:
// transações que já são estorno, transações estruturais de lote/venda/conta
// (o estorno passa pela entidade dona) e transações já espelhadas.
func (uc *UseCase) ReverseTransaction(ctx context.Context, id string, actor string) (*entity.Transaction, error) {
	t, err := uc.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.IsReversal() {
		return nil, fmt.Errorf("transação %s já é um estorno: %w", id, domain.ErrConflict)
	}
	if uc.isOwned(ctx, t) {
		return nil, fmt.Errorf("transação %s: %w", id, domain.ErrOwnedTransaction)
	}

	docs, err := uc.store.ListAll(ctx, repository.ColTransactions)
	if err != nil {
		return nil, fmt.Errorf("listar transações: %w", err)
	}
	for _, d := range docs {
		other, err := entity.DecodeTransaction(d.Data)
		if err != nil {
			continue
		}
		if other.IsReversal() && other.ReferenceID == id {
			return nil, fmt.Errorf("transação %s: %w", id, domain.ErrAlreadyReversed)
		}
	}

	m := entity.NewMirror(t)
	if err := uc.store.SetByID(ctx, repository.ColTransactions, m.ID, m); err != nil {
		return nil, fmt.Errorf("gravar espelho de %s: %w", id, err)
	}

	uc.audit.Record(ctx, entity.AuditEntry{
		Actor:       actorOrSystem(actor),
		Action:      entity.AuditActionReversal,
		Entity:      entity.AuditEntityTransaction,
		Description: fmt.Sprintf("Estorno da transação %s", id),
	})
	return m, nil
}

// isOwned decide se a transação pertence ao ciclo de vida de outra entidade:
// pelo prefixo estrutural do id ou, para documentos antigos sem prefixo, pela
// referência resolvendo para uma venda ou conta a pagar existente.
func (uc *UseCase) isOwned(ctx context.Context, t *entity.Transaction) bool {
	for _, p := range ownedPrefixes {
		if strings.HasPrefix(t.ID, p) {
			return true
		}
	}
	if t.ReferenceID == "" {
		return false
	}
	if strings.HasPrefix(t.ReferenceID, lote.IDPrefix) || strings.HasPrefix(t.ReferenceID, lote.PayableIDPrefix) {
		return true
	}
	if _, err := uc.store.GetByID(ctx, repository.ColSales, t.ReferenceID); err == nil {
		return true
	}
	if _, err := uc.store.GetByID(ctx, repository.ColPayables, t.ReferenceID); err == nil {
		return true
	}
	return false
}

// AddPayable cria uma conta a pagar manual. Contas vinculadas a lote passam
// pelo guard de duplicata (uma conta COMPRA por lote).
func (uc *UseCase) AddPayable(ctx context.Context, in dto.PayableRequest) (*entity.Payable, error) {
	if in.Description == "" {
		return nil, fmt.Errorf("descrição obrigatória: %w", domain.ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("valor deve ser positivo: %w", domain.ErrInvalidInput)
	}

	batchID := in.BatchID
	if batchID == "" {
		batchID = lote.ExtractID(in.Description)
	}
	if batchID != "" {
		docs, err := uc.store.ListAll(ctx, repository.ColPayables)
		if err != nil {
			return nil, fmt.Errorf("listar contas a pagar: %w", err)
		}
		for _, d := range docs {
			p, err := entity.DecodePayable(d.Data)
			if err != nil {
				continue
			}
			if ok, _ := lote.PayableMatches(p, batchID); ok && !p.Settled() {
				return nil, fmt.Errorf("lote %s já tem conta a pagar ativa (%s): %w", batchID, p.ID, domain.ErrDuplicate)
			}
		}
	}

	id := "PAY-" + uuid.New().String()
	if batchID != "" {
		id = lote.PayableID(batchID)
	}
	category := in.Category
	if category == "" {
		category = entity.PayableCategoryOther
	}
	due := in.DueDate
	if due.IsZero() {
		due = time.Now().UTC().AddDate(0, 0, entity.DefaultTermDays)
	}

	now := time.Now().UTC()
	p := &entity.Payable{
		ID:          id,
		Description: in.Description,
		Amount:      in.Amount,
		DueDate:     due,
		Status:      entity.PayablePending,
		Category:    category,
		BatchID:     batchID,
		SupplierID:  in.SupplierID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.store.SetByID(ctx, repository.ColPayables, p.ID, p); err != nil {
		return nil, fmt.Errorf("gravar conta a pagar: %w", err)
	}

	uc.audit.Record(ctx, entity.AuditEntry{
		Actor:       actorOrSystem(in.Actor),
		Action:      entity.AuditActionCreate,
		Entity:      entity.AuditEntityTransaction,
		Description: fmt.Sprintf("Conta a pagar %s criada (%s)", p.ID, p.Amount.String()),
	})
	return p, nil
}

// GetPayable devolve a conta decodificada.
func (uc *UseCase) GetPayable(ctx context.Context, id string) (*entity.Payable, error) {
	data, err := uc.store.GetByID(ctx, repository.ColPayables, id)
	if err != nil {
		return nil, err
	}
	return entity.DecodePayable(data)
}

// ListPayables devolve as contas ordenadas por vencimento.
func (uc *UseCase) ListPayables(ctx context.Context) ([]*entity.Payable, error) {
	docs, err := uc.store.ListAll(ctx, repository.ColPayables)
	if err != nil {
		return nil, fmt.Errorf("listar contas a pagar: %w", err)
	}
	out := make([]*entity.Payable, 0, len(docs))
	for _, d := range docs {
		p, err := entity.DecodePayable(d.Data)
		if err != nil {
			uc.log.Warn().Err(err).Str("id", d.ID).Msg("conta a pagar ilegível ignorada")
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

// UpdatePayable edita descrição, valor e vencimento de uma conta ativa.
func (uc *UseCase) UpdatePayable(ctx context.Context, id string, in dto.PayableRequest) (*entity.Payable, error) {
	p, err := uc.GetPayable(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Settled() {
		return nil, fmt.Errorf("conta %s com status %s: %w", id, p.Status, domain.ErrConflict)
	}

	fields := map[string]any{
		"versao":       p.Version + 1,
		"atualizadoEm": time.Now().UTC(),
	}
	if in.Description != "" {
		fields["descricao"] = in.Description
		p.Description = in.Description
	}
	if in.Amount.IsPositive() {
		fields["valor"] = in.Amount
		p.Amount = in.Amount
	}
	if !in.DueDate.IsZero() {
		fields["dataVencimento"] = in.DueDate
		p.DueDate = in.DueDate
	}
	if err := uc.store.UpdateFields(ctx, repository.ColPayables, id, fields); err != nil {
		return nil, fmt.Errorf("atualizar conta %s: %w", id, err)
	}
	p.Version++
	return p, nil
}

// PayPayable registra um pagamento (total ou parcial) na conta e devolve a
// conta atualizada. O lançamento de caixa é responsabilidade do chamador.
func (uc *UseCase) PayPayable(ctx context.Context, id string, amount decimal.Decimal) (*entity.Payable, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("valor do pagamento deve ser positivo: %w", domain.ErrInvalidInput)
	}
	p, err := uc.GetPayable(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Settled() {
		return nil, fmt.Errorf("conta %s com status %s: %w", id, p.Status, domain.ErrConflict)
	}

	// valorPago nunca passa do valor da conta: acima do saldo (com tolerância
	// do epsilon) o pagamento é rejeitado.
	outstanding := p.Amount.Sub(p.AmountPaid.Decimal)
	if amount.Sub(outstanding).GreaterThan(entity.Epsilon) {
		return nil, fmt.Errorf("pagamento de %s excede o saldo %s da conta %s: %w",
			amount.String(), outstanding.String(), id, domain.ErrInvalidInput)
	}

	newPaid := p.AmountPaid.Add(amount)
	if newPaid.GreaterThan(p.Amount.Decimal) {
		newPaid = p.Amount.Decimal
	}
	status := entity.PayablePartial
	if p.Amount.Sub(newPaid).LessThanOrEqual(entity.Epsilon) {
		status = entity.PayablePaid
	}

	now := time.Now().UTC()
	err = uc.store.UpdateFields(ctx, repository.ColPayables, id, map[string]any{
		"valorPago":    entity.N(newPaid),
		"status":       status,
		"versao":       p.Version + 1,
		"atualizadoEm": now,
	})
	if err != nil {
		return nil, fmt.Errorf("registrar pagamento da conta %s: %w", id, err)
	}
	p.AmountPaid = entity.N(newPaid)
	p.Status = status
	p.Version++
	p.UpdatedAt = now
	return p, nil
}

// ReversePayable estorna uma conta a pagar pontual: com pagamento vira
// ESTORNADO e gera a entrada espelho do valor pago; sem pagamento vira
// CANCELADO sem movimento de caixa.
func (uc *UseCase) ReversePayable(ctx context.Context, id string, actor string) (*entity.Payable, error) {
	p, err := uc.GetPayable(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Settled() {
		return nil, fmt.Errorf("conta %s: %w", id, domain.ErrAlreadyReversed)
	}

	status := entity.PayableCancelled
	if p.HasPayment() {
		status = entity.PayableReversed
	}

	now := time.Now().UTC()
	err = uc.store.UpdateFields(ctx, repository.ColPayables, id, map[string]any{
		"status":       status,
		"versao":       p.Version + 1,
		"atualizadoEm": now,
	})
	if err != nil {
		return nil, fmt.Errorf("estornar conta %s: %w", id, err)
	}
	p.Status = status
	p.Version++
	p.UpdatedAt = now

	if status == entity.PayableReversed {
		m := entity.NewTransaction(
			entity.TRReversalPrefix+uuid.New().String(),
			fmt.Sprintf("Estorno do pagamento da conta %s", p.ID),
			entity.DirectionIn, entity.CategoryReversal, p.AmountPaid.Decimal, p.ID,
		)
		if err := uc.store.SetByID(ctx, repository.ColTransactions, m.ID, m); err != nil {
			uc.log.Warn().Err(err).Str("conta", p.ID).Msg("estorno: espelho da conta não gravado")
		}
	}

	uc.audit.Record(ctx, entity.AuditEntry{
		Actor:       actorOrSystem(actor),
		Action:      entity.AuditActionReversal,
		Entity:      entity.AuditEntityTransaction,
		Description: fmt.Sprintf("Estorno da conta a pagar %s (%s)", p.ID, status),
	})
	return p, nil
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return "sistema"
	}
	return actor
}
