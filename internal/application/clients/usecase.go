// Package clients implementa o cadastro de compradores.
package clients

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/dto"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/repository"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/pkg/logger"
)

// UseCase CRUD de clientes contra o ledger store.
type UseCase struct {
	store repository.LedgerStore
	audit repository.AuditSink
	log   *logger.Logger
}

// New constrói o caso de uso.
func New(store repository.LedgerStore, audit repository.AuditSink, log *logger.Logger) *UseCase {
	return &UseCase{store: store, audit: audit, log: log}
}

// Create cadastra um cliente novo.
func (uc *UseCase) Create(ctx context.Context, in dto.ClientRequest) (*entity.Client, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("nome obrigatório: %w", domain.ErrInvalidInput)
	}
	now := time.Now().UTC()
	c := &entity.Client{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Document:  in.Document,
		Phone:     in.Phone,
		City:      in.City,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.store.SetByID(ctx, repository.ColClients, c.ID, c); err != nil {
		return nil, fmt.Errorf("gravar cliente: %w", err)
	}
	uc.audit.Record(ctx, entity.AuditEntry{
		Actor:       "sistema",
		Action:      entity.AuditActionCreate,
		Entity:      entity.AuditEntityClient,
		Description: fmt.Sprintf("Cliente %s criado (%s)", c.ID, c.Name),
	})
	return c, nil
}

// GetByID devolve o cliente decodificado.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	data, err := uc.store.GetByID(ctx, repository.ColClients, id)
	if err != nil {
		return nil, err
	}
	return entity.DecodeClient(data)
}

// List devolve todos os clientes ordenados por nome.
func (uc *UseCase) List(ctx context.Context) ([]*entity.Client, error) {
	docs, err := uc.store.ListAll(ctx, repository.ColClients)
	if err != nil {
		return nil, fmt.Errorf("listar clientes: %w", err)
	}
	out := make([]*entity.Client, 0, len(docs))
	for _, d := range docs {
		c, err := entity.DecodeClient(d.Data)
		if err != nil {
			uc.log.Warn().Err(err).Str("id", d.ID).Msg("cliente ilegível ignorado")
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update edita os campos cadastrais informados.
func (uc *UseCase) Update(ctx context.Context, id string, in dto.ClientRequest) (*entity.Client, error) {
	c, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{"atualizadoEm": time.Now().UTC()}
	if in.Name != "" {
		fields["nome"] = in.Name
		c.Name = in.Name
	}
	if in.Document != "" {
		fields["documento"] = in.Document
		c.Document = in.Document
	}
	if in.Phone != "" {
		fields["telefone"] = in.Phone
		c.Phone = in.Phone
	}
	if in.City != "" {
		fields["cidade"] = in.City
		c.City = in.City
	}
	if in.Notes != "" {
		fields["observacoes"] = in.Notes
		c.Notes = in.Notes
	}
	if err := uc.store.UpdateFields(ctx, repository.ColClients, id, fields); err != nil {
		return nil, fmt.Errorf("atualizar cliente %s: %w", id, err)
	}
	return c, nil
}

// Delete remove o cliente. Clientes com vendas pendentes não podem ser
// removidos (o histórico de vendas referencia o cliente por id).
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.GetByID(ctx, id); err != nil {
		return err
	}
	docs, err := uc.store.ListAll(ctx, repository.ColSales)
	if err != nil {
		return fmt.Errorf("listar vendas: %w", err)
	}
	for _, d := range docs {
		s, err := entity.DecodeSale(d.Data)
		if err != nil {
			continue
		}
		if s.ClientID == id && s.PaymentStatus == entity.SalePending {
			return fmt.Errorf("cliente %s tem vendas pendentes: %w", id, domain.ErrConflict)
		}
	}
	if err := uc.store.DeleteByID(ctx, repository.ColClients, id); err != nil {
		return fmt.Errorf("excluir cliente %s: %w", id, err)
	}
	uc.audit.Record(ctx, entity.AuditEntry{
		Actor:       "sistema",
		Action:      entity.AuditActionDelete,
		Entity:      entity.AuditEntityClient,
		Description: fmt.Sprintf("Cliente %s excluído", id),
	})
	return nil
}
