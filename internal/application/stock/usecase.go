// Package stock expõe as visões de inventário. A regra central: um item só
// aparece como inventário ativo se o lote dono está FECHADO — lotes abertos
// são provisórios e lotes estornados saíram do fluxo.
package stock

import (
	"context"
	"fmt"
	"sort"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/repository"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/pkg/logger"
)

// UseCase leituras de estoque.
type UseCase struct {
	store repository.LedgerStore
	log   *logger.Logger
}

// New constrói o caso de uso.
func New(store repository.LedgerStore, log *logger.Logger) *UseCase {
	return &UseCase{store: store, log: log}
}

// closedBatches devolve o conjunto de lotes com status FECHADO.
func (uc *UseCase) closedBatches(ctx context.Context) (map[string]bool, error) {
	docs, err := uc.store.ListAll(ctx, repository.ColBatches)
	if err != nil {
		return nil, fmt.Errorf("listar lotes: %w", err)
	}
	closed := make(map[string]bool, len(docs))
	for _, d := range docs {
		b, err := entity.DecodeBatch(d.Data)
		if err != nil {
			continue
		}
		if b.Status == entity.BatchStatusClosed {
			closed[b.ID] = true
		}
	}
	return closed, nil
}

// ListAvailable devolve os itens DISPONIVEL cujos lotes estão FECHADOS,
// ordenados por id.
func (uc *UseCase) ListAvailable(ctx context.Context) ([]*entity.StockItem, error) {
	closed, err := uc.closedBatches(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := uc.store.ListAll(ctx, repository.ColStock)
	if err != nil {
		return nil, fmt.Errorf("listar estoque: %w", err)
	}
	var items []*entity.StockItem
	for _, d := range docs {
		item, err := entity.DecodeStockItem(d.Data)
		if err != nil {
			uc.log.Warn().Err(err).Str("id", d.ID).Msg("item de estoque ilegível ignorado")
			continue
		}
		if item.Status == entity.StockAvailable && closed[item.BatchID] {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// ListByBatch devolve todos os itens do lote, qualquer status.
func (uc *UseCase) ListByBatch(ctx context.Context, batchID string) ([]*entity.StockItem, error) {
	docs, err := uc.store.ListAll(ctx, repository.ColStock)
	if err != nil {
		return nil, fmt.Errorf("listar estoque: %w", err)
	}
	var items []*entity.StockItem
	for _, d := range docs {
		item, err := entity.DecodeStockItem(d.Data)
		if err != nil || item.BatchID != batchID {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}
