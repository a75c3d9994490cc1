package clients_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/clients"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/dto"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/repository"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/infrastructure/audit"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/infrastructure/memory"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/pkg/logger"
)

func newClientUC(t *testing.T) (*clients.UseCase, *memory.Store) {
	t.Helper()
	store := memory.New()
	log := logger.Nop()
	return clients.New(store, audit.NewStoreSink(store, log), log), store
}

func TestCreateUpdate(t *testing.T) {
	uc, _ := newClientUC(t)
	ctx := context.Background()

	c, err := uc.Create(ctx, dto.ClientRequest{Name: "Açougue Central", City: "Goiânia"})
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)

	_, err = uc.Create(ctx, dto.ClientRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	updated, err := uc.Update(ctx, c.ID, dto.ClientRequest{Phone: "62 99999-0000"})
	require.NoError(t, err)
	assert.Equal(t, "62 99999-0000", updated.Phone)
	assert.Equal(t, "Açougue Central", updated.Name, "campos não informados ficam como estão")

	got, err := uc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "62 99999-0000", got.Phone)
}

func TestDelete_BloqueiaComVendaPendente(t *testing.T) {
	uc, store := newClientUC(t)
	ctx := context.Background()

	c, err := uc.Create(ctx, dto.ClientRequest{Name: "Mercado do Zé"})
	require.NoError(t, err)

	require.NoError(t, store.SetByID(ctx, repository.ColSales, "venda-1", &entity.Sale{
		ID: "venda-1", ClientID: c.ID, PaymentStatus: entity.SalePending,
	}))

	err = uc.Delete(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Venda quitada libera a exclusão.
	require.NoError(t, store.UpdateFields(ctx, repository.ColSales, "venda-1", map[string]any{
		"statusPagamento": entity.SalePaid,
	}))
	require.NoError(t, uc.Delete(ctx, c.ID))

	_, err = uc.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
