// Package audit implementa o AuditSink sobre a coleção auditoria do
// ledger store.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/repository"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/pkg/logger"
)

var _ repository.AuditSink = (*StoreSink)(nil)

// StoreSink grava a trilha na coleção auditoria. Fire-and-forget: falha de
// escrita é apenas logada, nunca propagada à operação de negócio.
type StoreSink struct {
	store repository.LedgerStore
	log   *logger.Logger
}

// NewStoreSink constrói o sink.
func NewStoreSink(store repository.LedgerStore, log *logger.Logger) *StoreSink {
	return &StoreSink{store: store, log: log}
}

// Record persiste o registro. Preenche id e timestamp quando ausentes.
func (s *StoreSink) Record(ctx context.Context, e entity.AuditEntry) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := s.store.SetByID(ctx, repository.ColAudit, e.ID, e); err != nil {
		s.log.Warn().Err(err).
			Str("acao", e.Action).
			Str("entidade", e.Entity).
			Msg("falha ao gravar auditoria (ignorada)")
	}
}
