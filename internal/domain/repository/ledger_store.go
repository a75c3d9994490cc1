package repository

import (
	"context"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/entity"
)

// Coleções do ledger store.
const (
	ColBatches      = "lotes"
	ColStock        = "estoque"
	ColSales        = "vendas"
	ColTransactions = "transacoes"
	ColPayables     = "contas_pagar"
	ColClients      = "clientes"
	ColAudit        = "auditoria"
)

// Document é um documento bruto de uma coleção.
type Document struct {
	ID   string
	Data []byte // JSON
}

// Tipos de operação de um commit atômico.
type OpKind string

const (
	OpSet    OpKind = "set"    // upsert, substituição completa
	OpUpdate OpKind = "update" // merge-patch de campos
	OpDelete OpKind = "delete"
)

// Operation é uma operação de escrita dentro de um CommitAtomic.
// Data carrega o documento completo (set) ou map[string]any (update).
type Operation struct {
	Kind       OpKind
	Collection string
	ID         string
	Data       any
}

// LedgerStore é o contrato de persistência do motor: um banco de documentos
// agrupados em coleções nomeadas. GetByID devolve domain.ErrNotFound quando
// o documento não existe. CommitAtomic aplica todas as operações ou nenhuma.
type LedgerStore interface {
	ListAll(ctx context.Context, collection string) ([]Document, error)
	GetByID(ctx context.Context, collection, id string) ([]byte, error)
	SetByID(ctx context.Context, collection, id string, doc any) error
	UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error
	DeleteByID(ctx context.Context, collection, id string) error
	CommitAtomic(ctx context.Context, ops []Operation) error
}

// AuditSink recebe registros da trilha de auditoria. Fire-and-forget:
// implementações engolem falhas (logando localmente) e nunca bloqueiam nem
// derrubam a operação de negócio.
type AuditSink interface {
	Record(ctx context.Context, e entity.AuditEntry)
}
