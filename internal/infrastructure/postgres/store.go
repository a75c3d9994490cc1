// Package postgres implementa o LedgerStore sobre uma tabela única de
// documentos JSONB.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/repository"
)

var _ repository.LedgerStore = (*Store)(nil)

// Querier é satisfeito por pool e por transação (mesmos statements nos dois).
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store guarda cada documento como uma linha (colecao, id, data jsonb).
type Store struct {
	pool *pgxpool.Pool
}

// New constrói o store com o pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate cria a tabela de documentos se não existir.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documentos (
			colecao TEXT NOT NULL,
			id      TEXT NOT NULL,
			data    JSONB NOT NULL,
			PRIMARY KEY (colecao, id)
		)`)
	if err != nil {
		return fmt.Errorf("criar tabela documentos: %w", err)
	}
	return nil
}

// ListAll devolve todos os documentos da coleção.
func (s *Store) ListAll(ctx context.Context, collection string) ([]repository.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM documentos WHERE colecao = $1 ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("listar %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []repository.Document
	for rows.Next() {
		var d repository.Document
		if err := rows.Scan(&d.ID, &d.Data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetByID devolve o documento ou domain.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, collection, id string) ([]byte, error) {
	return getByID(ctx, s.pool, collection, id)
}

func getByID(ctx context.Context, q Querier, collection, id string) ([]byte, error) {
	var data []byte
	err := q.QueryRow(ctx,
		`SELECT data FROM documentos WHERE colecao = $1 AND id = $2`, collection, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("buscar %s/%s: %w", collection, id, err)
	}
	return data, nil
}

// SetByID faz upsert com substituição completa do documento.
func (s *Store) SetByID(ctx context.Context, collection, id string, doc any) error {
	return setByID(ctx, s.pool, collection, id, doc)
}

func setByID(ctx context.Context, q Querier, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializar %s/%s: %w", collection, id, err)
	}
	_, err = q.Exec(ctx, `
		INSERT INTO documentos (colecao, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (colecao, id) DO UPDATE SET data = EXCLUDED.data`,
		collection, id, data)
	if err != nil {
		return fmt.Errorf("gravar %s/%s: %w", collection, id, err)
	}
	return nil
}

// UpdateFields aplica merge-patch raso via concatenação JSONB.
func (s *Store) UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error {
	return updateFields(ctx, s.pool, collection, id, fields)
}

func updateFields(ctx context.Context, q Querier, collection, id string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("serializar patch %s/%s: %w", collection, id, err)
	}
	tag, err := q.Exec(ctx, `
		UPDATE documentos SET data = data || $3::jsonb
		WHERE colecao = $1 AND id = $2`,
		collection, id, patch)
	if err != nil {
		return fmt.Errorf("atualizar %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return nil
}

// DeleteByID remove o documento; inexistente não é erro.
func (s *Store) DeleteByID(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documentos WHERE colecao = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("excluir %s/%s: %w", collection, id, err)
	}
	return nil
}

// CommitAtomic aplica todas as operações dentro de uma transação: tudo ou nada.
func (s *Store) CommitAtomic(ctx context.Context, ops []repository.Operation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, op := range ops {
		switch op.Kind {
		case repository.OpSet:
			err = setByID(ctx, tx, op.Collection, op.ID, op.Data)
		case repository.OpUpdate:
			fields, ok := op.Data.(map[string]any)
			if !ok {
				return fmt.Errorf("%s/%s: update requer map[string]any", op.Collection, op.ID)
			}
			err = updateFields(ctx, tx, op.Collection, op.ID, fields)
		case repository.OpDelete:
			_, err = tx.Exec(ctx,
				`DELETE FROM documentos WHERE colecao = $1 AND id = $2`, op.Collection, op.ID)
		default:
			return fmt.Errorf("operação desconhecida %q", op.Kind)
		}
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
