// Package memory implementa o LedgerStore em memória, para testes e
// desenvolvimento local.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/repository"
)

var _ repository.LedgerStore = (*Store)(nil)

// Store guarda documentos JSON por coleção e id, protegidos por RWMutex.
type Store struct {
	mu   sync.RWMutex
	cols map[string]map[string][]byte
}

// New cria um store vazio.
func New() *Store {
	return &Store{cols: make(map[string]map[string][]byte)}
}

// ListAll devolve uma cópia de todos os documentos da coleção.
func (s *Store) ListAll(_ context.Context, collection string) ([]repository.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.cols[collection]
	docs := make([]repository.Document, 0, len(col))
	for id, data := range col {
		cp := make([]byte, len(data))
		copy(cp, data)
		docs = append(docs, repository.Document{ID: id, Data: cp})
	}
	return docs, nil
}

// GetByID devolve o documento ou domain.ErrNotFound.
func (s *Store) GetByID(_ context.Context, collection, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(collection, id)
}

func (s *Store) getLocked(collection, id string) ([]byte, error) {
	data, ok := s.cols[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// SetByID faz upsert com substituição completa do documento.
func (s *Store) SetByID(_ context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializar %s/%s: %w", collection, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(collection, id, data)
	return nil
}

func (s *Store) setLocked(collection, id string, data []byte) {
	col, ok := s.cols[collection]
	if !ok {
		col = make(map[string][]byte)
		s.cols[collection] = col
	}
	col[id] = data
}

// UpdateFields aplica merge-patch raso dos campos no documento existente.
func (s *Store) UpdateFields(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(collection, id, fields)
}

func (s *Store) updateLocked(collection, id string, fields map[string]any) error {
	existing, ok := s.cols[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	var doc map[string]any
	if err := json.Unmarshal(existing, &doc); err != nil {
		return fmt.Errorf("decodificar %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializar %s/%s: %w", collection, id, err)
	}
	s.cols[collection][id] = merged
	return nil
}

// DeleteByID remove o documento; inexistente não é erro.
func (s *Store) DeleteByID(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cols[collection], id)
	return nil
}

// CommitAtomic aplica todas as operações ou nenhuma. O resultado final de
// cada operação é computado sobre um overlay, sem tocar no estado; qualquer
// falha de serialização, tipo ou documento ausente aborta antes da primeira
// escrita, e a fase de aplicação não tem caminho de erro.
func (s *Store) CommitAtomic(_ context.Context, ops []repository.Operation) error {
	type prepared struct {
		op   repository.Operation
		data []byte
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := func(collection, id string) string { return collection + "/" + id }
	overlay := make(map[string][]byte) // nil = excluído dentro do commit
	current := func(collection, id string) ([]byte, bool) {
		if data, seen := overlay[key(collection, id)]; seen {
			return data, data != nil
		}
		data, ok := s.cols[collection][id]
		return data, ok
	}

	preps := make([]prepared, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case repository.OpSet:
			data, err := json.Marshal(op.Data)
			if err != nil {
				return fmt.Errorf("serializar %s/%s: %w", op.Collection, op.ID, err)
			}
			overlay[key(op.Collection, op.ID)] = data
			preps = append(preps, prepared{op: op, data: data})
		case repository.OpUpdate:
			fields, ok := op.Data.(map[string]any)
			if !ok {
				return fmt.Errorf("%s/%s: update requer map[string]any", op.Collection, op.ID)
			}
			existing, ok := current(op.Collection, op.ID)
			if !ok {
				return fmt.Errorf("%s/%s: %w", op.Collection, op.ID, domain.ErrNotFound)
			}
			var doc map[string]any
			if err := json.Unmarshal(existing, &doc); err != nil {
				return fmt.Errorf("decodificar %s/%s: %w", op.Collection, op.ID, err)
			}
			for k, v := range fields {
				doc[k] = v
			}
			merged, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("serializar %s/%s: %w", op.Collection, op.ID, err)
			}
			overlay[key(op.Collection, op.ID)] = merged
			preps = append(preps, prepared{op: op, data: merged})
		case repository.OpDelete:
			overlay[key(op.Collection, op.ID)] = nil
			preps = append(preps, prepared{op: op})
		default:
			return fmt.Errorf("operação desconhecida %q", op.Kind)
		}
	}

	for _, p := range preps {
		if p.op.Kind == repository.OpDelete {
			delete(s.cols[p.op.Collection], p.op.ID)
			continue
		}
		s.setLocked(p.op.Collection, p.op.ID, p.data)
	}
	return nil
}
