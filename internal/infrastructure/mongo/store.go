// Package mongo implementa o LedgerStore sobre MongoDB: uma collection Mongo
// por coleção lógica, documentos convertidos via Extended JSON.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/repository"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/pkg/config"
)

var _ repository.LedgerStore = (*Store)(nil)

// Store acessa o banco Mongo configurado.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect abre o cliente e valida a conexão.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("conectar mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(cfg.Database)}, nil
}

// Close encerra o cliente.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// toBSON converte o JSON do documento para bson.M e fixa o _id.
func toBSON(id string, doc any) (bson.M, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serializar documento %s: %w", id, err)
	}
	var m bson.M
	if err := bson.UnmarshalExtJSON(data, false, &m); err != nil {
		return nil, fmt.Errorf("converter documento %s: %w", id, err)
	}
	m["_id"] = id
	return m, nil
}

// toJSON converte um documento bson de volta para JSON (sem o _id).
func toJSON(m bson.M) ([]byte, error) {
	delete(m, "_id")
	data, err := bson.MarshalExtJSON(m, false, false)
	if err != nil {
		return nil, fmt.Errorf("converter documento: %w", err)
	}
	return data, nil
}

// ListAll devolve todos os documentos da coleção.
func (s *Store) ListAll(ctx context.Context, collection string) ([]repository.Document, error) {
	cursor, err := s.col(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("listar %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []repository.Document
	for cursor.Next(ctx) {
		var m bson.M
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("decodificar %s: %w", collection, err)
		}
		id, _ := m["_id"].(string)
		data, err := toJSON(m)
		if err != nil {
			return nil, err
		}
		docs = append(docs, repository.Document{ID: id, Data: data})
	}
	return docs, cursor.Err()
}

// GetByID devolve o documento ou domain.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, collection, id string) ([]byte, error) {
	var m bson.M
	err := s.col(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("buscar %s/%s: %w", collection, id, err)
	}
	return toJSON(m)
}

// SetByID faz upsert com substituição completa do documento.
func (s *Store) SetByID(ctx context.Context, collection, id string, doc any) error {
	m, err := toBSON(id, doc)
	if err != nil {
		return err
	}
	_, err = s.col(collection).ReplaceOne(ctx, bson.M{"_id": id}, m,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("gravar %s/%s: %w", collection, id, err)
	}
	return nil
}

// UpdateFields aplica merge-patch raso via $set.
func (s *Store) UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error {
	set, err := toBSON(id, fields)
	if err != nil {
		return err
	}
	delete(set, "_id")
	res, err := s.col(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("atualizar %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return nil
}

// DeleteByID remove o documento; inexistente não é erro.
func (s *Store) DeleteByID(ctx context.Context, collection, id string) error {
	_, err := s.col(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("excluir %s/%s: %w", collection, id, err)
	}
	return nil
}

// CommitAtomic aplica todas as operações em uma transação de sessão Mongo
// (requer replica set): tudo ou nada.
func (s *Store) CommitAtomic(ctx context.Context, ops []repository.Operation) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("abrir sessão: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		for _, op := range ops {
			switch op.Kind {
			case repository.OpSet:
				if err := s.SetByID(ctx, op.Collection, op.ID, op.Data); err != nil {
					return nil, err
				}
			case repository.OpUpdate:
				fields, ok := op.Data.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%s/%s: update requer map[string]any", op.Collection, op.ID)
				}
				if err := s.UpdateFields(ctx, op.Collection, op.ID, fields); err != nil {
					return nil, err
				}
			case repository.OpDelete:
				if err := s.DeleteByID(ctx, op.Collection, op.ID); err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("operação desconhecida %q", op.Kind)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("commit atômico: %w", err)
	}
	return nil
}
