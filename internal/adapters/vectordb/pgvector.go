package vectordb

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
)

// PGVectorStore implements ports.VectorStore on PostgreSQL with the
// pgvector extension. Ranking uses the cosine distance operator.
type PGVectorStore struct {
	pool *pgxpool.Pool
}

// NewPGVectorStore connects to dsn and makes sure the schema exists.
func NewPGVectorStore(ctx context.Context, dsn string) (*PGVectorStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	// The extension has to exist before the vector type can be registered.
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return err
		}
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PGVectorStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *PGVectorStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS latentqa_documents (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL,
			episode TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			embedding vector NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// Store saves documents with their embeddings.
func (s *PGVectorStore) Store(ctx context.Context, docs []entities.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := s.pool.SendBatch(ctx, upsertBatch(docs)).Close(); err != nil {
		return fmt.Errorf("inserting documents: %w", err)
	}
	return nil
}

// Replace truncates the table and stores docs in a single transaction.
func (s *PGVectorStore) Replace(ctx context.Context, docs []entities.Document) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "TRUNCATE latentqa_documents"); err != nil {
			return fmt.Errorf("truncating documents: %w", err)
		}
		if len(docs) == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, upsertBatch(docs)).Close(); err != nil {
			return fmt.Errorf("inserting documents: %w", err)
		}
		return nil
	})
}

func upsertBatch(docs []entities.Document) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, d := range docs {
		batch.Queue(`
			INSERT INTO latentqa_documents (id, category, episode, name, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				category = EXCLUDED.category,
				episode = EXCLUDED.episode,
				name = EXCLUDED.name,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding
		`, d.ID, d.Category, d.Episode, d.Name, d.Content, pgvector.NewVector(d.Embedding))
	}
	return batch
}

// Search finds the most similar documents to a query embedding.
func (s *PGVectorStore) Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, category, episode, name, content, embedding, 1 - (embedding <=> $1) AS score
		FROM latentqa_documents
		ORDER BY embedding <=> $1, seq
		LIMIT $2
	`, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var results []entities.QueryResult
	for rows.Next() {
		var r entities.QueryResult
		var vec pgvector.Vector
		if err := rows.Scan(&r.Document.ID, &r.Document.Category, &r.Document.Episode,
			&r.Document.Name, &r.Document.Content, &vec, &r.Score); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.Document.Embedding = vec.Slice()
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return results, nil
}

// Clear removes all data from the store.
func (s *PGVectorStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "TRUNCATE latentqa_documents")
	return err
}

// Count returns the number of stored documents.
func (s *PGVectorStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM latentqa_documents").Scan(&count)
	return count, err
}

// Close releases the connection pool.
func (s *PGVectorStore) Close() error {
	s.pool.Close()
	return nil
}
