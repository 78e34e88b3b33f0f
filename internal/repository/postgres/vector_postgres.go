package postgres

import (
	"context"
	"database/sql"
	"fmt"

	pgvector "github.com/pgvector/pgvector-go"

	"bluebanner/internal/model"
	"bluebanner/internal/repository"
)

// VectorPostgres implements repository.VectorRepository on top of the
// pgvector extension. Cosine distance (<=>) drives similarity; scores
// are reported as 1 - distance so higher means closer.
type VectorPostgres struct {
	db *sql.DB
}

// NewVectorPostgres creates a new VectorPostgres repository.
func NewVectorPostgres(db *sql.DB) *VectorPostgres {
	return &VectorPostgres{db: db}
}

var _ repository.VectorRepository = (*VectorPostgres)(nil)

// Upsert stores a batch of embeddings in one transaction, replacing
// rows whose IDs already exist.
func (r *VectorPostgres) Upsert(ctx context.Context, embeddings []model.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO embeddings (id, source, storage_key, ordinal, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET source = EXCLUDED.source,
		    storage_key = EXCLUDED.storage_key,
		    ordinal = EXCLUDED.ordinal,
		    content = EXCLUDED.content,
		    embedding = EXCLUDED.embedding,
		    created_at = EXCLUDED.created_at
	`
	for _, e := range embeddings {
		if _, err := tx.ExecContext(ctx, q,
			e.ID,
			e.Source,
			e.StorageKey,
			e.Ordinal,
			e.Content,
			pgvector.NewVector(e.Vector),
			e.CreatedAt,
		); err != nil {
			return fmt.Errorf("upsert embedding %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// Query returns the topK nearest chunks by cosine similarity.
func (r *VectorPostgres) Query(ctx context.Context, vector []float32, topK int) ([]model.Match, error) {
	const q = `
		SELECT id, source, content, 1 - (embedding <=> $1) AS score
		FROM embeddings
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]model.Match, 0, topK)
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.Source, &m.Content, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

// DeleteBySource removes a source's vectors in batches so a large
// purge never holds one long row lock.
func (r *VectorPostgres) DeleteBySource(ctx context.Context, source string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	const q = `
		DELETE FROM embeddings
		WHERE id IN (SELECT id FROM embeddings WHERE source = $1 LIMIT $2)
	`
	total := 0
	for {
		res, err := r.db.ExecContext(ctx, q, source, batchSize)
		if err != nil {
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += int(n)
		if int(n) < batchSize {
			return total, nil
		}
	}
}

// Stats reports the total vector count and the count per source.
func (r *VectorPostgres) Stats(ctx context.Context) (*model.IndexStats, error) {
	const q = `SELECT source, COUNT(*) FROM embeddings GROUP BY source`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &model.IndexStats{BySource: make(map[string]int)}
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, err
		}
		stats.BySource[source] = n
		stats.TotalVectors += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
