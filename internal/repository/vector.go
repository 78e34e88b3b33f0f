package repository

import (
	"context"

	"bluebanner/internal/model"
)

// VectorRepository defines the vector index operations: batched
// upsert, similarity query, per-source deletion, and stats.
type VectorRepository interface {
	// Upsert stores a batch of embeddings, replacing rows whose IDs
	// already exist.
	Upsert(ctx context.Context, embeddings []model.Embedding) error

	// Query returns the topK nearest chunks by cosine similarity,
	// best match first.
	Query(ctx context.Context, vector []float32, topK int) ([]model.Match, error)

	// DeleteBySource removes vectors belonging to a source in batches
	// of at most batchSize rows and returns the total deleted.
	DeleteBySource(ctx context.Context, source string, batchSize int) (int, error)

	// Stats reports the total vector count and the count per source.
	Stats(ctx context.Context) (*model.IndexStats, error)
}
