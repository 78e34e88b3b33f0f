package model

import "time"

// Embedding is one chunk of page text together with its vector.
// The ID follows the "{source}-{object base}-{ordinal}" convention so
// every vector derived from an object shares a recognizable prefix.
type Embedding struct {
	ID         string
	Source     string
	StorageKey string
	Ordinal    int
	Content    string
	Vector     []float32
	CreatedAt  time.Time
}

// Match is a retrieval hit returned by a similarity query.
// Score is cosine similarity in [-1, 1]; higher is closer.
type Match struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// IndexStats summarizes the vector index.
type IndexStats struct {
	TotalVectors int            `json:"total_vectors"`
	BySource     map[string]int `json:"by_source"`
}
