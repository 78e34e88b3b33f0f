package postgres

import (
	"context"
	"database/sql"

	"bluebanner/internal/model"
	"bluebanner/internal/repository"
)

// PagePostgres is a PostgreSQL implementation of repository.PageRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type PagePostgres struct {
	db *sql.DB
}

// NewPagePostgres creates a new PagePostgres repository.
func NewPagePostgres(db *sql.DB) *PagePostgres {
	return &PagePostgres{db: db}
}

var _ repository.PageRepository = (*PagePostgres)(nil)

// Upsert inserts a page row, or refreshes url/size/fetched_at when the
// storage key is already present.
func (r *PagePostgres) Upsert(ctx context.Context, page *model.Page) (*model.Page, error) {
	const q = `
		INSERT INTO pages (id, source, url, storage_key, size, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (storage_key) DO UPDATE
		SET url = EXCLUDED.url, size = EXCLUDED.size, fetched_at = EXCLUDED.fetched_at
		RETURNING id, source, url, storage_key, size, fetched_at
	`
	row := r.db.QueryRowContext(ctx, q,
		page.ID,
		page.Source,
		page.URL,
		page.StorageKey,
		page.Size,
		page.FetchedAt,
	)
	var out model.Page
	if err := row.Scan(
		&out.ID,
		&out.Source,
		&out.URL,
		&out.StorageKey,
		&out.Size,
		&out.FetchedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns pages using LIMIT/OFFSET pagination and a total count,
// optionally filtered by source.
func (r *PagePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Page], error) {
	const qCount = `SELECT COUNT(*) FROM pages WHERE ($1 = '' OR source = $1)`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, pq.Source).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, source, url, storage_key, size, fetched_at
		FROM pages
		WHERE ($1 = '' OR source = $1)
		ORDER BY fetched_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Source, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Page, 0)
	for rows.Next() {
		var p model.Page
		if err := rows.Scan(
			&p.ID,
			&p.Source,
			&p.URL,
			&p.StorageKey,
			&p.Size,
			&p.FetchedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Page]{
		Items: items,
		Total: total,
	}, nil
}

// CountBySource aggregates page counts grouped by source.
func (r *PagePostgres) CountBySource(ctx context.Context) (map[string]int, error) {
	const q = `SELECT source, COUNT(*) FROM pages GROUP BY source`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, err
		}
		counts[source] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// DeleteBySource removes every page row of a source.
func (r *PagePostgres) DeleteBySource(ctx context.Context, source string) (int, error) {
	const q = `DELETE FROM pages WHERE source = $1`
	res, err := r.db.ExecContext(ctx, q, source)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
