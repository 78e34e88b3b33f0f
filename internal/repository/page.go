package repository

import (
	"context"

	"bluebanner/internal/model"
)

// PageRepository defines data access for scraped page metadata using
// SQL queries only. No business logic here — strictly persistence.
type PageRepository interface {
	// Upsert inserts a page record or refreshes it when the storage
	// key already exists (re-crawls overwrite, never duplicate).
	Upsert(ctx context.Context, page *model.Page) (*model.Page, error)

	// List returns a paginated list of pages and the total row count
	// for the given filter.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Page], error)

	// CountBySource returns the number of stored pages per source.
	CountBySource(ctx context.Context) (map[string]int, error)

	// DeleteBySource removes all page rows for a source and returns
	// how many were deleted.
	DeleteBySource(ctx context.Context, source string) (int, error)
}
