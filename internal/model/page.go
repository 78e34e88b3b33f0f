package model

import "time"

// Page represents one scraped documentation page. The extracted text
// lives in object storage under StorageKey; this row is the metadata
// the HTTP API lists and the ingester walks.
type Page struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	URL        string    `json:"url"`
	StorageKey string    `json:"storage_key"`
	Size       int64     `json:"size"`
	FetchedAt  time.Time `json:"fetched_at"`
}
