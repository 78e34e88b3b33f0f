package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"bluebanner/internal/ai"
	"bluebanner/internal/chunk"
	"bluebanner/internal/config"
	"bluebanner/internal/crawler"
	"bluebanner/internal/model"
	"bluebanner/internal/repository"
	"bluebanner/internal/storage"
)

var ErrUnknownSource = errors.New("unknown source")

// SiteCrawler is the crawl capability the corpus service depends on;
// *crawler.Crawler satisfies it.
type SiteCrawler interface {
	Crawl(ctx context.Context, site model.Site, visit crawler.VisitFunc) (crawler.Stats, error)
}

// CrawlResult reports what one crawl did.
type CrawlResult struct {
	Source  string `json:"source"`
	Visited int    `json:"visited"`
	Saved   int    `json:"saved"`
}

// IngestResult reports what one ingestion did.
type IngestResult struct {
	Source  string `json:"source"`
	Objects int    `json:"objects"`
	Chunks  int    `json:"chunks"`
	Vectors int    `json:"vectors"`
}

// PurgeResult reports what a source purge removed.
type PurgeResult struct {
	Source  string `json:"source"`
	Vectors int    `json:"vectors"`
	Pages   int    `json:"pages"`
	Objects int    `json:"objects"`
}

// SourceStatus is one configured source with its corpus counts.
type SourceStatus struct {
	model.Site
	Pages   int `json:"pages"`
	Vectors int `json:"vectors"`
}

// PageListResult is the service-level DTO for paginated pages.
type PageListResult struct {
	Items []model.Page `json:"data"`
	Total int          `json:"total"`
}

// CorpusService owns the document corpus: crawling sources into
// object storage, ingesting stored pages into the vector index,
// purging sources, and reporting on all of it.
type CorpusService interface {
	// Crawl walks a configured source and stores extracted page text.
	Crawl(ctx context.Context, sourceName string) (*CrawlResult, error)

	// Ingest chunks and embeds a source's stored pages into the
	// vector index. Re-ingesting overwrites existing vectors.
	Ingest(ctx context.Context, sourceName string) (*IngestResult, error)

	// Purge removes a source's vectors, page rows, and stored objects.
	Purge(ctx context.Context, sourceName string) (*PurgeResult, error)

	// Sources lists configured sources with page and vector counts.
	Sources(ctx context.Context) ([]SourceStatus, error)

	// Pages returns stored page metadata using limit/offset.
	Pages(ctx context.Context, source string, limit, offset int) (*PageListResult, error)

	// Stats reports vector index totals.
	Stats(ctx context.Context) (*model.IndexStats, error)

	// Site resolves a configured source by name.
	Site(sourceName string) (model.Site, bool)
}

type corpusService struct {
	sites   []model.Site
	crawler SiteCrawler
	store   storage.Storage
	pages   repository.PageRepository
	vectors repository.VectorRepository
	embed   ai.Embedder
	ingest  config.IngestConfig
}

// NewCorpusService constructs a CorpusService over the configured sites.
func NewCorpusService(
	sites []model.Site,
	siteCrawler SiteCrawler,
	store storage.Storage,
	pages repository.PageRepository,
	vectors repository.VectorRepository,
	embed ai.Embedder,
	ingestCfg config.IngestConfig,
) CorpusService {
	return &corpusService{
		sites:   sites,
		crawler: siteCrawler,
		store:   store,
		pages:   pages,
		vectors: vectors,
		embed:   embed,
		ingest:  ingestCfg,
	}
}

func (s *corpusService) Site(sourceName string) (model.Site, bool) {
	for _, site := range s.sites {
		if site.Name == sourceName {
			return site, true
		}
	}
	return model.Site{}, false
}

// Crawl stores each extracted page as a text object and upserts its
// metadata row, keyed by storage key so re-crawls refresh in place.
func (s *corpusService) Crawl(ctx context.Context, sourceName string) (*CrawlResult, error) {
	site, ok := s.Site(sourceName)
	if !ok {
		return nil, ErrUnknownSource
	}

	stats, err := s.crawler.Crawl(ctx, site, func(ctx context.Context, pageURL, text string) error {
		key := crawler.ObjectKey(site.Name, pageURL)

		info, err := s.store.Put(ctx, key, strings.NewReader(text), storage.PutObjectOptions{
			Size:        int64(len(text)),
			ContentType: "text/plain; charset=utf-8",
			Metadata:    map[string]string{"source-url": pageURL},
		})
		if err != nil {
			return fmt.Errorf("store page text: %w", err)
		}

		_, err = s.pages.Upsert(ctx, &model.Page{
			ID:         uuid.NewString(),
			Source:     site.Name,
			URL:        pageURL,
			StorageKey: info.Key,
			Size:       info.Size,
			FetchedAt:  time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("save page metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("crawl %s: %w", site.Name, err)
	}

	return &CrawlResult{Source: site.Name, Visited: stats.Visited, Saved: stats.Saved}, nil
}

// Ingest walks a source's stored objects, chunks each one with the
// splitter matching the site's content type, embeds the chunks in
// batches, and upserts them. A failed embedding batch is logged and
// skipped so one bad object cannot sink a whole ingestion.
func (s *corpusService) Ingest(ctx context.Context, sourceName string) (*IngestResult, error) {
	site, ok := s.Site(sourceName)
	if !ok {
		return nil, ErrUnknownSource
	}

	splitter := chunk.ForContentType(s.ingest.ChunkSize, s.ingest.ChunkOverlap, site.ContentType)

	objects, err := s.store.List(ctx, site.Name+"/")
	if err != nil {
		return nil, fmt.Errorf("list stored pages: %w", err)
	}

	result := &IngestResult{Source: site.Name}
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		text, err := s.readObject(ctx, obj.Key)
		if err != nil {
			logIngest("ingest_read_failed", site.Name, obj.Key, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		result.Objects++

		chunks := splitter.Split(text)
		result.Chunks += len(chunks)

		upserted, err := s.embedAndUpsert(ctx, site.Name, obj.Key, chunks)
		result.Vectors += upserted
		if err != nil {
			return result, err
		}
	}

	logIngest("ingest_complete", site.Name, "", nil)
	return result, nil
}

// embedAndUpsert processes one object's chunks in upsert-sized
// batches. Embedding errors skip the batch; upsert errors are fatal
// because they mean the index itself is unhealthy.
func (s *corpusService) embedAndUpsert(ctx context.Context, source, key string, chunks []string) (int, error) {
	batchSize := s.ingest.UpsertBatch
	if batchSize <= 0 {
		batchSize = 100
	}
	base := path.Base(key)

	total := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		vectors, err := s.embed.Embed(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			logIngest("ingest_embed_failed", source, key, err)
			continue
		}

		now := time.Now().UTC()
		embeddings := make([]model.Embedding, len(batch))
		for i := range batch {
			embeddings[i] = model.Embedding{
				ID:         fmt.Sprintf("%s-%s-%d", source, base, start+i),
				Source:     source,
				StorageKey: key,
				Ordinal:    start + i,
				Content:    batch[i],
				Vector:     vectors[i],
				CreatedAt:  now,
			}
		}

		if err := s.vectors.Upsert(ctx, embeddings); err != nil {
			return total, fmt.Errorf("upsert vectors for %s: %w", key, err)
		}
		total += len(embeddings)
	}
	return total, nil
}

// Purge deletes index vectors first so a partial failure can never
// leave vectors pointing at pages that no longer exist.
func (s *corpusService) Purge(ctx context.Context, sourceName string) (*PurgeResult, error) {
	site, ok := s.Site(sourceName)
	if !ok {
		return nil, ErrUnknownSource
	}

	result := &PurgeResult{Source: site.Name}

	vectors, err := s.vectors.DeleteBySource(ctx, site.Name, s.ingest.DeleteBatch)
	result.Vectors = vectors
	if err != nil {
		return result, fmt.Errorf("delete vectors: %w", err)
	}

	pages, err := s.pages.DeleteBySource(ctx, site.Name)
	result.Pages = pages
	if err != nil {
		return result, fmt.Errorf("delete pages: %w", err)
	}

	objects, err := s.store.RemovePrefix(ctx, site.Name+"/")
	result.Objects = objects
	if err != nil {
		return result, fmt.Errorf("remove stored objects: %w", err)
	}

	return result, nil
}

func (s *corpusService) Sources(ctx context.Context) ([]SourceStatus, error) {
	pageCounts, err := s.pages.CountBySource(ctx)
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}
	stats, err := s.vectors.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}

	out := make([]SourceStatus, 0, len(s.sites))
	for _, site := range s.sites {
		out = append(out, SourceStatus{
			Site:    site,
			Pages:   pageCounts[site.Name],
			Vectors: stats.BySource[site.Name],
		})
	}
	return out, nil
}

// Pages returns paginated page metadata without exposing repository types.
func (s *corpusService) Pages(ctx context.Context, source string, limit, offset int) (*PageListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.pages.List(ctx, repository.PageQuery{Source: source, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &PageListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *corpusService) Stats(ctx context.Context) (*model.IndexStats, error) {
	return s.vectors.Stats(ctx)
}

func (s *corpusService) readObject(ctx context.Context, key string) (string, error) {
	rc, _, err := s.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func logIngest(event, source, key string, err error) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     "info",
		"component": "ingest",
		"event":     event,
		"source":    source,
	}
	if key != "" {
		entry["object_key"] = key
	}
	if err != nil {
		entry["level"] = "error"
		entry["error"] = err.Error()
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
