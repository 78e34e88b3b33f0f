// Package crawler fetches documentation sites page by page, staying
// inside each site's allowed domain, and hands extracted page text to
// a caller-provided visit function.
package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"bluebanner/internal/config"
	"bluebanner/internal/model"
)

// skippedExtensions are never fetched; they are downloads, not docs.
var skippedExtensions = []string{".zip", ".pdf", ".png", ".jpg"}

// VisitFunc receives the text of each page that matched the site's
// content selector. Returning an error aborts the crawl.
type VisitFunc func(ctx context.Context, pageURL, text string) error

// Stats summarizes one crawl.
type Stats struct {
	Visited int
	Saved   int
}

// Crawler walks a site breadth-first with a shared politeness limiter.
// Safe to reuse across crawls; each Crawl call keeps its own queue and
// visited set.
type Crawler struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxPages  int
}

// New builds a Crawler from config. Outbound requests go through the
// otelhttp transport so fetches show up in traces.
func New(cfg config.CrawlerConfig) *Crawler {
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "BlueBannerBot-Scraper/1.0"
	}

	return &Crawler{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		userAgent: ua,
		maxPages:  cfg.MaxPages,
	}
}

// Crawl visits pages breadth-first starting at the site's base URL.
// Pages whose content selector matches are passed to visit; pages that
// fail to fetch are logged and skipped. The crawl ends when the queue
// drains, the page budget is hit, or ctx is canceled.
func (c *Crawler) Crawl(ctx context.Context, site model.Site, visit VisitFunc) (Stats, error) {
	var stats Stats

	queue := []string{site.BaseURL}
	visited := make(map[string]bool)
	queued := map[string]bool{site.BaseURL: true}

	for len(queue) > 0 {
		if c.maxPages > 0 && stats.Visited >= c.maxPages {
			break
		}

		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		if err := c.limiter.Wait(ctx); err != nil {
			return stats, err
		}

		doc, err := c.fetch(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			logEvent("crawl_fetch_failed", site.Name, current, err)
			continue
		}
		stats.Visited++

		text := extractContent(doc, site.ContentSelector)
		if text != "" {
			if err := visit(ctx, current, text); err != nil {
				return stats, fmt.Errorf("visit %s: %w", current, err)
			}
			stats.Saved++
		} else {
			logEvent("crawl_selector_missed", site.Name, current, nil)
		}

		// Harvest links even when the selector missed; index pages
		// often carry no body content of their own.
		for _, link := range discoverLinks(doc, current, site.AllowedDomain) {
			if !visited[link] && !queued[link] {
				queued[link] = true
				queue = append(queue, link)
			}
		}
	}

	logEvent("crawl_complete", site.Name, site.BaseURL, nil)
	return stats, nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

// discoverLinks resolves every <a href> against the current page,
// strips fragments, and keeps on-domain, non-binary links.
func discoverLinks(doc *goquery.Document, currentURL, allowedDomain string) []string {
	base, err := url.Parse(currentURL)
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		link := abs.String()

		if !strings.Contains(link, allowedDomain) {
			return
		}
		for _, ext := range skippedExtensions {
			if strings.Contains(link, ext) {
				return
			}
		}
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})

	return links
}

// ObjectKey maps a page URL to the storage key its text is saved
// under: "{source}/{path with / and . flattened}.txt".
func ObjectKey(source, pageURL string) string {
	name := "index"
	if u, err := url.Parse(pageURL); err == nil {
		if p := strings.Trim(u.Path, "/"); p != "" {
			name = strings.NewReplacer("/", "_", ".", "_").Replace(p)
		}
	}
	return source + "/" + name + ".txt"
}

func logEvent(event, source, pageURL string, err error) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     "info",
		"component": "crawler",
		"event":     event,
		"source":    source,
		"url":       pageURL,
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
