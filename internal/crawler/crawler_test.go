package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bluebanner/internal/config"
	"bluebanner/internal/model"
)

func newTestCrawler(maxPages int) *Crawler {
	return New(config.CrawlerConfig{
		RPS:            1000, // no throttling in tests
		HTTPTimeoutSec: 5,
		MaxPages:       maxPages,
		UserAgent:      "BlueBannerBot-Scraper/1.0",
	})
}

func siteFor(srv *httptest.Server, selector string) model.Site {
	return model.Site{
		Name:            "testsite",
		BaseURL:         srv.URL + "/",
		AllowedDomain:   strings.TrimPrefix(srv.URL, "http://"),
		ContentSelector: selector,
		ContentType:     model.ContentTypeText,
	}
}

func TestCrawl_FollowsOnDomainLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><main>Home page text</main>
			<a href="/motors">motors</a>
			<a href="/motors#section">dupe with fragment</a>
			<a href="https://elsewhere.example.com/off-domain">off</a>
			<a href="/manual.pdf">manual</a>
		</body></html>`))
	})
	mux.HandleFunc("/motors", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><main>Motor controller docs</main></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var pages []string
	c := newTestCrawler(0)
	stats, err := c.Crawl(context.Background(), siteFor(srv, "main"), func(ctx context.Context, pageURL, text string) error {
		pages = append(pages, text)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Visited, "off-domain and .pdf links must not be fetched")
	assert.Equal(t, 2, stats.Saved)
	assert.Contains(t, pages, "Home page text")
	assert.Contains(t, pages, "Motor controller docs")
}

func TestCrawl_SkipsFailedPagesAndContinues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><main>root</main>
			<a href="/broken">broken</a>
			<a href="/ok">ok</a></body></html>`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><main>fine</main></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var pages []string
	c := newTestCrawler(0)
	stats, err := c.Crawl(context.Background(), siteFor(srv, "main"), func(ctx context.Context, pageURL, text string) error {
		pages = append(pages, text)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Visited, "the 500 page does not count as visited")
	assert.ElementsMatch(t, []string{"root", "fine"}, pages)
}

func TestCrawl_SelectorMissStillHarvestsLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// No <main>, just navigation.
		w.Write([]byte(`<html><body><nav><a href="/content">content</a></nav></body></html>`))
	})
	mux.HandleFunc("/content", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><main>real content</main></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var pages []string
	c := newTestCrawler(0)
	stats, err := c.Crawl(context.Background(), siteFor(srv, "main"), func(ctx context.Context, pageURL, text string) error {
		pages = append(pages, text)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Visited)
	assert.Equal(t, 1, stats.Saved)
	assert.Equal(t, []string{"real content"}, pages)
}

func TestCrawl_MaxPagesBudget(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><main>page</main>
			<a href="/a">a</a><a href="/b">b</a><a href="/c">c</a></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestCrawler(2)
	stats, err := c.Crawl(context.Background(), siteFor(srv, "main"), func(ctx context.Context, pageURL, text string) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Visited)
}

func TestCrawl_SendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`<html><body><main>hi</main></body></html>`))
	}))
	defer srv.Close()

	c := newTestCrawler(0)
	_, err := c.Crawl(context.Background(), siteFor(srv, "main"), func(ctx context.Context, pageURL, text string) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "BlueBannerBot-Scraper/1.0", gotUA)
}

func TestCrawl_ContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><main>x</main><a href="/next">next</a></body></html>`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := newTestCrawler(0)
	_, err := c.Crawl(ctx, siteFor(srv, "main"), func(ctx context.Context, pageURL, text string) error {
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractContent(t *testing.T) {
	html := `<html><body>
		<main>
			<h1>Swerve Drive</h1>
			<script>track();</script>
			<style>.x{}</style>
			<p>Module <b>offsets</b> matter.</p>
		</main>
		<footer>ignored</footer>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	text := extractContent(doc, "main")

	assert.Equal(t, "Swerve Drive\nModule\noffsets\nmatter.", text)
	assert.NotContains(t, text, "track")
	assert.NotContains(t, text, "ignored")
}

func TestExtractContent_NoMatch(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><p>x</p></body></html>`))
	require.NoError(t, err)

	assert.Empty(t, extractContent(doc, "div.document"))
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"root", "https://docs.example.com/", "wpilib/index.txt"},
		{"nested path", "https://docs.example.com/en/stable/docs/zero-to-robot.html", "wpilib/en_stable_docs_zero-to-robot_html.txt"},
		{"trailing slash", "https://docs.example.com/guide/", "wpilib/guide.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey("wpilib", tt.url))
		})
	}
}
