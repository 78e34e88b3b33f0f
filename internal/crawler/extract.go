package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractContent pulls readable text from the part of the page the
// selector matches. Script and style bodies are dropped; every text
// node is whitespace-trimmed and non-empty nodes are joined with
// newlines. Returns "" when the selector matches nothing.
func extractContent(doc *goquery.Document, selector string) string {
	if selector == "" {
		selector = "main"
	}
	content := doc.Find(selector).First()
	if content.Length() == 0 {
		return ""
	}

	content.Find("script, style").Remove()

	var parts []string
	collectText(content, &parts)
	return strings.Join(parts, "\n")
}

// collectText walks the selection depth-first gathering trimmed text
// nodes, mirroring soup.get_text(separator="\n", strip=True).
func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "#text" {
			if t := strings.TrimSpace(child.Text()); t != "" {
				*parts = append(*parts, t)
			}
			return
		}
		collectText(child, parts)
	})
}
