// Package chunk splits page text into overlapping pieces sized for
// embedding. The splitter walks an ordered separator list, splitting
// on the coarsest separator present, recursing into pieces that are
// still too large, and merging small pieces back together with a
// character-overlap carry between neighbors.
package chunk

import (
	"strings"

	"bluebanner/internal/model"
)

// TextSeparators favors paragraph boundaries, then lines, then words.
// Works well for prose and technical documentation.
var TextSeparators = []string{"\n\n", "\n", " ", ""}

// JavaSeparators keeps class and member declarations together before
// falling back to the generic text separators. Used for javadoc-style
// sources.
var JavaSeparators = []string{
	"\nclass ",
	"\npublic ",
	"\nprotected ",
	"\nprivate ",
	"\nstatic ",
	"\nif ",
	"\nfor ",
	"\nwhile ",
	"\nswitch ",
	"\ncase ",
	"\n\n",
	"\n",
	" ",
	"",
}

// Splitter is a recursive character text splitter. Size and overlap
// are measured in characters (runes are not weighted; byte length is
// not used either — see length).
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// New returns a Splitter with the given size and overlap over the
// default text separators. Overlap must be smaller than size; callers
// passing nonsense get the defaults of 1000/200.
func New(size, overlap int) *Splitter {
	return NewWithSeparators(size, overlap, TextSeparators)
}

// NewWithSeparators returns a Splitter over a custom separator list.
// The list must end with "" so any text can ultimately be split.
func NewWithSeparators(size, overlap int, separators []string) *Splitter {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 200
		if overlap >= size {
			overlap = size / 5
		}
	}
	if len(separators) == 0 {
		separators = TextSeparators
	}
	return &Splitter{chunkSize: size, chunkOverlap: overlap, separators: separators}
}

// ForContentType picks the separator set matching a site's content
// type ("code" gets the Java-aware list).
func ForContentType(size, overlap int, contentType string) *Splitter {
	if contentType == model.ContentTypeCode {
		return NewWithSeparators(size, overlap, JavaSeparators)
	}
	return New(size, overlap)
}

// Split divides text into chunks no larger than the configured size
// wherever a separator allows, with the configured overlap between
// adjacent chunks. Empty input yields no chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	// Pick the first separator that occurs in the text; "" always
	// matches and degrades to per-character splitting.
	separator := separators[len(separators)-1]
	var next []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	splits := splitKeepingSeparator(text, separator)

	var final []string
	var good []string
	for _, piece := range splits {
		if length(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(next) == 0 {
			// No finer separator left; emit oversized piece as-is.
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, next)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// splitKeepingSeparator splits text on sep, attaching the separator to
// the front of the following piece so no characters are lost. An empty
// separator splits into individual runes.
func splitKeepingSeparator(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, len(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}

	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// merge packs consecutive small pieces into chunks up to chunkSize,
// carrying up to chunkOverlap characters forward into the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var docs []string
	var current []string
	total := 0

	for _, piece := range pieces {
		plen := length(piece)
		if total+plen > s.chunkSize && len(current) > 0 {
			if doc := joinPieces(current); doc != "" {
				docs = append(docs, doc)
			}
			// Drop leading pieces until the kept tail fits the
			// overlap budget and leaves room for the new piece.
			for total > s.chunkOverlap || (total+plen > s.chunkSize && total > 0) {
				total -= length(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += plen
	}

	if doc := joinPieces(current); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func joinPieces(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

// length counts runes so multi-byte characters are not over-weighted.
func length(s string) int {
	return len([]rune(s))
}
