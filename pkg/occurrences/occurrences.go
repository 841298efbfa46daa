// Package occurrences locates the places in a document where an identifier
// appears so that a rename can replace all of them at once.
//
// Two strategies exist. [Substring] is a plain text scan: every exact
// substring match counts, including matches embedded in longer identifiers.
// [Identifier] parses Java source with tree-sitter and only reports whole
// identifier tokens. Callers opt into the latter explicitly.
package occurrences

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/germanamz/irename/pkg/document"
)

// Finder returns the ranges of every occurrence of word in doc.
type Finder interface {
	Find(ctx context.Context, doc *document.Document, word string) ([]document.Range, error)
}

// Mode names a finder strategy on the command line and in tool input.
type Mode string

const (
	ModeSubstring  Mode = "substring"
	ModeIdentifier Mode = "identifier"
)

// ForMode returns the finder for the given mode. An empty mode selects
// [ModeSubstring].
func ForMode(m Mode) (Finder, error) {
	switch m {
	case "", ModeSubstring:
		return Substring{}, nil
	case ModeIdentifier:
		return Identifier{}, nil
	default:
		return nil, fmt.Errorf("occurrences: unknown match mode %q", m)
	}
}

// Substring scans each line for exact, non-overlapping substring matches.
type Substring struct{}

// Find implements [Finder]. It never fails.
func (Substring) Find(_ context.Context, doc *document.Document, word string) ([]document.Range, error) {
	if word == "" {
		return nil, nil
	}

	var ranges []document.Range

	wordLen := utf8.RuneCountInString(word)

	for i := range doc.LineCount() {
		line := doc.Line(i)
		from := 0

		for {
			idx := strings.Index(line[from:], word)
			if idx < 0 {
				break
			}

			byteStart := from + idx
			char := utf8.RuneCountInString(line[:byteStart])

			ranges = append(ranges, document.Range{
				Start: document.Position{Line: i, Char: char},
				End:   document.Position{Line: i, Char: char + wordLen},
			})

			from = byteStart + len(word)
		}
	}

	return ranges, nil
}

// At resolves the identifier at pos and finds its occurrences. It returns the
// identifier text along with the ranges; an empty word means nothing was
// under the cursor.
func At(ctx context.Context, f Finder, doc *document.Document, pos document.Position) (string, []document.Range, error) {
	r, ok := doc.WordRangeAt(pos)
	if !ok || r.IsEmpty() {
		return "", nil, nil
	}

	word := doc.TextIn(r)

	ranges, err := f.Find(ctx, doc, word)
	if err != nil {
		return word, nil, err
	}

	return word, ranges, nil
}
