package occurrences

import (
	"context"
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/germanamz/irename/pkg/document"
)

// identifierNodeTypes are the Java grammar node types that name things.
var identifierNodeTypes = map[string]struct{}{
	"identifier":      {},
	"type_identifier": {},
}

// Identifier matches whole Java identifier tokens only.
type Identifier struct{}

// Find implements [Finder].
func (Identifier) Find(ctx context.Context, doc *document.Document, word string) ([]document.Range, error) {
	if word == "" {
		return nil, nil
	}

	src := []byte(doc.Text())

	// New parser per call; tree-sitter parsers are not safe for concurrent use.
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("occurrences: parse java: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, nil
	}

	var ranges []document.Range

	walk(root, func(n *sitter.Node) {
		if _, ok := identifierNodeTypes[n.Type()]; !ok {
			return
		}

		if n.Content(src) != word {
			return
		}

		start, end := n.StartPoint(), n.EndPoint()
		if start.Row != end.Row {
			return
		}

		line := doc.Line(int(start.Row))
		if int(start.Column) > len(line) {
			return
		}

		char := utf8.RuneCountInString(line[:start.Column])

		ranges = append(ranges, document.Range{
			Start: document.Position{Line: int(start.Row), Char: char},
			End:   document.Position{Line: int(start.Row), Char: char + utf8.RuneCountInString(word)},
		})
	})

	return ranges, nil
}

// walk visits n and its descendants in document order.
func walk(n *sitter.Node, visit func(*sitter.Node)) {
	visit(n)

	for i := range int(n.ChildCount()) {
		if c := n.Child(i); c != nil {
			walk(c, visit)
		}
	}
}
