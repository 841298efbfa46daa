// Package document holds an in-memory text document addressed by line and
// character. Characters are counted in runes so that positions line up with
// what the inference server's tokenizer reports.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Position is a 0-based line and character offset.
type Position struct {
	Line int
	Char int
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line+1, p.Char+1) }

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}

	return p.Char < o.Char
}

// Range is a half-open span [Start, End).
type Range struct {
	Start Position
	End   Position
}

// IsEmpty reports whether the range covers no characters.
func (r Range) IsEmpty() bool { return r.Start == r.End }

func (r Range) String() string { return r.Start.String() + "-" + r.End.String() }

// Edit replaces the text in Range with NewText.
type Edit struct {
	Range   Range
	NewText string
}

// Document is an immutable snapshot of a text buffer.
type Document struct {
	lines []string
	// crlf[i] is set when line i ends in "\r\n" rather than "\n".
	crlf []bool
}

// New splits text into lines. Each line keeps its own terminator, so files
// mixing CRLF and LF come back out byte for byte.
func New(text string) *Document {
	lines := strings.Split(text, "\n")
	crlf := make([]bool, len(lines))

	for i := range len(lines) - 1 {
		if l, ok := strings.CutSuffix(lines[i], "\r"); ok {
			lines[i] = l
			crlf[i] = true
		}
	}

	return &Document{lines: lines, crlf: crlf}
}

// Load reads the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the file the user asked to edit
	if err != nil {
		return nil, fmt.Errorf("document: load: %w", err)
	}

	return New(string(data)), nil
}

// Save writes the document to path through a temp file in the same directory.
func (d *Document) Save(path string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".irename-*.tmp")
	if err != nil {
		return fmt.Errorf("document: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(d.Text()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("document: write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("document: close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, mode); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("document: chmod temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("document: rename temp file: %w", err)
	}

	return nil
}

// Text returns the full document text.
func (d *Document) Text() string {
	var b strings.Builder

	for i, l := range d.lines {
		b.WriteString(l)
		b.WriteString(d.eol(i))
	}

	return b.String()
}

// eol returns the terminator of line i; the last line has none.
func (d *Document) eol(i int) string {
	switch {
	case i == len(d.lines)-1:
		return ""
	case d.crlf[i]:
		return "\r\n"
	default:
		return "\n"
	}
}

// LineCount returns the number of lines. An empty document has one line.
func (d *Document) LineCount() int { return len(d.lines) }

// Line returns the text of line i without its terminator.
func (d *Document) Line(i int) string {
	if i < 0 || i >= len(d.lines) {
		return ""
	}

	return d.lines[i]
}

// Valid reports whether pos addresses a character slot in the document. The
// slot just past the last character of a line is valid.
func (d *Document) Valid(pos Position) bool {
	if pos.Line < 0 || pos.Line >= len(d.lines) || pos.Char < 0 {
		return false
	}

	return pos.Char <= len([]rune(d.lines[pos.Line]))
}

// IsWordRune reports whether r can be part of an identifier.
func IsWordRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// WordRangeAt returns the identifier touching pos. A position just after the
// last character of a word still selects that word.
func (d *Document) WordRangeAt(pos Position) (Range, bool) {
	if !d.Valid(pos) {
		return Range{}, false
	}

	runes := []rune(d.lines[pos.Line])

	start := pos.Char
	for start > 0 && IsWordRune(runes[start-1]) {
		start--
	}

	end := pos.Char
	for end < len(runes) && IsWordRune(runes[end]) {
		end++
	}

	if start == end {
		return Range{}, false
	}

	return Range{
		Start: Position{Line: pos.Line, Char: start},
		End:   Position{Line: pos.Line, Char: end},
	}, true
}

// TextIn returns the text covered by r. Invalid ranges yield "".
func (d *Document) TextIn(r Range) string {
	if !d.Valid(r.Start) || !d.Valid(r.End) || r.End.Before(r.Start) {
		return ""
	}

	runes := []rune(d.Text())

	return string(runes[d.offset(r.Start):d.offset(r.End)])
}

// offset converts pos to a rune offset into Text(). pos must be valid.
func (d *Document) offset(pos Position) int {
	off := 0

	for i := range pos.Line {
		off += len([]rune(d.lines[i])) + len(d.eol(i))
	}

	return off + pos.Char
}

// Apply returns a new document with all edits applied. Edits must address
// valid, non-overlapping ranges; they are applied from the end of the
// document backwards so earlier offsets stay stable.
func (d *Document) Apply(edits []Edit) (*Document, error) {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].Range.Start.Before(sorted[i].Range.Start)
	})

	for i, e := range sorted {
		if !d.Valid(e.Range.Start) || !d.Valid(e.Range.End) || e.Range.End.Before(e.Range.Start) {
			return nil, fmt.Errorf("document: invalid edit range %s", e.Range)
		}

		if i > 0 && sorted[i-1].Range.Start.Before(e.Range.End) {
			return nil, fmt.Errorf("document: overlapping edits at %s and %s", e.Range, sorted[i-1].Range)
		}
	}

	runes := []rune(d.Text())

	for _, e := range sorted {
		start, end := d.offset(e.Range.Start), d.offset(e.Range.End)

		next := make([]rune, 0, len(runes)-(end-start)+len(e.NewText))
		next = append(next, runes[:start]...)
		next = append(next, []rune(e.NewText)...)
		next = append(next, runes[end:]...)
		runes = next
	}

	return New(string(runes)), nil
}
