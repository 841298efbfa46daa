package renamer

import (
	"github.com/germanamz/irename/pkg/document"
	"github.com/germanamz/irename/pkg/renameclient"
)

// Code action constants.
const (
	KindRefactorRewrite     = "refactor.rewrite"
	CommandRenameIdentifier = "irename.renameIdentifier"
	CodeActionTitle         = "Rename Identifier (ReNameIt)"
)

// CodeAction is an action an editor can offer on an identifier. Line and
// Char are 1-based and point at the start of the identifier.
type CodeAction struct {
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	Command   string `json:"command"`
	Line      int    `json:"line"`
	Char      int    `json:"char"`
	NumTokens int    `json:"num_tokens"`
}

// CodeActions returns the rename action for the identifier at pos, or nil
// when pos does not touch an identifier.
func CodeActions(doc *document.Document, pos document.Position) []CodeAction {
	word, ok := doc.WordRangeAt(pos)
	if !ok {
		return nil
	}

	return []CodeAction{{
		Title:     CodeActionTitle,
		Kind:      KindRefactorRewrite,
		Command:   CommandRenameIdentifier,
		Line:      word.Start.Line + 1,
		Char:      word.Start.Char + 1,
		NumTokens: renameclient.AutomaticTokens,
	}}
}
