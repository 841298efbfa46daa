package renamer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/germanamz/irename/pkg/document"
	"github.com/germanamz/irename/pkg/occurrences"
	"github.com/germanamz/irename/pkg/renameclient"
	"github.com/germanamz/irename/pkg/tools/toolbox"
)

const positionSchema = `"code":{"type":"string","description":"Full source text"},"line":{"type":"integer","minimum":1,"description":"1-based line of the identifier"},"char":{"type":"integer","minimum":1,"description":"1-based character column of the identifier"}`

// Tools returns the rename flows as tools for an MCP host. The host has no
// picker, so rename_apply takes the top suggestion unless a name is given.
func (r *Renamer) Tools() *toolbox.ToolBox {
	tb := toolbox.New()

	tb.Register(
		toolbox.Tool{
			Name:        "rename_suggest",
			Description: "Ask the inference server for new names for the identifier at a position. Returns the suggestions ranked with their probabilities.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{` + positionSchema + `,"num_tokens":{"type":"integer","description":"Tokens per suggestion; -1 lets the server decide"}},"required":["code","line","char"]}`),
			Handler:     r.handleSuggest,
		},
		toolbox.Tool{
			Name:        "rename_apply",
			Description: "Rename every occurrence of the identifier at a position. Uses the given name, or the top server suggestion when name is omitted. Returns the edited code and a diff.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{` + positionSchema + `,"name":{"type":"string"},"num_tokens":{"type":"integer"},"match":{"type":"string","enum":["substring","identifier"]}},"required":["code","line","char"]}`),
			Handler:     r.handleApply,
		},
		toolbox.Tool{
			Name:        "rename_hover",
			Description: "Return the hover markdown for the identifier at a position. Empty when automatic renaming is disabled or the server has nothing to offer.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{` + positionSchema + `},"required":["code","line","char"]}`),
			Handler:     r.handleHover,
		},
		toolbox.Tool{
			Name:        "rename_code_actions",
			Description: "List the code actions available at a position.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{` + positionSchema + `},"required":["code","line","char"]}`),
			Handler:     r.handleCodeActions,
		},
		toolbox.Tool{
			Name:        "rename_ping",
			Description: "Check that the inference server is reachable.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
			Handler:     r.handlePing,
		},
		toolbox.Tool{
			Name:        "rename_toggle_automatic",
			Description: "Flip the automatic renaming setting that controls hover suggestions.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
			Handler:     r.handleToggle,
		},
	)

	return tb
}

type positionInput struct {
	Code string `json:"code"`
	Line int    `json:"line"`
	Char int    `json:"char"`
}

func (in positionInput) resolve() (*document.Document, document.Position, error) {
	if in.Line < 1 || in.Char < 1 {
		return nil, document.Position{}, errors.New("line and char must be 1-based")
	}

	doc := document.New(in.Code)
	pos := document.Position{Line: in.Line - 1, Char: in.Char - 1}

	if !doc.Valid(pos) {
		return nil, document.Position{}, fmt.Errorf("position %s is outside the code", pos)
	}

	return doc, pos, nil
}

type suggestInput struct {
	positionInput
	NumTokens *int `json:"num_tokens"`
}

func numTokens(n *int) int {
	if n == nil {
		return renameclient.AutomaticTokens
	}

	return *n
}

type suggestOutput struct {
	Identifier  string                    `json:"identifier"`
	Suggestions []renameclient.Suggestion `json:"suggestions"`
}

func (r *Renamer) handleSuggest(ctx context.Context, input json.RawMessage) (string, error) {
	var in suggestInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	doc, pos, err := in.resolve()
	if err != nil {
		return "", err
	}

	word, ok := doc.WordRangeAt(pos)
	if !ok {
		return "", ErrNoIdentifier
	}

	suggestions, err := r.client.Suggest(ctx, renameclient.RenameRequest{
		Code:      doc.Text(),
		Line:      word.Start.Line + 1,
		Char:      word.Start.Char + 1,
		NumTokens: numTokens(in.NumTokens),
	})
	if err != nil {
		return "", errors.New(UserMessage(err))
	}

	if suggestions == nil {
		suggestions = []renameclient.Suggestion{}
	}

	return marshal(suggestOutput{Identifier: doc.TextIn(word), Suggestions: suggestions})
}

type applyInput struct {
	positionInput
	Name      string           `json:"name"`
	NumTokens *int             `json:"num_tokens"`
	Match     occurrences.Mode `json:"match"`
}

type applyOutput struct {
	Old         string `json:"old"`
	New         string `json:"new"`
	Occurrences int    `json:"occurrences"`
	Applied     bool   `json:"applied"`
	Code        string `json:"code"`
	Diff        string `json:"diff,omitempty"`
}

func (r *Renamer) handleApply(ctx context.Context, input json.RawMessage) (string, error) {
	var in applyInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	doc, pos, err := in.resolve()
	if err != nil {
		return "", err
	}

	finder, err := occurrences.ForMode(in.Match)
	if err != nil {
		return "", err
	}

	res, err := r.Rename(ctx, RenameRequest{
		Doc:       doc,
		Pos:       pos,
		NumTokens: numTokens(in.NumTokens),
		NewName:   in.Name,
		Finder:    finder,
		Picker:    FirstPicker{},
	})
	if err != nil {
		if errors.Is(err, ErrNoIdentifier) {
			return "", err
		}

		return "", errors.New(UserMessage(err))
	}

	out := applyOutput{
		Old:         res.Old,
		New:         res.New,
		Occurrences: len(res.Edits),
		Applied:     res.Applied,
		Code:        res.Doc.Text(),
	}

	if res.Applied {
		out.Diff = Diff("code", doc, res.Doc)
	}

	return marshal(out)
}

func (r *Renamer) handleHover(ctx context.Context, input json.RawMessage) (string, error) {
	var in positionInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	doc, pos, err := in.resolve()
	if err != nil {
		return "", err
	}

	md, _ := r.Hover(ctx, doc, pos)

	return md, nil
}

func (r *Renamer) handleCodeActions(_ context.Context, input json.RawMessage) (string, error) {
	var in positionInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	doc, pos, err := in.resolve()
	if err != nil {
		return "", err
	}

	actions := CodeActions(doc, pos)
	if actions == nil {
		actions = []CodeAction{}
	}

	return marshal(actions)
}

func (r *Renamer) handlePing(ctx context.Context, _ json.RawMessage) (string, error) {
	msg, err := r.Ping(ctx)
	if err != nil {
		return "", errors.New("Error connecting to server.")
	}

	return msg, nil
}

func (r *Renamer) handleToggle(_ context.Context, _ json.RawMessage) (string, error) {
	on, err := r.ToggleAutomaticRenaming()
	if err != nil {
		return "", err
	}

	return ToggleMessage(on), nil
}

func marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	return string(data), nil
}
