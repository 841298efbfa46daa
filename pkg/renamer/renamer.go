// Package renamer implements the user-facing rename flows: the explicit rename
// command, hover suggestions, the code action offered on an identifier, the
// liveness ping and the automatic-renaming toggle.
//
// Every collaborator is an interface so the same flows back both the terminal
// CLI and the MCP tools: [Suggester] talks to the inference server, [Picker]
// lets the user choose a name, [Notifier] reports outcomes and
// [SettingsSource] supplies the current settings.
package renamer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/germanamz/irename/pkg/document"
	"github.com/germanamz/irename/pkg/occurrences"
	"github.com/germanamz/irename/pkg/renameclient"
	"github.com/germanamz/irename/pkg/settings"
)

// Suggester requests rename candidates from the inference server.
type Suggester interface {
	Suggest(ctx context.Context, req renameclient.RenameRequest) ([]renameclient.Suggestion, error)
	Ping(ctx context.Context) (string, error)
}

// Picker asks the user to choose one of the suggestions. ok is false when
// the user dismissed the picker.
type Picker interface {
	Pick(ctx context.Context, word string, suggestions []renameclient.Suggestion) (choice renameclient.Suggestion, ok bool, err error)
}

// Notifier shows short messages to the user.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// SettingsSource supplies the current settings and performs the toggle.
type SettingsSource interface {
	Get() settings.Settings
	ToggleAutomaticRenaming() (bool, error)
}

// ErrNoIdentifier is returned when the position does not touch an identifier.
var ErrNoIdentifier = errors.New("renamer: no identifier at position")

// Deps wires a Renamer. Client and Settings are required.
type Deps struct {
	Client   Suggester
	Settings SettingsSource
	Finder   occurrences.Finder // Default: occurrences.Substring.
	Picker   Picker             // Default: FirstPicker.
	Notifier Notifier           // Default: discards.
	Log      *slog.Logger       // Default: discards.
}

// Renamer runs the rename flows.
type Renamer struct {
	client   Suggester
	settings SettingsSource
	finder   occurrences.Finder
	picker   Picker
	notify   Notifier
	log      *slog.Logger

	hoverFlight singleflight.Group
}

// New creates a Renamer, filling unset optional dependencies with defaults.
func New(d Deps) *Renamer {
	r := &Renamer{
		client:   d.Client,
		settings: d.Settings,
		finder:   d.Finder,
		picker:   d.Picker,
		notify:   d.Notifier,
		log:      d.Log,
	}

	if r.finder == nil {
		r.finder = occurrences.Substring{}
	}

	if r.picker == nil {
		r.picker = FirstPicker{}
	}

	if r.notify == nil {
		r.notify = nopNotifier{}
	}

	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}

	return r
}

// RenameRequest describes one rename invocation.
type RenameRequest struct {
	Doc       *document.Document
	Pos       document.Position  // Any position touching the identifier.
	NumTokens int                // renameclient.AutomaticTokens for automatic mode.
	NewName   string             // When set, the server and picker are skipped.
	Finder    occurrences.Finder // Overrides the Renamer's finder.
	Picker    Picker             // Overrides the Renamer's picker.
}

// RenameResult reports what a rename did. Doc is the edited document when
// Applied is true and the original otherwise.
type RenameResult struct {
	Old         string
	New         string
	Suggestions []renameclient.Suggestion
	Edits       []document.Edit
	Doc         *document.Document
	Applied     bool
}

// Rename requests suggestions for the identifier at req.Pos, lets the picker
// choose one and replaces every occurrence of the identifier. An empty
// suggestion list, a cancelled request or a dismissed picker ends the flow
// without an edit. On
// failure the user is notified and the document is left unchanged.
func (r *Renamer) Rename(ctx context.Context, req RenameRequest) (RenameResult, error) {
	res := RenameResult{Doc: req.Doc}

	word, ok := req.Doc.WordRangeAt(req.Pos)
	if !ok {
		r.notify.Error("No identifier found at the cursor.")
		return res, ErrNoIdentifier
	}

	res.Old = req.Doc.TextIn(word)
	newName := req.NewName

	if newName == "" {
		suggestions, err := r.client.Suggest(ctx, renameclient.RenameRequest{
			Code:      req.Doc.Text(),
			Line:      word.Start.Line + 1,
			Char:      word.Start.Char + 1,
			NumTokens: req.NumTokens,
		})
		if errors.Is(err, context.Canceled) {
			r.log.DebugContext(ctx, "rename request cancelled", "identifier", res.Old)
			return res, nil
		}

		if err != nil {
			r.fail(ctx, "rename request failed", err)
			return res, err
		}

		res.Suggestions = suggestions

		if len(suggestions) == 0 {
			r.log.DebugContext(ctx, "no suggestions returned", "identifier", res.Old)
			return res, nil
		}

		picker := req.Picker
		if picker == nil {
			picker = r.picker
		}

		choice, picked, err := picker.Pick(ctx, res.Old, suggestions)
		if err != nil {
			r.fail(ctx, "picker failed", err)
			return res, fmt.Errorf("renamer: pick: %w", err)
		}

		if !picked {
			return res, nil
		}

		newName = choice.Name
	}

	res.New = newName

	finder := req.Finder
	if finder == nil {
		finder = r.finder
	}

	ranges, err := finder.Find(ctx, req.Doc, res.Old)
	if err != nil {
		r.fail(ctx, "finding occurrences failed", err)
		return res, fmt.Errorf("renamer: find occurrences: %w", err)
	}

	res.Edits = make([]document.Edit, len(ranges))
	for i, rg := range ranges {
		res.Edits[i] = document.Edit{Range: rg, NewText: newName}
	}

	out, err := req.Doc.Apply(res.Edits)
	if err != nil {
		r.fail(ctx, "applying edits failed", err)
		return res, fmt.Errorf("renamer: apply: %w", err)
	}

	res.Doc = out
	res.Applied = true

	r.log.InfoContext(ctx, "identifier renamed",
		"from", res.Old,
		"to", res.New,
		"occurrences", len(res.Edits),
	)

	return res, nil
}

// Ping checks that the inference server is reachable and shows its message.
func (r *Renamer) Ping(ctx context.Context) (string, error) {
	msg, err := r.client.Ping(ctx)
	if err != nil {
		r.log.WarnContext(ctx, "ping failed", "error", err)
		r.notify.Error("Error connecting to server.")
		return "", err
	}

	r.notify.Info(msg)

	return msg, nil
}

// ToggleAutomaticRenaming flips the hover setting and reports the new state.
func (r *Renamer) ToggleAutomaticRenaming() (bool, error) {
	on, err := r.settings.ToggleAutomaticRenaming()
	if err != nil {
		r.notify.Error(fmt.Sprintf("Could not update settings: %v", err))
		return on, err
	}

	r.notify.Info(ToggleMessage(on))

	return on, nil
}

// ToggleMessage is the confirmation shown after a toggle.
func ToggleMessage(on bool) string {
	state := "disabled"
	if on {
		state = "enabled"
	}

	return "Automatic renaming is now " + state
}

func (r *Renamer) fail(ctx context.Context, msg string, err error) {
	r.log.ErrorContext(ctx, msg, "error", err)
	r.notify.Error(UserMessage(err))
}
