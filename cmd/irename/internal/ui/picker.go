package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"

	"github.com/germanamz/irename/pkg/renameclient"
)

// Picker lets the user choose a suggestion with a huh select.
type Picker struct {
	Input      io.Reader // Default: stdin.
	Output     io.Writer // Default: stdout.
	Accessible bool      // Plain prompts for screen readers and dumb terminals.
}

// Pick implements renamer.Picker. Aborting the form (esc, ctrl+c) is a
// dismissal, not an error.
func (p *Picker) Pick(ctx context.Context, word string, s []renameclient.Suggestion) (renameclient.Suggestion, bool, error) {
	if len(s) == 0 {
		return renameclient.Suggestion{}, false, nil
	}

	choice := 0
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title(fmt.Sprintf("Rename %s to", word)).
			Options(options(s)...).
			Value(&choice),
	)).WithAccessible(p.Accessible)

	form = p.bind(form)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return renameclient.Suggestion{}, false, nil
		}

		return renameclient.Suggestion{}, false, fmt.Errorf("ui: pick: %w", err)
	}

	if choice < 0 || choice >= len(s) {
		return renameclient.Suggestion{}, false, nil
	}

	return s[choice], true, nil
}

func (p *Picker) bind(form *huh.Form) *huh.Form {
	if p.Input != nil {
		form = form.WithInput(p.Input)
	}

	if p.Output != nil {
		form = form.WithOutput(p.Output)
	}

	return form
}

// options keys each label by its index so the chosen label maps back to
// the suggestion, and so the probability it shows, at the same index.
func options(s []renameclient.Suggestion) []huh.Option[int] {
	labels := Labels(s)

	opts := make([]huh.Option[int], len(s))
	for i, label := range labels {
		opts[i] = huh.NewOption(label, i)
	}

	return opts
}
