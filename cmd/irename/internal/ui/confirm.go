package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// Confirm shows a colored diff and asks whether to write the change.
// Aborting counts as "no".
func (p *Picker) Confirm(ctx context.Context, title, diff string) (bool, error) {
	ok := false

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(ColorDiff(diff)).
			Affirmative("Write").
			Negative("Cancel").
			Value(&ok),
	)).WithAccessible(p.Accessible)

	form = p.bind(form)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}

		return false, fmt.Errorf("ui: confirm: %w", err)
	}

	return ok, nil
}

// ColorDiff colors the lines of a unified diff.
func ColorDiff(diff string) string {
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = nameStyle.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = diffHunkStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = diffAddStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = diffRemoveStyle.Render(line)
		}
	}

	return strings.Join(lines, "\n")
}
