package ui

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/germanamz/irename/pkg/renameclient"
	"github.com/germanamz/irename/pkg/renamer"
)

// SpinningSuggester shows a spinner on Out while suggestions are requested.
// Ping is passed through.
type SpinningSuggester struct {
	renamer.Suggester

	Out   io.Writer
	Label string
}

// WithSpinner wraps s so Suggest animates a spinner on out. When enabled is
// false s is returned unchanged.
func WithSpinner(s renamer.Suggester, out io.Writer, enabled bool) renamer.Suggester {
	if !enabled {
		return s
	}

	return &SpinningSuggester{Suggester: s, Out: out, Label: "Asking the model for names..."}
}

type suggestResult struct {
	suggestions []renameclient.Suggestion
	err         error
}

// Suggest implements renamer.Suggester. Quitting the spinner (ctrl+c or esc)
// cancels the request and returns [context.Canceled].
func (s *SpinningSuggester) Suggest(ctx context.Context, req renameclient.RenameRequest) ([]renameclient.Suggestion, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(s.Label),
		tea.WithContext(runCtx),
		tea.WithOutput(s.Out),
	)

	done := make(chan suggestResult, 1)

	go func() {
		sg, err := s.Suggester.Suggest(runCtx, req)
		done <- suggestResult{suggestions: sg, err: err}
		p.Send(suggestDoneMsg{})
	}()

	final, _ := p.Run()

	cancel()
	res := <-done

	if m, ok := final.(spinnerModel); ok && m.cancelled {
		return nil, context.Canceled
	}

	return res.suggestions, res.err
}

type suggestDoneMsg struct{}

type spinnerModel struct {
	spin  spinner.Model
	label string
	done  bool

	// cancelled is set when the user quit before the answer arrived.
	cancelled bool
}

func newSpinnerModel(label string) spinnerModel {
	return spinnerModel{
		spin:  spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(spinnerStyle)),
		label: label,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case suggestDoneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			m.done = true
			m.cancelled = true

			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}

	return m.spin.View() + " " + dimStyle.Render(m.label)
}
