package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/irename/pkg/renameclient"
)

func sample() []renameclient.Suggestion {
	return []renameclient.Suggestion{
		{Name: "total", Probability: 0.912},
		{Name: "counter", Probability: 0.05},
		{Name: "件数", Probability: 0.01},
	}
}

func TestLabelsKeepPairsAndAlign(t *testing.T) {
	labels := Labels(sample())
	require.Len(t, labels, 3)

	assert.Equal(t, "total    Probability: 0.91", labels[0])
	assert.Equal(t, "counter  Probability: 0.05", labels[1])
	// Two double-width runes occupy four columns.
	assert.Equal(t, "件数     Probability: 0.01", labels[2])
}

func TestOptionsIndexMatchesSuggestion(t *testing.T) {
	opts := options(sample())
	require.Len(t, opts, 3)

	for i, o := range opts {
		assert.Equal(t, i, o.Value)
		assert.True(t, strings.HasPrefix(o.Key, sample()[i].Name))
	}
}

func TestPickEmpty(t *testing.T) {
	p := &Picker{}

	_, ok, err := p.Pick(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sample()[:2]))

	assert.Equal(t, " 1. total    Probability: 0.91\n 2. counter  Probability: 0.05\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteTable(&buf, nil))
	assert.Contains(t, buf.String(), "no suggestions")
}

func TestNotifier(t *testing.T) {
	var out, errOut bytes.Buffer
	n := NewNotifier(&out, &errOut)

	n.Info("Automatic renaming is now enabled")
	n.Error("Server error: 500 - boom")

	assert.Contains(t, out.String(), "Automatic renaming is now enabled")
	assert.Contains(t, errOut.String(), "Server error: 500 - boom")
	assert.NotContains(t, out.String(), "Server error")
}

func TestNotifierNilWriter(t *testing.T) {
	n := &Notifier{}

	assert.NotPanics(t, func() { n.Info("x") })
}

func TestColorDiffKeepsText(t *testing.T) {
	diff := "--- a\n+++ a\n@@ -1 +1 @@\n-old\n+new\n"

	out := ColorDiff(diff)
	for _, want := range []string{"--- a", "+++ a", "@@ -1 +1 @@", "-old", "+new"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderMarkdownNoTTY(t *testing.T) {
	md := "**ReNameIt Suggestions:**\n\n- total (Probability: 0.91)\n"

	out := RenderMarkdown(md, 80, "notty")
	assert.Contains(t, out, "ReNameIt Suggestions:")
	assert.Contains(t, out, "total (Probability: 0.91)")
}

func TestSpinnerModelQuitsWhenDone(t *testing.T) {
	m := newSpinnerModel("working")
	assert.Contains(t, m.View(), "working")

	next, cmd := m.Update(suggestDoneMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestSpinnerModelQuitsOnCtrlC(t *testing.T) {
	m := newSpinnerModel("working")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, next.(spinnerModel).cancelled)
}

func TestSpinnerModelAnswerIsNotCancelled(t *testing.T) {
	next, _ := newSpinnerModel("working").Update(suggestDoneMsg{})
	assert.False(t, next.(spinnerModel).cancelled)

	next, _ = newSpinnerModel("working").Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, next.(spinnerModel).cancelled)
}

type stubSuggester struct{}

func (stubSuggester) Suggest(context.Context, renameclient.RenameRequest) ([]renameclient.Suggestion, error) {
	return nil, nil
}

func (stubSuggester) Ping(context.Context) (string, error) { return "", nil }

func TestWithSpinnerDisabledReturnsInner(t *testing.T) {
	inner := stubSuggester{}

	assert.Equal(t, inner, WithSpinner(inner, &bytes.Buffer{}, false))
	assert.IsType(t, &SpinningSuggester{}, WithSpinner(inner, &bytes.Buffer{}, true))
}
