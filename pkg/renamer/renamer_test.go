package renamer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/irename/pkg/document"
	"github.com/germanamz/irename/pkg/occurrences"
	"github.com/germanamz/irename/pkg/renameclient"
	"github.com/germanamz/irename/pkg/settings"
)

const sample = `int count = 0;
count = count + 1;
// recount later`

// --- fakes ---

type fakeSuggester struct {
	mu          sync.Mutex
	suggestions []renameclient.Suggestion
	err         error
	pingMsg     string
	pingErr     error
	requests    []renameclient.RenameRequest
	calls       atomic.Int32
	wait        chan struct{}
}

func (f *fakeSuggester) Suggest(ctx context.Context, req renameclient.RenameRequest) ([]renameclient.Suggestion, error) {
	f.calls.Add(1)

	if f.wait != nil {
		select {
		case <-f.wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	return f.suggestions, f.err
}

func (f *fakeSuggester) Ping(context.Context) (string, error) {
	return f.pingMsg, f.pingErr
}

func (f *fakeSuggester) lastRequest() renameclient.RenameRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.requests[len(f.requests)-1]
}

type fakePicker struct {
	index  int
	cancel bool
	err    error
	seen   []renameclient.Suggestion
	word   string
}

func (p *fakePicker) Pick(_ context.Context, word string, s []renameclient.Suggestion) (renameclient.Suggestion, bool, error) {
	p.word = word
	p.seen = s

	if p.err != nil {
		return renameclient.Suggestion{}, false, p.err
	}

	if p.cancel {
		return renameclient.Suggestion{}, false, nil
	}

	return s[p.index], true, nil
}

type recordingNotifier struct {
	infos  []string
	errors []string
}

func (n *recordingNotifier) Info(msg string)  { n.infos = append(n.infos, msg) }
func (n *recordingNotifier) Error(msg string) { n.errors = append(n.errors, msg) }

type fakeSettings struct {
	s         settings.Settings
	toggleErr error
}

func (f *fakeSettings) Get() settings.Settings { return f.s }

func (f *fakeSettings) ToggleAutomaticRenaming() (bool, error) {
	if f.toggleErr != nil {
		return f.s.AutomaticRenaming, f.toggleErr
	}

	f.s.AutomaticRenaming = !f.s.AutomaticRenaming

	return f.s.AutomaticRenaming, nil
}

func suggestions(pairs ...any) []renameclient.Suggestion {
	out := make([]renameclient.Suggestion, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, renameclient.Suggestion{Name: pairs[i].(string), Probability: pairs[i+1].(float64)})
	}

	return out
}

type harness struct {
	client   *fakeSuggester
	picker   *fakePicker
	notifier *recordingNotifier
	settings *fakeSettings
	r        *Renamer
}

func newHarness(client *fakeSuggester) *harness {
	h := &harness{
		client:   client,
		picker:   &fakePicker{},
		notifier: &recordingNotifier{},
		settings: &fakeSettings{s: settings.Defaults()},
	}
	h.settings.s.AutomaticRenaming = true

	h.r = New(Deps{
		Client:   h.client,
		Settings: h.settings,
		Picker:   h.picker,
		Notifier: h.notifier,
	})

	return h
}

// --- Rename ---

func TestRenameAppliesPickedSuggestionToAllOccurrences(t *testing.T) {
	h := newHarness(&fakeSuggester{suggestions: suggestions("total", 0.9, "counter", 0.05)})

	res, err := h.r.Rename(context.Background(), RenameRequest{
		Doc:       document.New(sample),
		Pos:       document.Position{Line: 0, Char: 6},
		NumTokens: renameclient.AutomaticTokens,
	})
	require.NoError(t, err)

	assert.True(t, res.Applied)
	assert.Equal(t, "count", res.Old)
	assert.Equal(t, "total", res.New)
	assert.Len(t, res.Edits, 4)
	assert.Equal(t, "int total = 0;\ntotal = total + 1;\n// retotal later", res.Doc.Text())
	assert.Equal(t, "count", h.picker.word)
	assert.Equal(t, suggestions("total", 0.9, "counter", 0.05), h.picker.seen)
	assert.Empty(t, h.notifier.errors)
}

func TestRenameSendsOneBasedStartOfIdentifier(t *testing.T) {
	h := newHarness(&fakeSuggester{suggestions: suggestions("n", 1.0)})

	_, err := h.r.Rename(context.Background(), RenameRequest{
		Doc:       document.New(sample),
		Pos:       document.Position{Line: 1, Char: 10}, // inside the second "count"
		NumTokens: 3,
	})
	require.NoError(t, err)

	req := h.client.lastRequest()
	assert.Equal(t, sample, req.Code)
	assert.Equal(t, 2, req.Line)
	assert.Equal(t, 9, req.Char)
	assert.Equal(t, 3, req.NumTokens)
}

func TestRenameUsesPickedIndexNotFirst(t *testing.T) {
	h := newHarness(&fakeSuggester{suggestions: suggestions("a", 0.6, "b", 0.4)})
	h.picker.index = 1

	res, err := h.r.Rename(context.Background(), RenameRequest{
		Doc: document.New("x := x"),
		Pos: document.Position{},
	})
	require.NoError(t, err)

	assert.Equal(t, "b := b", res.Doc.Text())
}

func TestRenameWithoutSuggestionsDoesNothing(t *testing.T) {
	h := newHarness(&fakeSuggester{suggestions: nil})
	doc := document.New(sample)

	res, err := h.r.Rename(context.Background(), RenameRequest{Doc: doc, Pos: document.Position{Line: 0, Char: 4}})
	require.NoError(t, err)

	assert.False(t, res.Applied)
	assert.Same(t, doc, res.Doc)
	assert.Nil(t, h.picker.seen)
	assert.Empty(t, h.notifier.infos)
	assert.Empty(t, h.notifier.errors)
}

func TestRenamePickerCancelledLeavesDocument(t *testing.T) {
	h := newHarness(&fakeSuggester{suggestions: suggestions("total", 0.9)})
	h.picker.cancel = true
	doc := document.New(sample)

	res, err := h.r.Rename(context.Background(), RenameRequest{Doc: doc, Pos: document.Position{Line: 0, Char: 4}})
	require.NoError(t, err)

	assert.False(t, res.Applied)
	assert.Equal(t, sample, res.Doc.Text())
	assert.Empty(t, h.notifier.errors)
}

func TestRenameServerErrorNotifiesAndLeavesDocument(t *testing.T) {
	h := newHarness(&fakeSuggester{err: &renameclient.StatusError{StatusCode: 500, Body: "boom"}})
	doc := document.New(sample)

	res, err := h.r.Rename(context.Background(), RenameRequest{Doc: doc, Pos: document.Position{Line: 0, Char: 4}})
	require.Error(t, err)

	var se *renameclient.StatusError
	require.ErrorAs(t, err, &se)
	assert.False(t, res.Applied)
	assert.Equal(t, sample, res.Doc.Text())
	assert.Equal(t, []string{"Server error: 500 - boom"}, h.notifier.errors)
}

func TestRenameCancelledRequestIsSilent(t *testing.T) {
	for name, cause := range map[string]error{
		"bare":    context.Canceled,
		"wrapped": &renameclient.NoResponseError{Err: context.Canceled},
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(&fakeSuggester{err: cause})
			doc := document.New(sample)

			res, err := h.r.Rename(context.Background(), RenameRequest{Doc: doc, Pos: document.Position{Line: 0, Char: 4}})
			require.NoError(t, err)

			assert.False(t, res.Applied)
			assert.Equal(t, sample, res.Doc.Text())
			assert.Empty(t, h.notifier.errors)
			assert.Empty(t, h.notifier.infos)
		})
	}
}

func TestRenameNoIdentifier(t *testing.T) {
	h := newHarness(&fakeSuggester{})

	_, err := h.r.Rename(context.Background(), RenameRequest{
		Doc: document.New("a = b;"),
		Pos: document.Position{Line: 0, Char: 2},
	})
	require.ErrorIs(t, err, ErrNoIdentifier)

	assert.Zero(t, h.client.calls.Load())
	assert.Equal(t, []string{"No identifier found at the cursor."}, h.notifier.errors)
}

func TestRenameExplicitNameSkipsServer(t *testing.T) {
	h := newHarness(&fakeSuggester{})

	res, err := h.r.Rename(context.Background(), RenameRequest{
		Doc:     document.New(sample),
		Pos:     document.Position{Line: 0, Char: 4},
		NewName: "hits",
		Finder:  occurrences.Identifier{},
	})
	require.NoError(t, err)

	assert.Zero(t, h.client.calls.Load())
	assert.Nil(t, h.picker.seen)
	assert.Equal(t, "hits", res.New)
	assert.Contains(t, res.Doc.Text(), "// recount later")
}

func TestRenamePickerError(t *testing.T) {
	h := newHarness(&fakeSuggester{suggestions: suggestions("total", 0.9)})
	h.picker.err = errors.New("tty gone")

	_, err := h.r.Rename(context.Background(), RenameRequest{
		Doc: document.New(sample),
		Pos: document.Position{Line: 0, Char: 4},
	})
	require.ErrorContains(t, err, "renamer: pick")
	assert.Equal(t, []string{"An unexpected error occurred."}, h.notifier.errors)
}

// --- Ping / toggle ---

func TestPing(t *testing.T) {
	h := newHarness(&fakeSuggester{pingMsg: "ReNameIt is up"})

	msg, err := h.r.Ping(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ReNameIt is up", msg)
	assert.Equal(t, []string{"ReNameIt is up"}, h.notifier.infos)
}

func TestPingFailure(t *testing.T) {
	h := newHarness(&fakeSuggester{pingErr: &renameclient.NoResponseError{Err: errors.New("refused")}})

	_, err := h.r.Ping(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"Error connecting to server."}, h.notifier.errors)
}

func TestToggleAutomaticRenaming(t *testing.T) {
	h := newHarness(&fakeSuggester{})

	on, err := h.r.ToggleAutomaticRenaming()
	require.NoError(t, err)
	assert.False(t, on)

	on, err = h.r.ToggleAutomaticRenaming()
	require.NoError(t, err)
	assert.True(t, on)

	assert.Equal(t, []string{
		"Automatic renaming is now disabled",
		"Automatic renaming is now enabled",
	}, h.notifier.infos)
}

func TestToggleAutomaticRenamingFailure(t *testing.T) {
	h := newHarness(&fakeSuggester{})
	h.settings.toggleErr = errors.New("read-only")

	_, err := h.r.ToggleAutomaticRenaming()
	require.Error(t, err)
	assert.Len(t, h.notifier.errors, 1)
	assert.Empty(t, h.notifier.infos)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"status", &renameclient.StatusError{StatusCode: 422, Body: "bad line"}, "Server error: 422 - bad line"},
		{"no response", &renameclient.NoResponseError{Err: errors.New("timeout")}, "No response received from server."},
		{"request", &renameclient.RequestError{Err: errors.New("bad url")}, "Error setting up the request."},
		{"other", errors.New("weird"), "An unexpected error occurred."},
		{"mismatched", renameclient.ErrMismatchedPairs, "An unexpected error occurred."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

// --- Hover ---

func TestHoverFormatsPairsInOrder(t *testing.T) {
	h := newHarness(&fakeSuggester{suggestions: suggestions("total", 0.912, "counter", 0.05)})

	md, ok := h.r.Hover(context.Background(), document.New(sample), document.Position{Line: 0, Char: 5})
	require.True(t, ok)

	assert.Equal(t, "**ReNameIt Suggestions:**\n\n- total (Probability: 0.91)\n- counter (Probability: 0.05)\n", md)

	req := h.client.lastRequest()
	assert.Equal(t, 1, req.Line)
	assert.Equal(t, 5, req.Char)
	assert.Equal(t, renameclient.AutomaticTokens, req.NumTokens)
}

func TestHoverDisabled(t *testing.T) {
	h := newHarness(&fakeSuggester{suggestions: suggestions("total", 0.9)})
	h.settings.s.AutomaticRenaming = false

	_, ok := h.r.Hover(context.Background(), document.New(sample), document.Position{Line: 0, Char: 5})
	assert.False(t, ok)
	assert.Zero(t, h.client.calls.Load())
}

func TestHoverSilentOnFailure(t *testing.T) {
	h := newHarness(&fakeSuggester{err: &renameclient.StatusError{StatusCode: 500}})

	_, ok := h.r.Hover(context.Background(), document.New(sample), document.Position{Line: 0, Char: 5})
	assert.False(t, ok)
	assert.Empty(t, h.notifier.errors)
}

func TestHoverEmptySuggestions(t *testing.T) {
	h := newHarness(&fakeSuggester{})

	_, ok := h.r.Hover(context.Background(), document.New(sample), document.Position{Line: 0, Char: 5})
	assert.False(t, ok)
}

func TestHoverNotOnIdentifier(t *testing.T) {
	h := newHarness(&fakeSuggester{suggestions: suggestions("x", 1.0)})

	_, ok := h.r.Hover(context.Background(), document.New("a = b"), document.Position{Line: 0, Char: 2})
	assert.False(t, ok)
	assert.Zero(t, h.client.calls.Load())
}

func TestHoverCoalescesConcurrentRequests(t *testing.T) {
	client := &fakeSuggester{suggestions: suggestions("total", 0.9), wait: make(chan struct{})}
	h := newHarness(client)
	doc := document.New(sample)

	const n = 5

	var wg sync.WaitGroup
	results := make([]bool, n)

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = h.r.Hover(context.Background(), doc, document.Position{Line: 0, Char: 5})
		}()
	}

	require.Eventually(t, func() bool { return client.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(client.wait)
	wg.Wait()

	assert.LessOrEqual(t, client.calls.Load(), int32(n))
	for _, ok := range results {
		assert.True(t, ok)
	}
}

func TestHoverSharedRequestSurvivesFirstCallerCancel(t *testing.T) {
	client := &fakeSuggester{suggestions: suggestions("total", 0.9), wait: make(chan struct{})}
	h := newHarness(client)
	doc := document.New(sample)
	pos := document.Position{Line: 0, Char: 5}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()

	firstOK := make(chan bool, 1)
	go func() {
		_, ok := h.r.Hover(firstCtx, doc, pos)
		firstOK <- ok
	}()

	require.Eventually(t, func() bool { return client.calls.Load() == 1 }, time.Second, time.Millisecond)

	type hoverResult struct {
		text string
		ok   bool
	}

	second := make(chan hoverResult, 1)
	go func() {
		text, ok := h.r.Hover(context.Background(), doc, pos)
		second <- hoverResult{text: text, ok: ok}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelFirst()

	select {
	case ok := <-firstOK:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("cancelled hover did not return")
	}

	close(client.wait)

	select {
	case res := <-second:
		require.True(t, res.ok)
		assert.Contains(t, res.text, "total (Probability: 0.90)")
	case <-time.After(time.Second):
		t.Fatal("second hover did not return")
	}

	assert.Equal(t, int32(1), client.calls.Load())
}

func TestHoverReturnsWhenCallerCancels(t *testing.T) {
	client := &fakeSuggester{suggestions: suggestions("total", 0.9), wait: make(chan struct{})}
	defer close(client.wait)

	h := newHarness(client)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := h.r.Hover(ctx, document.New(sample), document.Position{Line: 0, Char: 5})
	assert.False(t, ok)
}

// --- Code actions ---

func TestCodeActions(t *testing.T) {
	actions := CodeActions(document.New(sample), document.Position{Line: 1, Char: 12})
	require.Len(t, actions, 1)

	assert.Equal(t, CodeAction{
		Title:     "Rename Identifier (ReNameIt)",
		Kind:      "refactor.rewrite",
		Command:   "irename.renameIdentifier",
		Line:      2,
		Char:      9,
		NumTokens: -1,
	}, actions[0])

	assert.Nil(t, CodeActions(document.New("a = b"), document.Position{Line: 0, Char: 2}))
}

// --- Diff ---

func TestDiff(t *testing.T) {
	before := document.New("a\nb\nc\n")
	after := document.New("a\nB\nc\n")

	d := Diff("f.java", before, after)
	assert.Contains(t, d, "--- f.java")
	assert.Contains(t, d, "-b")
	assert.Contains(t, d, "+B")

	assert.Empty(t, Diff("f.java", before, before))
}

// --- Tools ---

func TestToolsList(t *testing.T) {
	h := newHarness(&fakeSuggester{})

	var names []string
	for _, tool := range h.r.Tools().Tools() {
		names = append(names, tool.Name)
		assert.True(t, json.Valid(tool.InputSchema), tool.Name)
	}

	assert.Equal(t, []string{
		"rename_apply",
		"rename_code_actions",
		"rename_hover",
		"rename_ping",
		"rename_suggest",
		"rename_toggle_automatic",
	}, names)
}

func TestToolSuggest(t *testing.T) {
	h := newHarness(&fakeSuggester{suggestions: suggestions("total", 0.9)})

	res := h.r.Tools().Call(context.Background(), "rename_suggest",
		json.RawMessage(`{"code":"int count = 0;","line":1,"char":7}`))
	require.False(t, res.IsError, res.Content)

	assert.JSONEq(t, `{"identifier":"count","suggestions":[{"name":"total","probability":0.9}]}`, res.Content)
	assert.Equal(t, 5, h.client.lastRequest().Char)
	assert.Equal(t, renameclient.AutomaticTokens, h.client.lastRequest().NumTokens)
}

func TestToolSuggestServerError(t *testing.T) {
	h := newHarness(&fakeSuggester{err: &renameclient.StatusError{StatusCode: 503, Body: "loading"}})

	res := h.r.Tools().Call(context.Background(), "rename_suggest",
		json.RawMessage(`{"code":"int count = 0;","line":1,"char":5}`))
	assert.True(t, res.IsError)
	assert.Equal(t, "Server error: 503 - loading", res.Content)
}

func TestToolApplyTopSuggestion(t *testing.T) {
	h := newHarness(&fakeSuggester{suggestions: suggestions("total", 0.9, "sum", 0.1)})
	h.picker.index = 1 // ignored: the tool never prompts

	res := h.r.Tools().Call(context.Background(), "rename_apply",
		json.RawMessage(`{"code":"int count = 0;\ncount++;","line":1,"char":5,"num_tokens":2}`))
	require.False(t, res.IsError, res.Content)

	var out applyOutput
	require.NoError(t, json.Unmarshal([]byte(res.Content), &out))

	assert.True(t, out.Applied)
	assert.Equal(t, "total", out.New)
	assert.Equal(t, 2, out.Occurrences)
	assert.Equal(t, "int total = 0;\ntotal++;", out.Code)
	assert.Contains(t, out.Diff, "+int total = 0;")
	assert.Equal(t, 2, h.client.lastRequest().NumTokens)
}

func TestToolApplyExplicitNameIdentifierMode(t *testing.T) {
	h := newHarness(&fakeSuggester{})

	res := h.r.Tools().Call(context.Background(), "rename_apply",
		json.RawMessage(`{"code":"class A { int count; int recount; }","line":1,"char":16,"name":"n","match":"identifier"}`))
	require.False(t, res.IsError, res.Content)

	var out applyOutput
	require.NoError(t, json.Unmarshal([]byte(res.Content), &out))
	assert.Equal(t, "class A { int n; int recount; }", out.Code)
	assert.Zero(t, h.client.calls.Load())
}

func TestToolApplyBadInput(t *testing.T) {
	h := newHarness(&fakeSuggester{})
	tb := h.r.Tools()

	tests := []struct {
		name string
		args string
	}{
		{"zero line", `{"code":"x","line":0,"char":1}`},
		{"outside", `{"code":"x","line":3,"char":1}`},
		{"bad match", `{"code":"x","line":1,"char":1,"match":"regex"}`},
		{"no identifier", `{"code":" ","line":1,"char":1}`},
		{"not json", `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tb.Call(context.Background(), "rename_apply", json.RawMessage(tt.args))
			assert.True(t, res.IsError)
		})
	}
}

func TestToolHoverAndCodeActions(t *testing.T) {
	h := newHarness(&fakeSuggester{suggestions: suggestions("total", 0.5)})
	tb := h.r.Tools()

	res := tb.Call(context.Background(), "rename_hover", json.RawMessage(`{"code":"count","line":1,"char":1}`))
	require.False(t, res.IsError)
	assert.Contains(t, res.Content, "- total (Probability: 0.50)")

	res = tb.Call(context.Background(), "rename_code_actions", json.RawMessage(`{"code":"a = b","line":1,"char":3}`))
	require.False(t, res.IsError)
	assert.Equal(t, "[]", res.Content)
}

func TestToolPingAndToggle(t *testing.T) {
	h := newHarness(&fakeSuggester{pingMsg: "hello"})
	tb := h.r.Tools()

	res := tb.Call(context.Background(), "rename_ping", nil)
	require.False(t, res.IsError)
	assert.Equal(t, "hello", res.Content)

	res = tb.Call(context.Background(), "rename_toggle_automatic", nil)
	require.False(t, res.IsError)
	assert.Equal(t, "Automatic renaming is now disabled", res.Content)
}
