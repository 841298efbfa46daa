package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/irename/pkg/renameclient"
	"github.com/germanamz/irename/pkg/settings"
)

// startServe runs the serve command over pipes and connects an MCP client.
func startServe(t *testing.T, e env) *mcp.ClientSession {
	t.Helper()

	clientToServerR, clientToServerW := io.Pipe()
	serverToClientR, serverToClientW := io.Pipe()

	a := newApp(clientToServerR, serverToClientW, &bytes.Buffer{})
	a.opts.settingsPath = e.settings
	a.opts.envFile = filepath.Join(e.dir, ".env")
	a.opts.serverURL = e.url
	require.NoError(t, a.setup())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- runServe(ctx, a) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.IOTransport{Reader: serverToClientR, Writer: clientToServerW}, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		_ = clientToServerW.Close()
		_ = serverToClientW.Close()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("serve did not stop")
		}
	})

	return session
}

func toolText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	return tc.Text
}

func TestServeListsRenameTools(t *testing.T) {
	srv := newFakeServer(t, renameclient.RenameResponse{})
	session := startServe(t, newEnv(t, srv.URL))

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}

	assert.ElementsMatch(t, []string{
		"rename_apply",
		"rename_code_actions",
		"rename_hover",
		"rename_ping",
		"rename_suggest",
		"rename_toggle_automatic",
	}, names)
}

func TestServeApplyUsesTopSuggestion(t *testing.T) {
	srv := newFakeServer(t, renameclient.RenameResponse{
		Suggestions:   []string{"total", "hits"},
		Probabilities: []float64{0.7, 0.3},
	})
	session := startServe(t, newEnv(t, srv.URL))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "rename_apply",
		Arguments: map[string]any{"code": javaSource, "line": 2, "char": 17},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, toolText(t, res))

	var out struct {
		New         string `json:"new"`
		Occurrences int    `json:"occurrences"`
		Code        string `json:"code"`
	}
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &out))

	assert.Equal(t, "total", out.New)
	assert.Equal(t, 2, out.Occurrences)
	assert.Contains(t, out.Code, "private int total = 0;")
}

func TestServeServerErrorIsToolError(t *testing.T) {
	srv := newFakeServer(t, renameclient.RenameResponse{})
	srv.status = 500
	session := startServe(t, newEnv(t, srv.URL))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "rename_suggest",
		Arguments: map[string]any{"code": javaSource, "line": 2, "char": 17},
	})
	require.NoError(t, err)

	assert.True(t, res.IsError)
	assert.Equal(t, "Server error: 500 - boom", toolText(t, res))
}

func TestServeTogglePersists(t *testing.T) {
	srv := newFakeServer(t, renameclient.RenameResponse{})
	e := newEnv(t, srv.URL)
	session := startServe(t, e)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: "rename_toggle_automatic"})
	require.NoError(t, err)
	assert.Equal(t, "Automatic renaming is now enabled", toolText(t, res))

	store, err := settings.Open(e.settings)
	require.NoError(t, err)
	assert.True(t, store.AutomaticRenaming())
}
