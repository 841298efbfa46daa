package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/germanamz/irename/cmd/irename/internal/ui"
	"github.com/germanamz/irename/pkg/renameclient"
	"github.com/germanamz/irename/pkg/renamer"
	"github.com/germanamz/irename/pkg/settings"
)

// errReported marks failures the user has already been notified about.
var errReported = errors.New("reported")

// options holds the persistent flags.
type options struct {
	settingsPath string
	envFile      string
	serverURL    string
	verbose      bool
	timeout      time.Duration
}

// app carries the wiring shared by every command. It is filled in by setup
// before a command runs.
type app struct {
	opts options

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	log    *slog.Logger
	store  *settings.Store
	client *renameclient.Client
	notify *ui.Notifier
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		opts:   options{envFile: ".env", timeout: renameclient.DefaultTimeout},
		in:     in,
		out:    out,
		errOut: errOut,
	}
}

// setup loads the environment and settings and builds the HTTP client.
func (a *app) setup() error {
	if err := settings.LoadDotEnv(a.opts.envFile); err != nil {
		return err
	}

	level := slog.LevelWarn
	if a.opts.verbose {
		level = slog.LevelDebug
	}

	a.log = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	a.notify = ui.NewNotifier(a.out, a.errOut)

	path := a.opts.settingsPath
	if path == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			return err
		}

		path = p
	}

	store, err := settings.Open(path)
	if err != nil {
		return err
	}

	a.store = store

	baseURL := renameclient.BaseURLFunc(store.ServerURL)
	if a.opts.serverURL != "" {
		if err := settings.ValidateServerURL(a.opts.serverURL); err != nil {
			return err
		}

		baseURL = renameclient.Static(a.opts.serverURL)
	}

	a.client = renameclient.New(baseURL, &http.Client{Timeout: a.opts.timeout}, a.log)

	a.log.Debug("settings loaded", "path", store.Path(), "server_url", baseURL())

	return nil
}

// interactive reports whether both ends of the terminal are attached.
func (a *app) interactive() bool {
	return isTerminal(a.in) && isTerminal(a.out)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// newRenamer builds a Renamer for one command. Interactive sessions get the
// huh picker and the spinner; otherwise the top suggestion is taken.
func (a *app) newRenamer() (*renamer.Renamer, *ui.Picker) {
	var (
		picker renamer.Picker = renamer.FirstPicker{}
		uiPick *ui.Picker
	)

	tty := a.interactive()
	if tty {
		uiPick = &ui.Picker{Input: a.in, Output: a.out}
		picker = uiPick
	}

	r := renamer.New(renamer.Deps{
		Client:   ui.WithSpinner(a.client, a.errOut, tty),
		Settings: a.store,
		Picker:   picker,
		Notifier: a.notify,
		Log:      a.log,
	})

	return r, uiPick
}

func reported(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", errReported, err)
}
