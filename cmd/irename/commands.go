package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/germanamz/irename/cmd/irename/internal/ui"
	"github.com/germanamz/irename/pkg/document"
	"github.com/germanamz/irename/pkg/renameclient"
	"github.com/germanamz/irename/pkg/renamer"
)

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := newApp(in, out, errOut)

	root := &cobra.Command{
		Use:           "irename",
		Short:         "Rename identifiers with names suggested by a model",
		Long:          "irename asks a ReNameIt inference server for better identifier names and applies the chosen one across a file.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}

	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	f := root.PersistentFlags()
	f.StringVar(&a.opts.settingsPath, "settings", "", "path to the settings file (default: user config dir)")
	f.StringVar(&a.opts.envFile, "env", a.opts.envFile, "path to .env file (ignored if missing)")
	f.StringVar(&a.opts.serverURL, "server-url", "", "override the configured server URL")
	f.BoolVarP(&a.opts.verbose, "verbose", "v", false, "log requests at debug level")
	f.DurationVar(&a.opts.timeout, "timeout", a.opts.timeout, "request timeout")

	root.AddCommand(
		newPingCmd(a),
		newRenameCmd(a),
		newSuggestCmd(a),
		newHoverCmd(a),
		newCodeActionsCmd(a),
		newToggleCmd(a),
		newSettingsCmd(a),
		newServeCmd(a),
	)

	return root
}

// positionFlags are the --file/--line/--char flags shared by commands that
// address an identifier. line and char are 1-based.
type positionFlags struct {
	file string
	line int
	char int
}

func (p *positionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.file, "file", "f", "", "source file")
	cmd.Flags().IntVarP(&p.line, "line", "l", 0, "1-based line of the identifier")
	cmd.Flags().IntVarP(&p.char, "char", "c", 0, "1-based character column of the identifier")

	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("line")
	_ = cmd.MarkFlagRequired("char")
}

func (p *positionFlags) load() (*document.Document, document.Position, error) {
	if p.line < 1 || p.char < 1 {
		return nil, document.Position{}, errors.New("--line and --char are 1-based")
	}

	doc, err := document.Load(p.file)
	if err != nil {
		return nil, document.Position{}, err
	}

	pos := document.Position{Line: p.line - 1, Char: p.char - 1}
	if !doc.Valid(pos) {
		return nil, document.Position{}, fmt.Errorf("position %s is outside %s", pos, p.file)
	}

	return doc, pos, nil
}

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the inference server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, _ := a.newRenamer()
			_, err := r.Ping(cmd.Context())

			return reported(err)
		},
	}
}

func newSuggestCmd(a *app) *cobra.Command {
	var (
		pos    positionFlags
		tokens int
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "List suggested names for the identifier at a position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, p, err := pos.load()
			if err != nil {
				return err
			}

			word, ok := doc.WordRangeAt(p)
			if !ok {
				a.notify.Error("No identifier found at the cursor.")
				return reported(renamer.ErrNoIdentifier)
			}

			s, err := a.client.Suggest(cmd.Context(), renameclient.RenameRequest{
				Code:      doc.Text(),
				Line:      word.Start.Line + 1,
				Char:      word.Start.Char + 1,
				NumTokens: tokens,
			})
			if err != nil {
				a.notify.Error(renamer.UserMessage(err))
				return reported(err)
			}

			return ui.WriteTable(a.out, s)
		},
	}

	pos.register(cmd)
	cmd.Flags().IntVarP(&tokens, "tokens", "t", renameclient.AutomaticTokens, "sub-tokens per name; -1 lets the server decide")

	return cmd
}

func newHoverCmd(a *app) *cobra.Command {
	var (
		pos   positionFlags
		width int
	)

	cmd := &cobra.Command{
		Use:   "hover",
		Short: "Show hover suggestions for the identifier at a position",
		Long:  "Prints nothing when automatic renaming is disabled or the server has no suggestions.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, p, err := pos.load()
			if err != nil {
				return err
			}

			r, _ := a.newRenamer()

			md, ok := r.Hover(cmd.Context(), doc, p)
			if !ok {
				return nil
			}

			style := ""
			if !a.interactive() {
				style = "notty"
			}

			_, err = fmt.Fprintln(a.out, ui.RenderMarkdown(md, width, style))

			return err
		},
	}

	pos.register(cmd)
	cmd.Flags().IntVar(&width, "width", 80, "wrap width")

	return cmd
}

func newCodeActionsCmd(a *app) *cobra.Command {
	var pos positionFlags

	cmd := &cobra.Command{
		Use:   "code-actions",
		Short: "Print the code actions available at a position as JSON",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			doc, p, err := pos.load()
			if err != nil {
				return err
			}

			actions := renamer.CodeActions(doc, p)
			if actions == nil {
				actions = []renamer.CodeAction{}
			}

			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")

			return enc.Encode(actions)
		},
	}

	pos.register(cmd)

	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-automatic",
		Short: "Turn hover suggestions on or off",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			r, _ := a.newRenamer()
			_, err := r.ToggleAutomaticRenaming()

			return reported(err)
		},
	}
}

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the current settings",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			data, err := yaml.Marshal(a.store.Get())
			if err != nil {
				return fmt.Errorf("marshal settings: %w", err)
			}

			_, err = fmt.Fprintf(a.out, "# %s\n%s", a.store.Path(), data)

			return err
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set-server-url <url>",
		Short: "Set the inference server URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.store.SetServerURL(args[0]); err != nil {
				return err
			}

			a.notify.Info("Server URL set to " + args[0])

			return nil
		},
	})

	return cmd
}
