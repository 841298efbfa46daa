package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/germanamz/irename/pkg/occurrences"
	"github.com/germanamz/irename/pkg/renameclient"
	"github.com/germanamz/irename/pkg/renamer"
)

type renameFlags struct {
	pos    positionFlags
	tokens int
	name   string
	match  string
	dryRun bool
	yes    bool
}

func newRenameCmd(a *app) *cobra.Command {
	var fl renameFlags

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Rename the identifier at a position across the file",
		Long: `Asks the server for names, lets you pick one and replaces every occurrence
of the identifier in the file. Without a terminal the top suggestion is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRename(cmd, a, fl)
		},
	}

	fl.pos.register(cmd)

	f := cmd.Flags()
	f.IntVarP(&fl.tokens, "tokens", "t", renameclient.AutomaticTokens, "sub-tokens per name; -1 lets the server decide")
	f.StringVarP(&fl.name, "name", "n", "", "use this name instead of asking the server")
	f.StringVarP(&fl.match, "match", "m", string(occurrences.ModeSubstring), "occurrence matching: substring or identifier")
	f.BoolVar(&fl.dryRun, "dry-run", false, "print the diff without writing the file")
	f.BoolVarP(&fl.yes, "yes", "y", false, "write without asking for confirmation")

	return cmd
}

func runRename(cmd *cobra.Command, a *app, fl renameFlags) error {
	ctx := cmd.Context()

	finder, err := occurrences.ForMode(occurrences.Mode(fl.match))
	if err != nil {
		return err
	}

	doc, pos, err := fl.pos.load()
	if err != nil {
		return err
	}

	r, picker := a.newRenamer()

	res, err := r.Rename(ctx, renamer.RenameRequest{
		Doc:       doc,
		Pos:       pos,
		NumTokens: fl.tokens,
		NewName:   fl.name,
		Finder:    finder,
	})
	if err != nil {
		return reported(err)
	}

	if !res.Applied {
		return nil
	}

	diff := renamer.Diff(fl.pos.file, doc, res.Doc)

	if fl.dryRun {
		_, err := fmt.Fprint(a.out, diff)
		return err
	}

	if picker != nil && !fl.yes {
		title := fmt.Sprintf("Rename %s to %s (%d occurrences)?", res.Old, res.New, len(res.Edits))

		ok, err := picker.Confirm(ctx, title, diff)
		if err != nil {
			a.notify.Error(renamer.UserMessage(err))
			return reported(err)
		}

		if !ok {
			a.notify.Info("Rename cancelled.")
			return nil
		}
	}

	if err := res.Doc.Save(fl.pos.file); err != nil {
		return err
	}

	a.notify.Info(fmt.Sprintf("Renamed %s to %s (%d occurrences)", res.Old, res.New, len(res.Edits)))

	return nil
}
