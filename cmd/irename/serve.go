package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/germanamz/irename/pkg/renamer"
	"github.com/germanamz/irename/pkg/tools/mcpserver"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the rename tools over MCP on stdin/stdout",
		Long: `Runs an MCP server so an editor or agent host can request suggestions,
apply renames and toggle hover suggestions. Logs go to stderr. The settings
file is watched, so toggles made from another process apply immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), a)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Notifications have no terminal to go to; the tool results carry them.
	r := renamer.New(renamer.Deps{
		Client:   a.client,
		Settings: a.store,
		Log:      a.log,
	})

	srv := mcpserver.New("irename", version, a.log)
	srv.Register(r.Tools().Tools()...)

	go func() {
		if err := a.store.Watch(ctx, a.log); err != nil {
			a.log.Warn("settings watch stopped", "error", err)
		}
	}()

	a.log.Info("mcp server started", "settings", a.store.Path())

	err := srv.Serve(ctx, a.in, a.out)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
