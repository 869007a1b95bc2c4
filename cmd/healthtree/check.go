package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bft-labs/healthtree/internal/cliconfig"
	"github.com/bft-labs/healthtree/pkg/snapshot"
)

var errNotReady = errors.New("tree is not ready")

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Initialize the tree once, print its aggregate state and shut it down",
		Long: `Initialize the tree once, print its aggregate state as JSON and shut it down.
The command fails when the tree is not ready (neither OK nor DEGRADED).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadValid(cmd); err != nil {
				return err
			}
			return a.check(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) check(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cliconfig.Logger(a.cfg)

	root, err := a.buildTree(logger)
	if err != nil {
		return err
	}

	ready := root.IsReady(ctx)
	state := root.State()
	shutdownErr := root.Shutdown(context.Background())

	if err := writeJSON(out, state); err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("%w: %s", errNotReady, state.Reason)
	}
	return shutdownErr
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the last saved snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			if a.cfg.StateDir == "" {
				a.cfg.StateDir = cliconfig.DefaultStateDir()
			}
			return status(cmd.Context(), snapshot.NewFileRepository(a.cfg.StateDir), cmd.OutOrStdout())
		},
	}
}

func status(ctx context.Context, repo *snapshot.FileRepository, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if s.IsEmpty() {
		return fmt.Errorf("no snapshot at %s", repo.Path())
	}
	return writeJSON(out, s)
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
