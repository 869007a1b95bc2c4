package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/healthtree/internal/cliconfig"
	"github.com/bft-labs/healthtree/internal/components"
	"github.com/bft-labs/healthtree/pkg/lifecycle"
	"github.com/bft-labs/healthtree/pkg/log"
	"github.com/bft-labs/healthtree/pkg/snapshot"
	"github.com/bft-labs/healthtree/pkg/statelog"
)

func (a *app) runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Initialize the tree, keep it running until interrupted, then shut it down",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadValid(cmd); err != nil {
				return err
			}
			return a.run()
		},
	}
	cmd.Flags().BoolVar(&a.cfg.Once, "once", a.cfg.Once, "shut down right after initialization")
	cmd.Flags().BoolVar(&a.cfg.Snapshot, "snapshot", a.cfg.Snapshot, "save every aggregate state to status.json")
	cmd.Flags().DurationVar(&a.cfg.CheckInterval, "check-interval", a.cfg.CheckInterval, "re-probe interval while running (0 disables)")
	cmd.Flags().DurationVar(&a.cfg.SuppressWindow, "suppress-window", a.cfg.SuppressWindow, "initial window for suppressing repeated mapping errors")
	cmd.Flags().DurationVar(&a.cfg.SuppressMax, "suppress-max", a.cfg.SuppressMax, "maximum suppression window")
	return cmd
}

func (a *app) buildTree(logger log.Logger) (lifecycle.Component, error) {
	root, err := components.Build(a.cfg.Tree, components.Options{
		Logger:     logger,
		HTTPClient: &http.Client{Timeout: a.cfg.ProbeTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}
	return root, nil
}

func (a *app) run() error {
	cfg := a.cfg
	logger := cliconfig.Logger(cfg)
	logger.Info("configuration",
		log.String("tree", cfg.Tree.Name),
		log.String("state_dir", cfg.StateDir),
		log.Duration("check_interval", cfg.CheckInterval),
		log.Bool("snapshot", cfg.Snapshot),
		log.Bool("once", cfg.Once),
	)

	root, err := a.buildTree(logger)
	if err != nil {
		return err
	}

	fwd := statelog.NewForwarder(logger, statelog.WithSuppressionWindow(cfg.SuppressWindow, cfg.SuppressMax))
	var subs []lifecycle.Subscription
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()
	components.Walk(root, func(c lifecycle.Component) {
		subs = append(subs, fwd.WatchState(c))
	})

	if cfg.Snapshot {
		rec := snapshot.NewRecorder(snapshot.NewFileRepository(cfg.StateDir), logger)
		subs = append(subs, rec.Watch(root))
		logger.Info("recording snapshots",
			log.String("dir", cfg.StateDir),
			log.String("run_id", rec.RunID().String()),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initErr := root.Initialize(ctx)
	if initErr != nil {
		logger.Error("initialization failed", log.Err(initErr))
	}
	logger.Info("tree initialized",
		log.String("state", root.State().State.String()),
		log.String("reason", root.State().Reason),
	)

	if !cfg.Once {
		events := make(chan statelog.Event)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			err := fwd.WatchLogs(gctx, root.Name(), events)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		if cfg.CheckInterval > 0 {
			g.Go(func() error {
				defer close(events)
				checkLoop(gctx, root, cfg.CheckInterval, events)
				return nil
			})
		}
		<-ctx.Done()
		logger.Info("received signal, shutting down")
		if err := g.Wait(); err != nil {
			logger.Warn("background task failed", log.Err(err))
		}
	}

	shutdownErr := root.Shutdown(context.Background())
	if shutdownErr != nil {
		logger.Error("shutdown failed", log.Err(shutdownErr))
	}

	totals := fwd.Totals()
	logger.Debug("forwarder stats",
		log.Int("streams", len(fwd.Streams())),
		log.Uint64("forwarded", totals.Forwarded),
		log.Uint64("mapping_failures", totals.MappingFailures),
		log.Uint64("suppressed", totals.Suppressed),
	)
	return errors.Join(initErr, shutdownErr)
}

// checkLoop re-probes checkable components every interval and reports each
// round on the root's log stream.
func checkLoop(ctx context.Context, root lifecycle.Component, interval time.Duration, events chan<- statelog.Event) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		e := statelog.Event{Level: statelog.LevelDebug, Message: "health check passed", Time: time.Now()}
		if err := components.CheckAll(ctx, root); err != nil {
			e.Level = statelog.LevelWarn
			e.Message = "health check failed"
			e.Fields = map[string]interface{}{"error": err.Error()}
		}
		e.Fields = withState(e.Fields, root.State())

		select {
		case events <- e:
		case <-ctx.Done():
			return
		}
	}
}

func withState(fields map[string]interface{}, s lifecycle.StateInfo) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{}, 1)
	}
	fields["state"] = s.State.String()
	return fields
}
