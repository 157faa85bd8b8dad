package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dukerupert/accountable/internal/scheduler"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the rollover scheduler until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sched := scheduler.New(a.habits, a.cfg.RolloverInterval, a.logger)
			sched.Start(ctx)
			a.logger.Info("accountable running",
				"db_path", a.cfg.DBPath,
				"timezone", a.cfg.Location.String(),
				"window", a.cfg.Window.String(),
				"enforce_window", a.cfg.EnforceWindow,
			)

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)
			select {
			case <-quit:
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			sched.Stop()
			return nil
		},
	}
}
