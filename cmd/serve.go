package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"homesite_sync/admin"
	"homesite_sync/scheduler"
)

func serveCommand() *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon: scheduler, command queue and admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), runNow)
		},
	}
	cmd.Flags().BoolVar(&runNow, "now", false, "run a full sync at startup")
	return cmd
}

func serve(ctx context.Context, runNow bool) error {
	a, err := newApp(ctx, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.cfg.Scheduler, a.orch, a.journal, a.logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	srv := admin.New(a.cfg.AdminAddr, a.orch, a.journal, a.registry, a.logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	if runNow {
		go func() {
			if err := sched.TriggerNow(ctx); err != nil {
				a.logger.Error("startup run failed", zap.Error(err))
			}
		}()
	}

	a.logger.Info("daemon running")
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
