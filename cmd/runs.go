package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"homesite_sync/config"
	"homesite_sync/storage"
)

func runsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recent step runs, or the log of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			journal, err := storage.NewSQLiteStore(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open journal %s: %w", cfg.DBPath, err)
			}
			defer journal.Close()

			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid run id %q", args[0])
				}
				logs, err := journal.RunLogs(id)
				if err != nil {
					return err
				}
				renderLogs(cmd.OutOrStdout(), logs)
				return nil
			}

			runs, err := journal.RecentRuns(limit)
			if err != nil {
				return err
			}
			renderRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}
