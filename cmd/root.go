// Package cmd implements the homesite_sync command line.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"homesite_sync/pipeline"
)

// flags shared by every step command.
type stepFlags struct {
	state     string
	area      string
	community string
	types     []string
	dryRun    bool
}

func (f stepFlags) options() pipeline.Options {
	return pipeline.Options{
		State:     f.state,
		Area:      f.area,
		Community: f.community,
		Types:     f.types,
		DryRun:    f.dryRun,
	}
}

var flags stepFlags

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "homesite_sync",
		Short:         "Scrape builder sites and sync them into the CMS",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.state, "state", "", "only states matching this name")
	pf.StringVar(&flags.area, "area", "", "only areas matching this name")
	pf.StringVar(&flags.community, "community", "", "only communities whose name contains this")
	pf.StringSliceVar(&flags.types, "types", nil, "document types for publish-drafts")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "log mutations instead of writing them")

	root.AddCommand(
		scrapeCommand(),
		linkCommand(),
		cleanupCommand(),
		migrateCommand(),
		allCommand(),
		serveCommand(),
		runsCommand(),
	)
	return root
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}
