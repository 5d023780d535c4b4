package cmd

import (
	"github.com/spf13/cobra"

	"homesite_sync/models"
	"homesite_sync/pipeline"
)

// subcommand name → pipeline step
type stepAlias struct {
	use   string
	step  string
	short string
}

func groupCommand(use, short string, aliases []stepAlias) *cobra.Command {
	group := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	for _, alias := range aliases {
		step := alias.step
		group.AddCommand(&cobra.Command{
			Use:   alias.use,
			Short: alias.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSteps(cmd, step)
			},
		})
	}
	return group
}

func scrapeCommand() *cobra.Command {
	return groupCommand("scrape", "Scrape the builder site into the CMS", []stepAlias{
		{"communities", pipeline.StepCommunities, "States and communities from the comms API"},
		{"areas", pipeline.StepAreas, "Market areas linked from the homepage"},
		{"floor-plans", pipeline.StepFloorPlans, "Floor plans of every community"},
		{"houses", pipeline.StepHouses, "Quick move-in homes of every community"},
	})
}

func linkCommand() *cobra.Command {
	return groupCommand("link", "Rebuild references between documents", []stepAlias{
		{"areas", pipeline.StepLinkAreas, "Set community areaRef"},
		{"floor-plans", pipeline.StepLinkFloorPlans, "Set community floorPlans arrays"},
		{"houses", pipeline.StepLinkHouses, "Set community houses arrays"},
		{"house-plans", pipeline.StepLinkHousePlans, "Link houses to their floor plan"},
	})
}

func cleanupCommand() *cobra.Command {
	return groupCommand("cleanup", "Delete scraped documents", []stepAlias{
		{"areas", pipeline.StepCleanupAreas, "Delete every areas document"},
	})
}

func migrateCommand() *cobra.Command {
	return groupCommand("migrate", "One-off data migrations", []stepAlias{
		{"state-names", pipeline.StepStateNames, "Title-case published state names"},
		{"capitalize-states", pipeline.StepCapitalizeStates, "Capitalize word starts in all state names"},
		{"weaken-references", pipeline.StepWeakenReferences, "Rewrite strong references as weak"},
		{"property-types", pipeline.StepPropertyTypes, "Collapse duplicated property types"},
		{"publish-drafts", pipeline.StepPublishDrafts, "Publish drafts (limit with --types)"},
	})
}

func allCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run the full sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSteps(cmd, pipeline.FullSync...)
		},
	}
}

// runSteps runs steps in order, stopping at the first one that fails, and
// prints a summary table of everything that ran.
func runSteps(cmd *cobra.Command, steps ...string) error {
	a, err := newApp(cmd.Context(), flags)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := flags.options()
	var results []stepResult
	for _, step := range steps {
		stats, err := a.orch.RunStep(cmd.Context(), step, opts)
		results = append(results, stepResult{Step: step, Stats: stats, Err: err})
		if err != nil {
			renderStepResults(cmd.OutOrStdout(), results)
			return err
		}
	}
	renderStepResults(cmd.OutOrStdout(), results)
	return nil
}

type stepResult struct {
	Step  string
	Stats models.StepStats
	Err   error
}
