package pipeline

import (
	"context"

	"go.uber.org/zap"

	"homesite_sync/models"
	"homesite_sync/services"
	"homesite_sync/storage"
)

// Step names.
const (
	StepCommunities      = "communities"
	StepAreas            = "areas"
	StepLinkAreas        = "link-areas"
	StepFloorPlans       = "floor-plans"
	StepHouses           = "houses"
	StepLinkFloorPlans   = "link-floor-plans"
	StepLinkHouses       = "link-houses"
	StepLinkHousePlans   = "link-house-plans"
	StepCleanupAreas     = "cleanup-areas"
	StepStateNames       = "state-names"
	StepCapitalizeStates = "capitalize-states"
	StepWeakenReferences = "weaken-references"
	StepPropertyTypes    = "property-types"
	StepPublishDrafts    = "publish-drafts"
)

// FullSync is the order RunAll executes. Communities are replaced whole, so
// the community arrays are relinked after every scrape.
var FullSync = []string{
	StepCommunities,
	StepAreas,
	StepLinkAreas,
	StepFloorPlans,
	StepHouses,
	StepLinkFloorPlans,
	StepLinkHouses,
	StepLinkHousePlans,
}

// Options are the filters and flags a step may honor.
type Options struct {
	State     string
	Area      string
	Community string
	Types     []string
	DryRun    bool
}

func OptionsFromParams(p *models.CommandParams) Options {
	if p == nil {
		return Options{}
	}
	return Options{State: p.State, Area: p.Area, Community: p.Community, Types: p.Types, DryRun: p.DryRun}
}

type StepFunc func(ctx context.Context, opts Options) (models.StepStats, error)

type Step struct {
	Name        string
	Description string
	Run         StepFunc
}

// Services are the step implementations the default registry wires.
type Services struct {
	States      []string
	Communities *services.CommunityService
	Areas       *services.AreaService
	AreaLinker  *services.AreaLinker
	FloorPlans  *services.FloorPlanService
	Houses      *services.HouseService
	Linker      *services.Linker
	Cleanup     *services.CleanupService
	Maintenance *services.MaintenanceService
}

// ServiceBuilder builds the step services writing through store.
type ServiceBuilder func(store storage.DocumentStore) Services

// DefaultSteps builds the registry over store. A run with DryRun set gets
// services built over a DryRunStore, so no step writes to the CMS.
func DefaultSteps(store storage.DocumentStore, build ServiceBuilder, logger *zap.Logger) []Step {
	live := build(store)
	servicesFor := func(opts Options) Services {
		if !opts.DryRun {
			return live
		}
		dry := build(storage.NewDryRunStore(store, logger))
		if dry.Cleanup != nil {
			dry.Cleanup.DryRun = true
		}
		if dry.Maintenance != nil {
			dry.Maintenance.DryRun = true
		}
		return dry
	}
	step := func(run func(Services, context.Context, Options) (models.StepStats, error)) StepFunc {
		return func(ctx context.Context, opts Options) (models.StepStats, error) {
			return run(servicesFor(opts), ctx, opts)
		}
	}

	return []Step{
		{StepCommunities, "Scrape states and communities from the comms API", step(func(svc Services, ctx context.Context, opts Options) (models.StepStats, error) {
			return svc.Communities.Run(ctx, services.SelectStates(svc.States, opts.State))
		})},
		{StepAreas, "Scrape market areas linked from the homepage", step(func(svc Services, ctx context.Context, opts Options) (models.StepStats, error) {
			return svc.Areas.Run(ctx, opts.Area)
		})},
		{StepLinkAreas, "Point communities at their area", step(func(svc Services, ctx context.Context, opts Options) (models.StepStats, error) {
			return svc.AreaLinker.Run(ctx, opts.Area)
		})},
		{StepFloorPlans, "Scrape floor plan pages for each community", step(func(svc Services, ctx context.Context, opts Options) (models.StepStats, error) {
			return svc.FloorPlans.Run(ctx, storage.CommunityFilter{State: opts.State, Community: opts.Community})
		})},
		{StepHouses, "Scrape quick move-in homes for each community", step(func(svc Services, ctx context.Context, opts Options) (models.StepStats, error) {
			return svc.Houses.Run(ctx, storage.CommunityFilter{State: opts.State, Area: opts.Area, Community: opts.Community})
		})},
		{StepLinkFloorPlans, "Set community floorPlans arrays", step(func(svc Services, ctx context.Context, _ Options) (models.StepStats, error) {
			return svc.Linker.LinkFloorPlansToCommunities(ctx)
		})},
		{StepLinkHouses, "Set community houses arrays", step(func(svc Services, ctx context.Context, _ Options) (models.StepStats, error) {
			return svc.Linker.LinkHousesToCommunities(ctx)
		})},
		{StepLinkHousePlans, "Link houses to floor plans by name", step(func(svc Services, ctx context.Context, _ Options) (models.StepStats, error) {
			return svc.Linker.LinkHousesToFloorPlans(ctx)
		})},
		{StepCleanupAreas, "Delete every areas document", step(func(svc Services, ctx context.Context, _ Options) (models.StepStats, error) {
			return svc.Cleanup.DeleteAreas(ctx)
		})},
		{StepStateNames, "Title-case published state names", step(func(svc Services, ctx context.Context, _ Options) (models.StepStats, error) {
			return svc.Maintenance.UpdateStateNames(ctx)
		})},
		{StepCapitalizeStates, "Capitalize word starts in all state names", step(func(svc Services, ctx context.Context, _ Options) (models.StepStats, error) {
			return svc.Maintenance.CapitalizeStateNames(ctx)
		})},
		{StepWeakenReferences, "Rewrite strong references as weak", step(func(svc Services, ctx context.Context, _ Options) (models.StepStats, error) {
			return svc.Maintenance.WeakenReferences(ctx)
		})},
		{StepPropertyTypes, "Collapse duplicated community property types", step(func(svc Services, ctx context.Context, _ Options) (models.StepStats, error) {
			return svc.Maintenance.CleanPropertyTypes(ctx)
		})},
		{StepPublishDrafts, "Publish draft documents", step(func(svc Services, ctx context.Context, opts Options) (models.StepStats, error) {
			return svc.Maintenance.PublishDrafts(ctx, opts.Types)
		})},
	}
}
