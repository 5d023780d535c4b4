package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"homesite_sync/identity"
	"homesite_sync/models"
	"homesite_sync/storage"
)

// maxUnmatchedReported caps the plan names listed in a link summary.
const maxUnmatchedReported = 20

// Linker maintains the reference arrays on communities and the house to
// floor plan references. It only reads and patches the store.
type Linker struct {
	store  storage.DocumentStore
	logger *zap.Logger
}

func NewLinker(store storage.DocumentStore, logger *zap.Logger) *Linker {
	return &Linker{store: store, logger: nopIfNil(logger)}
}

// LinkFloorPlansToCommunities sets community.floorPlans to every plan that
// references the community.
func (l *Linker) LinkFloorPlansToCommunities(ctx context.Context) (models.StepStats, error) {
	plans, err := l.store.FloorPlans(ctx)
	if err != nil {
		return models.StepStats{}, fmt.Errorf("query floor plans: %w", err)
	}
	groups := make(map[string][]string)
	for _, p := range plans {
		if cid := models.RefID(p.CommunityRef); cid != "" {
			groups[cid] = append(groups[cid], p.ID)
		}
	}
	l.logger.Info("grouped floor plans", zap.Int("plans", len(plans)), zap.Int("communities", len(groups)))
	return l.patchArrays(ctx, "floorPlans", groups)
}

// LinkHousesToCommunities sets community.houses to every house that
// references the community.
func (l *Linker) LinkHousesToCommunities(ctx context.Context) (models.StepStats, error) {
	houses, err := l.store.Houses(ctx, storage.HouseFilter{})
	if err != nil {
		return models.StepStats{}, fmt.Errorf("query houses: %w", err)
	}
	groups := make(map[string][]string)
	for _, h := range houses {
		if cid := models.RefID(h.CommunityRef); cid != "" {
			groups[cid] = append(groups[cid], h.ID)
		}
	}
	l.logger.Info("grouped houses", zap.Int("houses", len(houses)), zap.Int("communities", len(groups)))
	return l.patchArrays(ctx, "houses", groups)
}

func (l *Linker) patchArrays(ctx context.Context, field string, groups map[string][]string) (models.StepStats, error) {
	var stats models.StepStats

	communityIDs := make([]string, 0, len(groups))
	for id := range groups {
		communityIDs = append(communityIDs, id)
	}
	sort.Strings(communityIDs)

	for _, communityID := range communityIDs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Processed++
		ids := groups[communityID]
		refs := make([]models.Reference, 0, len(ids))
		for _, id := range ids {
			refs = append(refs, models.KeyedWeakRef(id, identity.ArrayKey(id)))
		}

		if err := l.store.Mutate(ctx, storage.PatchSet(communityID, map[string]any{field: refs})); err != nil {
			l.logger.Error("update community failed", zap.String("community", communityID), zap.String("field", field), zap.Error(err))
			stats.Errors++
			continue
		}
		l.logger.Debug("updated community", zap.String("community", communityID), zap.String("field", field), zap.Int("refs", len(refs)))
		stats.Succeeded++
	}

	l.logger.Info("community links complete",
		zap.String("field", field),
		zap.Int("updated", stats.Succeeded),
		zap.Int("failed", stats.Errors))
	return stats, nil
}

// LinkHousesToFloorPlans resolves floorPlanName on unlinked houses to a
// floor plan in the same community.
func (l *Linker) LinkHousesToFloorPlans(ctx context.Context) (models.StepStats, error) {
	var stats models.StepStats

	houses, err := l.store.Houses(ctx, storage.HouseFilter{UnlinkedOnly: true})
	if err != nil {
		return stats, fmt.Errorf("query houses: %w", err)
	}
	plans, err := l.store.FloorPlans(ctx)
	if err != nil {
		return stats, fmt.Errorf("query floor plans: %w", err)
	}

	byKey := make(map[string]string, len(plans))
	for _, p := range plans {
		cid := models.RefID(p.CommunityRef)
		if cid == "" || p.Name == "" {
			continue
		}
		byKey[identity.FloorPlanKey(cid, p.Name)] = p.ID
	}
	l.logger.Info("matching houses to floor plans", zap.Int("houses", len(houses)), zap.Int("plans", len(byKey)))

	seen := make(map[string]bool)
	notFound := 0
	for _, h := range houses {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		cid := models.RefID(h.CommunityRef)
		if cid == "" || h.FloorPlanName == "" {
			continue
		}
		stats.Processed++

		planID, ok := byKey[identity.FloorPlanKey(cid, h.FloorPlanName)]
		if !ok {
			notFound++
			stats.Skipped++
			name := fmt.Sprintf("%s (community: %s)", h.FloorPlanName, cid)
			if !seen[name] {
				seen[name] = true
				if len(stats.Unmatched) < maxUnmatchedReported {
					stats.Unmatched = append(stats.Unmatched, name)
				}
			}
			continue
		}

		if err := l.store.Mutate(ctx, storage.PatchSet(h.ID, map[string]any{"floorPlanRef": models.WeakRef(planID)})); err != nil {
			l.logger.Error("link house failed", zap.String("house", h.ID), zap.Error(err))
			stats.Errors++
			continue
		}
		stats.Succeeded++
	}

	l.logger.Info("house plan links complete",
		zap.Int("linked", stats.Succeeded),
		zap.Int("not_found", notFound),
		zap.Int("unique_unmatched", len(seen)),
		zap.Strings("unmatched", stats.Unmatched))
	return stats, nil
}
