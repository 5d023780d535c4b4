package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"homesite_sync/identity"
	"homesite_sync/models"
	"homesite_sync/storage"
)

// ValidPropertyTypes are the community property types the CMS accepts.
var ValidPropertyTypes = []string{
	"Single family",
	"Townhome",
	"Duplex",
	"Patio home",
	"Multifamily",
	"MultiGen",
}

// referenceFields lists the single reference fields per document type.
var referenceFields = map[string][]string{
	models.TypeFloorPlan: {"communityRef"},
	models.TypeHouse:     {"communityRef", "floorPlanRef"},
	models.TypeCommunity: {"stateRef", "areaRef"},
	models.TypeArea:      {"stateRef"},
}

// referenceArrays lists the reference array fields per document type.
var referenceArrays = map[string][]string{
	models.TypeCommunity: {"floorPlans", "houses"},
}

// MaintenanceService holds one-off data migrations. With DryRun set no
// mutation is sent; the stats report what would change.
type MaintenanceService struct {
	store  storage.DocumentStore
	logger *zap.Logger
	DryRun bool
}

func NewMaintenanceService(store storage.DocumentStore, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{store: store, logger: nopIfNil(logger)}
}

func (s *MaintenanceService) apply(ctx context.Context, stats *models.StepStats, id, action string, mutations ...storage.Mutation) {
	stats.Processed++
	if s.DryRun {
		s.logger.Info("dry run", zap.String("id", id), zap.String("action", action))
		stats.Skipped++
		return
	}
	if err := s.store.Mutate(ctx, mutations...); err != nil {
		s.logger.Error("mutation failed", zap.String("id", id), zap.String("action", action), zap.Error(err))
		stats.Errors++
		return
	}
	s.logger.Debug("applied", zap.String("id", id), zap.String("action", action))
	stats.Succeeded++
}

// UpdateStateNames title-cases every published state name.
func (s *MaintenanceService) UpdateStateNames(ctx context.Context) (models.StepStats, error) {
	return s.renameStates(ctx, identity.TitleCase, true)
}

// CapitalizeStateNames uppercases each word start of every state name,
// drafts included, leaving the rest of each word alone.
func (s *MaintenanceService) CapitalizeStateNames(ctx context.Context) (models.StepStats, error) {
	return s.renameStates(ctx, identity.CapitalizeWords, false)
}

func (s *MaintenanceService) renameStates(ctx context.Context, rename func(string) string, skipDrafts bool) (models.StepStats, error) {
	var stats models.StepStats

	docs, err := s.store.Documents(ctx, storage.DocumentQuery{Types: []string{models.TypeState}})
	if err != nil {
		return stats, fmt.Errorf("query states: %w", err)
	}
	for _, doc := range docs {
		if skipDrafts && identity.IsDraft(doc.ID()) {
			continue
		}
		name := doc.String("name")
		if name == "" {
			continue
		}
		renamed := rename(name)
		if renamed == name {
			continue
		}
		s.apply(ctx, &stats, doc.ID(), fmt.Sprintf("rename %q to %q", name, renamed),
			storage.PatchSet(doc.ID(), map[string]any{"name": renamed}))
	}

	s.logger.Info("state names complete", zap.Int("updated", stats.Succeeded), zap.Int("errors", stats.Errors))
	return stats, nil
}

// WeakenReferences rewrites every strong reference the pipeline's document
// types carry as a weak one.
func (s *MaintenanceService) WeakenReferences(ctx context.Context) (models.StepStats, error) {
	var stats models.StepStats

	docs, err := s.store.Documents(ctx, storage.DocumentQuery{
		Types: []string{models.TypeFloorPlan, models.TypeHouse, models.TypeCommunity, models.TypeArea},
	})
	if err != nil {
		return stats, fmt.Errorf("query documents: %w", err)
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		set := make(map[string]any)
		for _, field := range referenceFields[doc.Type()] {
			ref, ok := doc[field].(map[string]any)
			if !ok {
				continue
			}
			id, _ := ref["_ref"].(string)
			if id == "" || isWeak(ref) {
				continue
			}
			set[field] = models.WeakRef(id)
		}
		for _, field := range referenceArrays[doc.Type()] {
			if refs, changed := weakenArray(doc[field]); changed {
				set[field] = refs
			}
		}
		if len(set) == 0 {
			continue
		}
		s.apply(ctx, &stats, doc.ID(), fmt.Sprintf("weaken %d fields", len(set)), storage.PatchSet(doc.ID(), set))
	}

	s.logger.Info("weaken references complete", zap.Int("patched", stats.Succeeded), zap.Int("errors", stats.Errors))
	return stats, nil
}

func isWeak(ref map[string]any) bool {
	weak, _ := ref["_weak"].(bool)
	return weak
}

// weakenArray rewrites the reference items of an array as keyed weak
// references. Items that are not references are kept unchanged.
func weakenArray(v any) ([]any, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	changed := false
	out := make([]any, 0, len(items))
	for _, item := range items {
		ref, ok := item.(map[string]any)
		if !ok {
			out = append(out, item)
			continue
		}
		id, _ := ref["_ref"].(string)
		if id == "" {
			out = append(out, item)
			continue
		}
		key, _ := ref["_key"].(string)
		if key == "" {
			key = identity.ArrayKey(id)
			changed = true
		}
		if !isWeak(ref) {
			changed = true
		}
		out = append(out, models.KeyedWeakRef(id, key))
	}
	return out, changed
}

// CleanPropertyTypes collapses "Townhome;Townhome" style values to their
// first entry when that entry is a valid property type.
func (s *MaintenanceService) CleanPropertyTypes(ctx context.Context) (models.StepStats, error) {
	var stats models.StepStats

	docs, err := s.store.Documents(ctx, storage.DocumentQuery{Types: []string{models.TypeCommunity}})
	if err != nil {
		return stats, fmt.Errorf("query communities: %w", err)
	}
	for _, doc := range docs {
		value := doc.String("propertyType")
		if !strings.Contains(value, ";") {
			continue
		}
		first, _, _ := strings.Cut(value, ";")
		first = strings.TrimSpace(first)
		if !isValidPropertyType(first) {
			s.logger.Warn("unknown property type", zap.String("id", doc.ID()), zap.String("value", value))
			continue
		}
		s.apply(ctx, &stats, doc.ID(), fmt.Sprintf("property type %q", first),
			storage.PatchSet(doc.ID(), map[string]any{"propertyType": first}))
	}

	s.logger.Info("property types complete", zap.Int("updated", stats.Succeeded), zap.Int("errors", stats.Errors))
	return stats, nil
}

func isValidPropertyType(v string) bool {
	for _, t := range ValidPropertyTypes {
		if t == v {
			return true
		}
	}
	return false
}

// PublishDrafts replaces each published document with its draft and
// deletes the draft in the same transaction. An empty types list publishes
// drafts of every type.
func (s *MaintenanceService) PublishDrafts(ctx context.Context, types []string) (models.StepStats, error) {
	var stats models.StepStats

	drafts, err := s.store.Documents(ctx, storage.DocumentQuery{Types: types, DraftsOnly: true})
	if err != nil {
		return stats, fmt.Errorf("query drafts: %w", err)
	}
	s.logger.Info("found drafts", zap.Int("count", len(drafts)), zap.Strings("types", types))

	for _, draft := range drafts {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if strings.HasPrefix(draft.Type(), "sanity.") {
			continue
		}
		published := make(models.Document, len(draft))
		for k, v := range draft {
			published[k] = v
		}
		publishedID := identity.PublishedID(draft.ID())
		published["_id"] = publishedID
		delete(published, "_rev")
		delete(published, "_system")

		s.apply(ctx, &stats, draft.ID(), "publish as "+publishedID,
			storage.CreateOrReplace(published),
			storage.DeleteDocument(draft.ID()))
	}

	s.logger.Info("publish drafts complete", zap.Int("published", stats.Succeeded), zap.Int("errors", stats.Errors))
	return stats, nil
}
