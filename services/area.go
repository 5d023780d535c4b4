package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"homesite_sync/identity"
	"homesite_sync/models"
	"homesite_sync/scraper"
	"homesite_sync/storage"
)

// AreaService writes one areas document per market linked from the
// homepage footer.
type AreaService struct {
	comms  *scraper.CommsClient
	store  storage.DocumentStore
	logger *zap.Logger
}

func NewAreaService(comms *scraper.CommsClient, store storage.DocumentStore, logger *zap.Logger) *AreaService {
	return &AreaService{comms: comms, store: store, logger: nopIfNil(logger)}
}

// Run upserts every area whose name or path contains filter.
func (s *AreaService) Run(ctx context.Context, filter string) (models.StepStats, error) {
	var stats models.StepStats

	links, err := s.comms.AreaLinks(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch area links: %w", err)
	}
	s.logger.Info("found area links", zap.Int("count", len(links)))

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !matchesFilter(filter, link.Name, link.Href) {
			continue
		}
		stats.Processed++
		log := s.logger.With(zap.String("area", link.Name), zap.String("href", link.Href))

		resp, err := s.comms.Area(ctx, link.Href)
		if err != nil {
			log.Error("fetch area failed", zap.Error(err))
			stats.Errors++
			continue
		}

		doc := scraper.AreaDocument(link.Href, resp)
		if doc == nil {
			log.Warn("no area info, skipping")
			stats.Skipped++
			continue
		}
		if err := s.store.Mutate(ctx, storage.CreateOrReplace(doc)); err != nil {
			log.Error("upsert area failed", zap.Error(err))
			stats.Errors++
			continue
		}
		log.Debug("area upserted", zap.String("id", doc.ID))
		stats.Succeeded++
	}

	s.logger.Info("areas complete",
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors))
	return stats, nil
}

// AreaLinker points each community listed under an area at that area.
type AreaLinker struct {
	comms  *scraper.CommsClient
	store  storage.DocumentStore
	logger *zap.Logger
}

func NewAreaLinker(comms *scraper.CommsClient, store storage.DocumentStore, logger *zap.Logger) *AreaLinker {
	return &AreaLinker{comms: comms, store: store, logger: nopIfNil(logger)}
}

func (l *AreaLinker) Run(ctx context.Context, filter string) (models.StepStats, error) {
	var stats models.StepStats

	links, err := l.comms.AreaLinks(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch area links: %w", err)
	}

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !matchesFilter(filter, link.Name, link.Href) {
			continue
		}
		log := l.logger.With(zap.String("area", link.Name))

		resp, err := l.comms.Area(ctx, link.Href)
		if err != nil {
			log.Error("fetch area failed", zap.Error(err))
			stats.Errors++
			continue
		}
		if len(resp.CommunityData) == 0 {
			log.Info("no communities in area")
			stats.Skipped++
			continue
		}

		state := identity.StateFromPath(link.Href)
		areaID := identity.AreaID(link.Href)
		for _, comm := range resp.CommunityData {
			stats.Processed++
			communityID := identity.CommunityID(state, comm.Name)
			err := l.store.Mutate(ctx, storage.PatchSet(communityID, map[string]any{
				"areaRef": models.WeakRef(areaID),
			}))
			if err != nil {
				log.Error("link community failed", zap.String("community", communityID), zap.Error(err))
				stats.Errors++
				continue
			}
			stats.Succeeded++
		}
		log.Info("linked area", zap.String("area_id", areaID), zap.Int("communities", len(resp.CommunityData)))
	}

	l.logger.Info("area links complete",
		zap.Int("linked", stats.Succeeded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors))
	return stats, nil
}
