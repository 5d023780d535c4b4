package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"homesite_sync/config"
	"homesite_sync/identity"
	"homesite_sync/models"
	"homesite_sync/scraper"
	"homesite_sync/storage"
)

const floorPlanStep = "floor-plans"

// FloorPlanService scrapes the plan pages linked from each community page.
type FloorPlanService struct {
	site    *config.SiteConfig
	fetcher scraper.Fetcher
	store   storage.DocumentStore
	archive storage.PageArchive
	logger  *zap.Logger
}

func NewFloorPlanService(site *config.SiteConfig, fetcher scraper.Fetcher, store storage.DocumentStore, archive storage.PageArchive, logger *zap.Logger) *FloorPlanService {
	return &FloorPlanService{site: site, fetcher: fetcher, store: store, archive: archive, logger: nopIfNil(logger)}
}

// Run scrapes communities matching the state and community filters.
func (s *FloorPlanService) Run(ctx context.Context, filter storage.CommunityFilter) (models.StepStats, error) {
	var stats models.StepStats

	communities, err := s.store.Communities(ctx, storage.CommunityFilter{State: filter.State, Community: filter.Community})
	if err != nil {
		return stats, fmt.Errorf("query communities: %w", err)
	}
	if len(communities) == 0 {
		s.logger.Warn("no communities match filters",
			zap.String("state", filter.State), zap.String("community", filter.Community))
		return stats, nil
	}
	s.logger.Info("found communities with page links", zap.Int("count", len(communities)))

	withPlans := 0
	for i, community := range communities {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		log := s.logger.With(zap.String("community", community.Name), zap.Int("index", i+1), zap.Int("total", len(communities)))

		page, err := s.fetcher.Fetch(ctx, community.PageLink)
		if err != nil {
			log.Error("fetch community page failed", zap.Error(err))
			stats.Errors++
			continue
		}
		links, err := scraper.FloorPlanLinks(s.site, page)
		if err != nil {
			log.Error("parse community page failed", zap.Error(err))
			archivePage(ctx, s.archive, log, floorPlanStep, community.PageLink, page)
			stats.Errors++
			continue
		}
		if len(links) == 0 {
			log.Info("no floor plans found")
			continue
		}
		withPlans++
		log.Info("found floor plan links", zap.Int("count", len(links)))

		for _, link := range links {
			stats.Processed++
			switch err := s.scrapePlan(ctx, log, community, link); {
			case err == errSkipped:
				stats.Skipped++
			case err != nil:
				log.Error("floor plan failed", zap.String("url", link), zap.Error(err))
				stats.Errors++
			default:
				stats.Succeeded++
			}
		}
	}

	s.logger.Info("floor plans complete",
		zap.Int("communities", len(communities)),
		zap.Int("with_plans", withPlans),
		zap.Int("plans", stats.Succeeded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors))
	return stats, nil
}

func (s *FloorPlanService) scrapePlan(ctx context.Context, log *zap.Logger, community models.CommunitySummary, link string) error {
	page, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		return err
	}
	plan, err := scraper.ParseFloorPlan(s.site, page, link)
	if err != nil {
		archivePage(ctx, s.archive, log, floorPlanStep, link, page)
		return err
	}
	if plan.Name == "" || plan.Slug == nil {
		log.Warn("could not parse floor plan", zap.String("url", link))
		archivePage(ctx, s.archive, log, floorPlanStep, link, page)
		return errSkipped
	}

	plan.ID = identity.FloorPlanID(community.ID, plan.Slug.Current)
	plan.CommunityRef = models.WeakRef(community.ID)
	if err := s.store.Mutate(ctx, storage.CreateOrReplace(plan)); err != nil {
		return err
	}
	log.Debug("floor plan upserted", zap.String("id", plan.ID))
	return nil
}
