package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"homesite_sync/config"
	"homesite_sync/identity"
	"homesite_sync/models"
	"homesite_sync/scraper"
	"homesite_sync/storage"
)

const houseStep = "houses"

var errSkipped = errors.New("skipped")

// HouseService scrapes quick move-in homes linked from each community page
// and links them to already scraped floor plans by name.
type HouseService struct {
	site    *config.SiteConfig
	fetcher scraper.Fetcher
	store   storage.DocumentStore
	archive storage.PageArchive
	logger  *zap.Logger
}

func NewHouseService(site *config.SiteConfig, fetcher scraper.Fetcher, store storage.DocumentStore, archive storage.PageArchive, logger *zap.Logger) *HouseService {
	return &HouseService{site: site, fetcher: fetcher, store: store, archive: archive, logger: nopIfNil(logger)}
}

// planLookup is communityID -> SanitizeID(plan name) -> floor plan id.
type planLookup map[string]map[string]string

func (p planLookup) find(communityID, planName string) string {
	if planName == "" {
		return ""
	}
	return p[communityID][identity.SanitizeID(planName)]
}

func (s *HouseService) loadPlans(ctx context.Context) (planLookup, error) {
	plans, err := s.store.FloorPlans(ctx)
	if err != nil {
		return nil, err
	}
	lookup := make(planLookup)
	for _, p := range plans {
		cid := models.RefID(p.CommunityRef)
		if cid == "" || p.Name == "" {
			continue
		}
		if lookup[cid] == nil {
			lookup[cid] = make(map[string]string)
		}
		lookup[cid][identity.SanitizeID(p.Name)] = p.ID
	}
	return lookup, nil
}

// Run scrapes communities matching the state and area filters.
func (s *HouseService) Run(ctx context.Context, filter storage.CommunityFilter) (models.StepStats, error) {
	var stats models.StepStats

	communities, err := s.store.Communities(ctx, storage.CommunityFilter{State: filter.State, Area: filter.Area, Community: filter.Community})
	if err != nil {
		return stats, fmt.Errorf("query communities: %w", err)
	}
	if len(communities) == 0 {
		s.logger.Warn("no communities match filters",
			zap.String("state", filter.State), zap.String("area", filter.Area))
		return stats, nil
	}

	plans, err := s.loadPlans(ctx)
	if err != nil {
		return stats, fmt.Errorf("query floor plans: %w", err)
	}
	s.logger.Info("loaded floor plans", zap.Int("communities", len(plans)))

	withHouses, linked := 0, 0
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
		links, err := scraper.HouseLinks(s.site, page)
		if err != nil {
			log.Error("parse community page failed", zap.Error(err))
			archivePage(ctx, s.archive, log, houseStep, community.PageLink, page)
			stats.Errors++
			continue
		}
		if len(links) == 0 {
			log.Info("no homes found")
			continue
		}
		withHouses++
		log.Info("found home links", zap.Int("count", len(links)))

		for _, link := range links {
			stats.Processed++
			house, err := s.scrapeHouse(ctx, log, community, plans, link)
			switch {
			case err == errSkipped:
				stats.Skipped++
			case err != nil:
				log.Error("house failed", zap.String("url", link), zap.Error(err))
				stats.Errors++
			default:
				stats.Succeeded++
				if house.FloorPlanRef != nil {
					linked++
				}
			}
		}
	}

	s.logger.Info("houses complete",
		zap.Int("communities", len(communities)),
		zap.Int("with_houses", withHouses),
		zap.Int("houses", stats.Succeeded),
		zap.Int("linked_to_plan", linked),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors))
	return stats, nil
}

func (s *HouseService) scrapeHouse(ctx context.Context, log *zap.Logger, community models.CommunitySummary, plans planLookup, link string) (*models.House, error) {
	page, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	house, err := scraper.ParseHouse(s.site, page, link)
	if err != nil {
		archivePage(ctx, s.archive, log, houseStep, link, page)
		return nil, err
	}
	if identity.SanitizeID(house.Address) == "" {
		log.Warn("could not parse house", zap.String("url", link))
		archivePage(ctx, s.archive, log, houseStep, link, page)
		return nil, errSkipped
	}

	house.ID = identity.HouseID(community.ID, house.Address)
	house.CommunityRef = models.WeakRef(community.ID)
	if planID := plans.find(community.ID, house.FloorPlanName); planID != "" {
		house.FloorPlanRef = models.WeakRef(planID)
	}
	if err := s.store.Mutate(ctx, storage.CreateOrReplace(house)); err != nil {
		return nil, err
	}
	log.Debug("house upserted", zap.String("id", house.ID))
	return house, nil
}
