package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"homesite_sync/config"
	"homesite_sync/models"
	"homesite_sync/scraper"
	"homesite_sync/storage"
)

// CommunityService writes every state and its communities from the comms
// endpoint.
type CommunityService struct {
	site   *config.SiteConfig
	comms  *scraper.CommsClient
	store  storage.DocumentStore
	logger *zap.Logger
}

func NewCommunityService(site *config.SiteConfig, comms *scraper.CommsClient, store storage.DocumentStore, logger *zap.Logger) *CommunityService {
	return &CommunityService{site: site, comms: comms, store: store, logger: nopIfNil(logger)}
}

// SelectStates narrows the configured state slugs by a partial,
// case-insensitive match. "New Mexico" matches "new-mexico".
func SelectStates(states []string, filter string) []string {
	if filter == "" {
		return states
	}
	needle := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(filter)), " ", "-")
	var out []string
	for _, s := range states {
		if strings.Contains(s, needle) {
			out = append(out, s)
		}
	}
	return out
}

// Run upserts the given states, or every configured state when none are
// given.
func (s *CommunityService) Run(ctx context.Context, states []string) (models.StepStats, error) {
	var stats models.StepStats
	if len(states) == 0 {
		states = s.site.States
	}

	for i, state := range states {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		log := s.logger.With(zap.String("state", state), zap.Int("index", i+1), zap.Int("total", len(states)))

		resp, err := s.comms.State(ctx, state)
		if err != nil {
			log.Error("fetch state failed", zap.Error(err))
			stats.Errors++
			continue
		}

		stateDoc := scraper.StateDocument(state, resp)
		if err := s.store.Mutate(ctx, storage.CreateOrReplace(stateDoc)); err != nil {
			log.Error("upsert state failed", zap.Error(err))
			stats.Errors++
			continue
		}
		log.Info("state upserted", zap.String("name", stateDoc.Name), zap.Int("communities", len(resp.CommunityData)))

		for _, comm := range resp.CommunityData {
			stats.Processed++
			if strings.TrimSpace(comm.Name) == "" {
				stats.Skipped++
				continue
			}
			doc := scraper.CommunityDocument(s.site, state, comm)
			if err := s.store.Mutate(ctx, storage.CreateOrReplace(doc)); err != nil {
				log.Error("upsert community failed", zap.String("id", doc.ID), zap.Error(err))
				stats.Errors++
				continue
			}
			log.Debug("community upserted", zap.String("id", doc.ID))
			stats.Succeeded++
		}
	}

	s.logger.Info("communities complete",
		zap.Int("states", len(states)),
		zap.Int("communities", stats.Succeeded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors))
	return stats, nil
}
