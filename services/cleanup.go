package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"homesite_sync/models"
	"homesite_sync/storage"
)

// CleanupService removes documents wholesale. It never runs as part of a
// scheduled pipeline.
type CleanupService struct {
	store  storage.DocumentStore
	logger *zap.Logger
	DryRun bool
}

func NewCleanupService(store storage.DocumentStore, logger *zap.Logger) *CleanupService {
	return &CleanupService{store: store, logger: nopIfNil(logger)}
}

// DeleteAreas deletes every areas document, drafts included.
func (s *CleanupService) DeleteAreas(ctx context.Context) (models.StepStats, error) {
	var stats models.StepStats

	docs, err := s.store.Documents(ctx, storage.DocumentQuery{Types: []string{models.TypeArea}})
	if err != nil {
		return stats, fmt.Errorf("query areas: %w", err)
	}
	s.logger.Info("found area documents", zap.Int("count", len(docs)), zap.Bool("dry_run", s.DryRun))

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Processed++
		if s.DryRun {
			s.logger.Info("would delete", zap.String("id", doc.ID()))
			stats.Skipped++
			continue
		}
		if err := s.store.Mutate(ctx, storage.DeleteDocument(doc.ID())); err != nil {
			s.logger.Error("delete area failed", zap.String("id", doc.ID()), zap.Error(err))
			stats.Errors++
			continue
		}
		stats.Succeeded++
	}

	s.logger.Info("area cleanup complete", zap.Int("deleted", stats.Succeeded), zap.Int("errors", stats.Errors))
	return stats, nil
}
