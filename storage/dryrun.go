package storage

import (
	"context"

	"go.uber.org/zap"
)

// DryRunStore reads through to the wrapped store and logs mutations
// instead of sending them.
type DryRunStore struct {
	DocumentStore
	logger *zap.Logger
}

func NewDryRunStore(next DocumentStore, logger *zap.Logger) *DryRunStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRunStore{DocumentStore: next, logger: logger}
}

func (s *DryRunStore) Mutate(ctx context.Context, mutations ...Mutation) error {
	for _, m := range mutations {
		switch {
		case m.CreateOrReplace != nil:
			doc, err := toDocument(m.CreateOrReplace)
			if err != nil {
				return err
			}
			s.logger.Info("dry run: createOrReplace", zap.String("id", doc.ID()), zap.String("type", doc.Type()))
		case m.Patch != nil:
			fields := make([]string, 0, len(m.Patch.Set))
			for k := range m.Patch.Set {
				fields = append(fields, k)
			}
			s.logger.Info("dry run: patch", zap.String("id", m.Patch.ID), zap.Strings("fields", fields))
		case m.Delete != nil:
			s.logger.Info("dry run: delete", zap.String("id", m.Delete.ID))
		}
	}
	return nil
}
