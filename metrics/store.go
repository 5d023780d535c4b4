package metrics

import (
	"context"
	"encoding/json"
	"time"

	"homesite_sync/models"
	"homesite_sync/storage"
)

// Store counts the mutations and times the queries of a DocumentStore.
type Store struct {
	next    storage.DocumentStore
	metrics *Metrics
}

func NewStore(next storage.DocumentStore, m *Metrics) *Store {
	return &Store{next: next, metrics: m}
}

func (s *Store) Mutate(ctx context.Context, mutations ...storage.Mutation) error {
	err := s.next.Mutate(ctx, mutations...)
	if err != nil {
		kind := "empty"
		if len(mutations) > 0 {
			kind, _ = describe(mutations[0])
		}
		s.metrics.MutationErrorsTotal.WithLabelValues(kind).Inc()
		return err
	}
	for _, m := range mutations {
		kind, docType := describe(m)
		s.metrics.MutationsTotal.WithLabelValues(kind, docType).Inc()
	}
	return nil
}

func (s *Store) Communities(ctx context.Context, filter storage.CommunityFilter) ([]models.CommunitySummary, error) {
	defer s.observe("communities", time.Now())
	return s.next.Communities(ctx, filter)
}

func (s *Store) FloorPlans(ctx context.Context) ([]models.FloorPlanSummary, error) {
	defer s.observe("floor_plans", time.Now())
	return s.next.FloorPlans(ctx)
}

func (s *Store) Houses(ctx context.Context, filter storage.HouseFilter) ([]models.HouseSummary, error) {
	defer s.observe("houses", time.Now())
	return s.next.Houses(ctx, filter)
}

func (s *Store) Documents(ctx context.Context, query storage.DocumentQuery) ([]models.Document, error) {
	defer s.observe("documents", time.Now())
	return s.next.Documents(ctx, query)
}

func (s *Store) observe(query string, start time.Time) {
	s.metrics.QueryDurationSeconds.WithLabelValues(query).Observe(time.Since(start).Seconds())
}

// describe returns the mutation kind and, for createOrReplace, the
// document type.
func describe(m storage.Mutation) (kind, docType string) {
	switch {
	case m.CreateOrReplace != nil:
		return "create_or_replace", documentType(m.CreateOrReplace)
	case m.Patch != nil:
		return "patch", ""
	case m.Delete != nil:
		return "delete", ""
	}
	return "empty", ""
}

func documentType(doc any) string {
	if d, ok := doc.(models.Document); ok {
		return d.Type()
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "unknown"
	}
	var head struct {
		Type string `json:"_type"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.Type == "" {
		return "unknown"
	}
	return head.Type
}
