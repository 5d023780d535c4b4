package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"homesite_sync/models"
)

// MemoryStore is an in-process DocumentStore with the same filter
// semantics as the remote stores. Tests and local development use it.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]models.Document
	// Log records every applied mutation batch in order.
	Log [][]Mutation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]models.Document)}
}

func (s *MemoryStore) Mutate(ctx context.Context, mutations ...Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]models.Document, len(s.docs))
	for id, doc := range s.docs {
		next[id] = doc
	}

	for _, m := range mutations {
		switch {
		case m.CreateOrReplace != nil:
			doc, err := toDocument(m.CreateOrReplace)
			if err != nil {
				return err
			}
			next[doc.ID()] = doc
		case m.Patch != nil:
			existing, ok := next[m.Patch.ID]
			if !ok {
				return fmt.Errorf("patch %s: %w", m.Patch.ID, ErrNotFound)
			}
			patched := make(models.Document, len(existing)+len(m.Patch.Set))
			for k, v := range existing {
				patched[k] = v
			}
			for k, v := range m.Patch.Set {
				generic, err := toGeneric(v)
				if err != nil {
					return err
				}
				patched[k] = generic
			}
			next[m.Patch.ID] = patched
		case m.Delete != nil:
			delete(next, m.Delete.ID)
		default:
			return fmt.Errorf("empty mutation")
		}
	}

	s.docs = next
	s.Log = append(s.Log, mutations)
	return nil
}

// Get returns a stored document or nil.
func (s *MemoryStore) Get(id string) models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[id]
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *MemoryStore) Communities(ctx context.Context, filter CommunityFilter) ([]models.CommunitySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := strings.ToLower(filter.State)
	area := strings.ToLower(filter.Area)
	community := strings.ToLower(filter.Community)

	var out []models.CommunitySummary
	for _, doc := range s.sorted() {
		if doc.Type() != models.TypeCommunity || doc.String("pageLink") == "" {
			continue
		}
		c := models.CommunitySummary{
			ID:       doc.ID(),
			Name:     doc.String("name"),
			PageLink: doc.String("pageLink"),
		}
		if st, ok := s.docs[RefField(doc, "stateRef")]; ok {
			c.StateID = st.ID()
			c.StateName = st.String("name")
		}
		if ar, ok := s.docs[RefField(doc, "areaRef")]; ok {
			c.AreaName = ar.String("name")
		}

		if state != "" && !strings.HasPrefix(strings.ToLower(c.StateName), state) &&
			!strings.HasPrefix(strings.ToLower(c.StateID), state) {
			continue
		}
		if area != "" && !strings.HasPrefix(strings.ToLower(c.AreaName), area) {
			continue
		}
		if community != "" && !strings.Contains(strings.ToLower(c.Name), community) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *MemoryStore) FloorPlans(ctx context.Context) ([]models.FloorPlanSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.FloorPlanSummary
	for _, doc := range s.sorted() {
		if doc.Type() != models.TypeFloorPlan {
			continue
		}
		p := models.FloorPlanSummary{ID: doc.ID(), Name: doc.String("name")}
		if ref := RefField(doc, "communityRef"); ref != "" {
			p.CommunityRef = models.WeakRef(ref)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) Houses(ctx context.Context, filter HouseFilter) ([]models.HouseSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.HouseSummary
	for _, doc := range s.sorted() {
		if doc.Type() != models.TypeHouse {
			continue
		}
		_, hasPlanRef := doc["floorPlanRef"]
		if filter.UnlinkedOnly && (doc.String("floorPlanName") == "" || hasPlanRef) {
			continue
		}
		h := models.HouseSummary{
			ID:            doc.ID(),
			Address:       doc.String("address"),
			FloorPlanName: doc.String("floorPlanName"),
		}
		if ref := RefField(doc, "communityRef"); ref != "" {
			h.CommunityRef = models.WeakRef(ref)
		}
		if ref := RefField(doc, "floorPlanRef"); ref != "" {
			h.FloorPlanRef = models.WeakRef(ref)
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *MemoryStore) Documents(ctx context.Context, query DocumentQuery) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make(map[string]bool, len(query.Types))
	for _, t := range query.Types {
		types[t] = true
	}

	var out []models.Document
	for _, doc := range s.sorted() {
		if len(types) > 0 && !types[doc.Type()] {
			continue
		}
		if query.DraftsOnly && !strings.HasPrefix(doc.ID(), "drafts.") {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *MemoryStore) sorted() []models.Document {
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.docs[id])
	}
	return out
}

// RefField reads the _ref of a reference-valued field of a raw document.
func RefField(doc models.Document, field string) string {
	ref, ok := doc[field].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := ref["_ref"].(string)
	return id
}

func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
