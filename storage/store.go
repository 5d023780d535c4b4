package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"homesite_sync/models"
)

var ErrNotFound = errors.New("document not found")

// DocumentStore is the CMS the pipeline writes into.
type DocumentStore interface {
	// Mutate applies all mutations in one atomic transaction.
	Mutate(ctx context.Context, mutations ...Mutation) error
	Communities(ctx context.Context, filter CommunityFilter) ([]models.CommunitySummary, error)
	FloorPlans(ctx context.Context) ([]models.FloorPlanSummary, error)
	Houses(ctx context.Context, filter HouseFilter) ([]models.HouseSummary, error)
	Documents(ctx context.Context, query DocumentQuery) ([]models.Document, error)
}

// CommunityFilter narrows communities that have a page link. State and Area
// are case-insensitive prefix matches on the referenced name (State also
// matches the state id); Community is a case-insensitive substring match.
type CommunityFilter struct {
	State     string
	Area      string
	Community string
}

type HouseFilter struct {
	// UnlinkedOnly keeps houses with a floorPlanName but no floorPlanRef.
	UnlinkedOnly bool
}

type DocumentQuery struct {
	Types      []string
	DraftsOnly bool
}

type Mutation struct {
	CreateOrReplace any     `json:"createOrReplace,omitempty"`
	Patch           *Patch  `json:"patch,omitempty"`
	Delete          *Delete `json:"delete,omitempty"`
}

type Patch struct {
	ID  string         `json:"id"`
	Set map[string]any `json:"set,omitempty"`
}

type Delete struct {
	ID string `json:"id"`
}

func CreateOrReplace(doc any) Mutation {
	return Mutation{CreateOrReplace: doc}
}

func PatchSet(id string, set map[string]any) Mutation {
	return Mutation{Patch: &Patch{ID: id, Set: set}}
}

func DeleteDocument(id string) Mutation {
	return Mutation{Delete: &Delete{ID: id}}
}

// toDocument flattens a typed document into its CMS JSON form.
func toDocument(doc any) (models.Document, error) {
	if d, ok := doc.(models.Document); ok {
		return d, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var out models.Document
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	if out.ID() == "" || out.Type() == "" {
		return nil, fmt.Errorf("document missing _id or _type")
	}
	return out, nil
}
