package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homesite_sync/models"
	"homesite_sync/storage"
)

func plan(id, name, community string) *models.FloorPlan {
	return &models.FloorPlan{ID: id, Type: models.TypeFloorPlan, Name: name, CommunityRef: models.WeakRef(community)}
}

func house(id, planName, community string) *models.House {
	return &models.House{ID: id, Type: models.TypeHouse, Address: id, FloorPlanName: planName,
		Status: models.HouseAvailable, CommunityRef: models.WeakRef(community)}
}

func TestLinkFloorPlansToCommunities(t *testing.T) {
	store := storage.NewMemoryStore()
	seedOakGrove(t, store)
	seed(t, store,
		plan("texas-oak-grove-plan-a", "A", "texas-oak-grove"),
		plan("texas-oak-grove-plan-b", "B", "texas-oak-grove"),
		plan("texas-gone-plan-c", "C", "texas-gone"),
		&models.FloorPlan{ID: "orphan", Type: models.TypeFloorPlan, Name: "Orphan"},
	)

	stats, err := NewLinker(store, testLogger(t)).LinkFloorPlansToCommunities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StepStats{Processed: 2, Succeeded: 1, Errors: 1}, stats)

	refs := store.Get("texas-oak-grove")["floorPlans"].([]any)
	require.Len(t, refs, 2)
	first := refs[0].(map[string]any)
	assert.Equal(t, "texas-oak-grove-plan-a", first["_ref"])
	assert.Equal(t, "texasoakgroveplana", first["_key"])
	assert.Equal(t, "reference", first["_type"])
	assert.Equal(t, true, first["_weak"])
}

func TestLinkHousesToCommunities(t *testing.T) {
	store := storage.NewMemoryStore()
	seedOakGrove(t, store)
	seed(t, store,
		house("texas-oak-grove-house-1", "", "texas-oak-grove"),
		house("texas-oak-grove-house-2", "A", "texas-oak-grove"),
	)

	stats, err := NewLinker(store, nil).LinkHousesToCommunities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)

	refs := store.Get("texas-oak-grove")["houses"].([]any)
	assert.Len(t, refs, 2)
}

func TestLinkHousesToFloorPlans(t *testing.T) {
	store := storage.NewMemoryStore()
	seed(t, store,
		plan("p-baker", "Baker", "oak"),
		plan("p-aria", "The  Aria", "oak"),
		plan("p-cedar-baker", "Baker", "cedar"),
		house("h1", "The Baker", "oak"),
		house("h2", "aria", "oak"),
		house("h3", "Cypress", "oak"),
		house("h4", "Cypress", "oak"),
		house("h5", "", "oak"),
	)
	already := house("h6", "Baker", "oak")
	already.FloorPlanRef = models.WeakRef("p-baker")
	seed(t, store, already)

	stats, err := NewLinker(store, testLogger(t)).LinkHousesToFloorPlans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Processed)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, []string{"Cypress (community: oak)"}, stats.Unmatched)

	assert.Equal(t, "p-baker", storage.RefField(store.Get("h1"), "floorPlanRef"))
	assert.Equal(t, "p-aria", storage.RefField(store.Get("h2"), "floorPlanRef"))
	assert.Equal(t, "", storage.RefField(store.Get("h3"), "floorPlanRef"))
}

func TestLinkHousesToFloorPlansCapsUnmatched(t *testing.T) {
	store := storage.NewMemoryStore()
	for i := 0; i < 30; i++ {
		seed(t, store, house(fmt.Sprintf("h%02d", i), fmt.Sprintf("Plan %d", i), "oak"))
	}

	stats, err := NewLinker(store, nil).LinkHousesToFloorPlans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, stats.Skipped)
	assert.Len(t, stats.Unmatched, maxUnmatchedReported)
}
