package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homesite_sync/models"
	"homesite_sync/storage"
)

const oakStPage = `<html><body>
<div class="qmiAddressOne">Home for sale at 123 Oak St</div>
<div class="home-price"><div>$324,990</div></div>
<a class="floorplan-link" href="/floor-plans/baker"><span>The Baker</span></a>
</body></html>`

const elmAvePage = `<html><body>
<div class="qmiAddressOne">456 Elm Ave</div>
<a class="floorplan-link" href="/floor-plans/aria"><span>Aria</span></a>
</body></html>`

func housePages() map[string]string {
	return map[string]string{
		testBase + "/texas/austin/oak-grove":                  oakGrovePage,
		testBase + "/texas/austin/oak-grove/qmis/123-oak-st":  oakStPage,
		testBase + "/texas/austin/oak-grove/qmis/456-elm-ave": elmAvePage,
		testBase + "/texas/austin/oak-grove/qmis/":            `<html><body></body></html>`,
	}
}

func TestHouseServiceRun(t *testing.T) {
	store := storage.NewMemoryStore()
	seedOakGrove(t, store)
	seed(t, store, &models.FloorPlan{ID: "texas-oak-grove-plan-the-baker", Type: models.TypeFloorPlan,
		Name: "The Baker", CommunityRef: models.WeakRef("texas-oak-grove")})
	archive := &fakeArchive{}
	svc := NewHouseService(testSite(), newFakeFetcher(housePages()), store, archive, testLogger(t))

	stats, err := svc.Run(context.Background(), storage.CommunityFilter{Area: "austin"})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Errors)

	oak := store.Get("texas-oak-grove-house-123-oak-st")
	require.NotNil(t, oak)
	assert.Equal(t, "123 Oak St", oak.String("address"))
	assert.Equal(t, "texas-oak-grove", storage.RefField(oak, "communityRef"))
	assert.Equal(t, "texas-oak-grove-plan-the-baker", storage.RefField(oak, "floorPlanRef"))
	assert.Equal(t, models.HouseAvailable, oak.String("status"))

	elm := store.Get("texas-oak-grove-house-456-elm-ave")
	require.NotNil(t, elm)
	assert.Equal(t, "Aria", elm.String("floorPlanName"))
	_, linked := elm["floorPlanRef"]
	assert.False(t, linked)

	require.Len(t, archive.saved, 1)
	assert.Equal(t, houseStep, archive.saved[0].step)
}

func TestHouseServiceAreaFilterExcludes(t *testing.T) {
	store := storage.NewMemoryStore()
	seedOakGrove(t, store)
	fetcher := newFakeFetcher(housePages())
	svc := NewHouseService(testSite(), fetcher, store, nil, nil)

	stats, err := svc.Run(context.Background(), storage.CommunityFilter{Area: "dallas"})
	require.NoError(t, err)
	assert.Zero(t, stats.Processed)
	assert.Empty(t, fetcher.calls)
}

func TestPlanLookup(t *testing.T) {
	lookup := planLookup{"c1": {"the-baker": "p1"}}
	assert.Equal(t, "p1", lookup.find("c1", "The Baker"))
	assert.Equal(t, "", lookup.find("c2", "The Baker"))
	assert.Equal(t, "", lookup.find("c1", ""))
}
