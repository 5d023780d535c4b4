package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homesite_sync/scraper"
	"homesite_sync/storage"
)

const texasComms = `{
  "MetaData": {"AreaInfoData": {"Name": "texas"}},
  "CommunityData": [
    {"commName": "Oak Grove", "commPageLink": "/texas/austin/oak-grove", "commSellingStatus": "COMING_SOON", "commMinBeds": "3"},
    {"commName": "The Ridge", "commSellingStatus": "NOPE"},
    {"commName": "  "}
  ]
}`

func TestCommunityServiceRun(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{
		testBase + "/api/comms/direct/texas": texasComms,
	})
	site := testSite()
	store := storage.NewMemoryStore()
	svc := NewCommunityService(site, scraper.NewCommsClient(site, fetcher), store, testLogger(t))

	stats, err := svc.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Errors, "arizona is not served")

	state := store.Get("texas")
	require.NotNil(t, state)
	assert.Equal(t, "Texas", state.String("name"))

	oak := store.Get("texas-oak-grove")
	require.NotNil(t, oak)
	assert.Equal(t, "Coming Soon", oak.String("sellingStatus"))
	assert.Equal(t, testBase+"/texas/austin/oak-grove", oak.String("pageLink"))
	assert.Equal(t, "texas", storage.RefField(oak, "stateRef"))
	assert.Equal(t, 3.0, oak["minBeds"])

	ridge := store.Get("texas-the-ridge")
	require.NotNil(t, ridge)
	assert.Equal(t, "Now Selling", ridge.String("sellingStatus"))
	assert.Equal(t, []any{}, ridge["amenities"])
}

func TestCommunityServiceRunIsIdempotent(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{testBase + "/api/comms/direct/texas": texasComms})
	site := testSite()
	store := storage.NewMemoryStore()
	svc := NewCommunityService(site, scraper.NewCommsClient(site, fetcher), store, nil)

	_, err := svc.Run(context.Background(), []string{"texas"})
	require.NoError(t, err)
	first := store.Len()

	_, err = svc.Run(context.Background(), []string{"texas"})
	require.NoError(t, err)
	assert.Equal(t, first, store.Len())
	assert.Equal(t, 3, first)
}

func TestCommunityServiceCanceled(t *testing.T) {
	site := testSite()
	svc := NewCommunityService(site, scraper.NewCommsClient(site, newFakeFetcher(nil)), storage.NewMemoryStore(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectStates(t *testing.T) {
	states := []string{"new-mexico", "new-jersey", "texas"}
	assert.Equal(t, states, SelectStates(states, ""))
	assert.Equal(t, []string{"new-mexico"}, SelectStates(states, "New Mexico"))
	assert.Equal(t, []string{"new-mexico", "new-jersey"}, SelectStates(states, "NEW"))
	assert.Empty(t, SelectStates(states, "ohio"))
}
