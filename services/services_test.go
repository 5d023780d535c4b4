package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"homesite_sync/config"
	"homesite_sync/models"
	"homesite_sync/scraper"
	"homesite_sync/storage"
)

const testBase = "https://example.test"

// fakeFetcher serves canned pages by URL and 404s everything else.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if body, ok := f.pages[url]; ok {
		return []byte(body), nil
	}
	return nil, &scraper.StatusError{URL: url, StatusCode: 404}
}

type savedPage struct {
	step, url string
}

type fakeArchive struct {
	mu    sync.Mutex
	saved []savedPage
}

func (a *fakeArchive) Save(ctx context.Context, step, pageURL string, body []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, savedPage{step: step, url: pageURL})
	return "mem://" + pageURL, nil
}

func testSite() *config.SiteConfig {
	return &config.SiteConfig{
		ID:      "test",
		BaseURL: testBase,
		APIPath: "/api/comms/direct",
		States:  []string{"texas", "arizona"},
		Statuses: map[string]string{
			"NOW_SELLING": "Now Selling",
			"COMING_SOON": "Coming Soon",
		},
		DefaultStatus: "Now Selling",
		Brands:        config.DefaultSite().Brands,
	}
}

func seed(t *testing.T, store *storage.MemoryStore, docs ...any) {
	t.Helper()
	var mutations []storage.Mutation
	for _, d := range docs {
		mutations = append(mutations, storage.CreateOrReplace(d))
	}
	require.NoError(t, store.Mutate(context.Background(), mutations...))
}

func seedOakGrove(t *testing.T, store *storage.MemoryStore) {
	seed(t, store,
		&models.State{ID: "texas", Type: models.TypeState, Name: "Texas"},
		&models.Area{ID: "area-texasaustin", Type: models.TypeArea, Name: "Austin"},
		&models.Community{ID: "texas-oak-grove", Type: models.TypeCommunity, Name: "Oak Grove",
			PageLink: testBase + "/texas/austin/oak-grove", StateRef: models.WeakRef("texas"),
			AreaRef: models.WeakRef("area-texasaustin"), Amenities: []string{}},
	)
}

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}
