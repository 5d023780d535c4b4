package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homesite_sync/config"
	"homesite_sync/models"
)

func newTestSanity(t *testing.T, handler http.HandlerFunc) *SanityStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := NewSanityStore(config.SanityConfig{
		ProjectID:  "proj",
		Dataset:    "production",
		Token:      "secret",
		APIVersion: "2021-10-21",
		BaseURL:    srv.URL,
		MaxRetries: 3,
	}, srv.Client(), nil)
	store.retry.BaseDelay = time.Millisecond
	return store
}

func TestSanityStore_Mutate(t *testing.T) {
	var got map[string]any
	store := newTestSanity(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2021-10-21/data/mutate/production", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("returnIds"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"transactionId":"x","results":[]}`))
	})

	state := &models.State{ID: "texas", Type: models.TypeState, Name: "Texas", Slug: models.NewSlug("texas")}
	err := store.Mutate(context.Background(),
		CreateOrReplace(state),
		PatchSet("texas-oak-grove", map[string]any{"areaRef": models.WeakRef("area-texasaustin")}),
		DeleteDocument("area-old"),
	)
	require.NoError(t, err)

	mutations := got["mutations"].([]any)
	require.Len(t, mutations, 3)
	assert.NotEmpty(t, got["transactionId"])

	created := mutations[0].(map[string]any)["createOrReplace"].(map[string]any)
	assert.Equal(t, "texas", created["_id"])
	assert.Equal(t, "state", created["_type"])

	patch := mutations[1].(map[string]any)["patch"].(map[string]any)
	assert.Equal(t, "texas-oak-grove", patch["id"])
	ref := patch["set"].(map[string]any)["areaRef"].(map[string]any)
	assert.Equal(t, true, ref["_weak"])

	del := mutations[2].(map[string]any)["delete"].(map[string]any)
	assert.Equal(t, "area-old", del["id"])
}

func TestSanityStore_MutateError(t *testing.T) {
	store := newTestSanity(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad id"}`))
	})

	err := store.Mutate(context.Background(), DeleteDocument("x"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "bad id")
}

func TestSanityStore_RetriesThrottling(t *testing.T) {
	var calls int32
	store := newTestSanity(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	})

	require.NoError(t, store.Mutate(context.Background(), DeleteDocument("x")))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestSanityStore_CommunitiesBindsParams(t *testing.T) {
	store := newTestSanity(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2021-10-21/data/query/production", r.URL.Path)
		q := r.URL.Query()
		assert.Contains(t, q.Get("query"), `_type == "community"`)
		assert.Equal(t, `"texas*"`, q.Get("$statePattern"))
		assert.Equal(t, `"*oak*"`, q.Get("$communityPattern"))
		assert.Equal(t, `""`, q.Get("$area"))

		w.Write([]byte(`{"result":[{"_id":"texas-oak-grove","name":"Oak Grove","pageLink":"https://www.drhorton.com/texas/austin/oak-grove","stateName":"Texas","stateId":"texas","areaName":null}]}`))
	})

	got, err := store.Communities(context.Background(), CommunityFilter{State: "Texas", Community: "Oak"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "texas-oak-grove", got[0].ID)
	assert.Equal(t, "Texas", got[0].StateName)
	assert.Empty(t, got[0].AreaName)
}

func TestSanityStore_DocumentsFilters(t *testing.T) {
	store := newTestSanity(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Contains(t, q.Get("query"), "_type in $types")
		assert.Contains(t, q.Get("query"), `path("drafts.**")`)
		assert.Equal(t, `["community","house"]`, q.Get("$types"))
		w.Write([]byte(`{"result":[{"_id":"drafts.texas-oak-grove","_type":"community"}]}`))
	})

	docs, err := store.Documents(context.Background(), DocumentQuery{Types: []string{"community", "house"}, DraftsOnly: true})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "drafts.texas-oak-grove", docs[0].ID())
}

func TestSanityStore_NullResult(t *testing.T) {
	store := newTestSanity(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":null}`))
	})

	plans, err := store.FloorPlans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, plans)
}
