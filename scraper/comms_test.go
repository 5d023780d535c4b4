package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homesite_sync/config"
	"homesite_sync/models"
)

func TestParseComms(t *testing.T) {
	resp, err := ParseComms(loadFixture(t, "comms_texas.json"))
	require.NoError(t, err)

	info := resp.MetaData.AreaInfoData
	require.NotNil(t, info)
	assert.Equal(t, "texas", info.Name)
	assert.True(t, info.Latitude.Valid)
	assert.Equal(t, 30.26, info.Latitude.Value)
	assert.Equal(t, -97.74, info.Longitude.Value)
	assert.False(t, info.ZoomLevel.Valid)
	require.Len(t, resp.CommunityData, 2)
}

func TestParseCommsRejectsGarbage(t *testing.T) {
	_, err := ParseComms([]byte("<html>blocked</html>"))
	assert.Error(t, err)
}

func TestStateDocument(t *testing.T) {
	resp, err := ParseComms(loadFixture(t, "comms_texas.json"))
	require.NoError(t, err)

	state := StateDocument("texas", resp)
	assert.Equal(t, "texas", state.ID)
	assert.Equal(t, models.TypeState, state.Type)
	assert.Equal(t, "Texas", state.Name)
	assert.Equal(t, "texas", state.Slug.Current)

	bare := StateDocument("new-mexico", &CommsResponse{})
	assert.Equal(t, "New-mexico", bare.Name)
}

func TestCommunityDocument(t *testing.T) {
	resp, err := ParseComms(loadFixture(t, "comms_texas.json"))
	require.NoError(t, err)
	site := testSite()

	oak := CommunityDocument(site, "texas", resp.CommunityData[0])
	assert.Equal(t, "texas-oak-grove", oak.ID)
	assert.Equal(t, models.TypeCommunity, oak.Type)
	assert.Equal(t, "texas", oak.StateRef.Ref)
	assert.True(t, oak.StateRef.Weak)
	assert.Equal(t, "https://www.drhorton.com/texas/austin/oak-grove", oak.PageLink)
	assert.Equal(t, "https://www.drhorton.com/-/media/oak-grove.jpg", oak.ImageLink)
	assert.Equal(t, "Coming Soon", oak.SellingStatus)
	assert.Equal(t, 12.0, *oak.AvailableHomes)
	assert.Equal(t, 3.5, *oak.MaxBaths)
	assert.Equal(t, 299990.0, *oak.MinPrice)
	assert.Nil(t, oak.MaxPrice)
	assert.False(t, oak.CallForPrice)
	assert.Equal(t, []string{"Pool", "Park"}, oak.Amenities)
	assert.Equal(t, "Single family", oak.PropertyType)

	ridge := CommunityDocument(site, "texas", resp.CommunityData[1])
	assert.Equal(t, "texas-the-ridge", ridge.ID)
	assert.Equal(t, "Now Selling", ridge.SellingStatus)
	assert.True(t, ridge.CallForPrice)
	assert.NotNil(t, ridge.Amenities)
	assert.Empty(t, ridge.Amenities)
	assert.Empty(t, ridge.PageLink)
}

func TestAreaDocument(t *testing.T) {
	resp, err := ParseComms(loadFixture(t, "comms_texas.json"))
	require.NoError(t, err)

	area := AreaDocument("/texas/austin", resp)
	require.NotNil(t, area)
	assert.Equal(t, "area-texasaustin", area.ID)
	assert.Equal(t, models.TypeArea, area.Type)
	assert.Equal(t, "texas", area.StateRef.Ref)
	assert.Equal(t, "Home > Texas", area.Breadcrumb)
	assert.Equal(t, "object", area.Location.Type)
	assert.Equal(t, 30.26, *area.Location.Latitude)
	assert.Nil(t, area.Location.ZoomLevel)
	require.NotNil(t, area.RteData)
	assert.Equal(t, "None", area.RteData.Status)
	assert.Equal(t, "3 days", area.RteData.CountDown)

	resp.MetaData.RteData = nil
	assert.Nil(t, AreaDocument("/texas/austin", resp).RteData)

	assert.Nil(t, AreaDocument("/texas/austin", &CommsResponse{}))
}

func TestParseAreaLinks(t *testing.T) {
	links, err := ParseAreaLinks(loadFixture(t, "homepage.html"))
	require.NoError(t, err)
	assert.Equal(t, []AreaLink{
		{Href: "/texas/austin", Name: "Austin"},
		{Href: "/texas/dallas", Name: "Dallas"},
	}, links)
}

func TestCommsClient(t *testing.T) {
	comms := loadFixture(t, "comms_texas.json")
	home := loadFixture(t, "homepage.html")

	var mu sync.Mutex
	var agents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.UserAgent())
		mu.Unlock()
		switch r.URL.Path {
		case "/":
			w.Write(home)
		case "/api/comms/direct/texas", "/api/comms/direct/texas/austin":
			w.Header().Set("Content-Type", "application/json")
			w.Write(comms)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	site := &config.SiteConfig{BaseURL: server.URL, APIPath: "/api/comms/direct"}
	client := NewCommsClient(site, NewHTTPFetcher(server.Client(), "homesite-test", 0))
	ctx := context.Background()

	state, err := client.State(ctx, "texas")
	require.NoError(t, err)
	assert.Len(t, state.CommunityData, 2)

	area, err := client.Area(ctx, "/texas/austin")
	require.NoError(t, err)
	assert.NotNil(t, area.MetaData.AreaInfoData)

	links, err := client.AreaLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	_, err = client.State(ctx, "atlantis")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	mu.Lock()
	defer mu.Unlock()
	for _, ua := range agents {
		assert.Equal(t, "homesite-test", ua)
	}
}
