package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSiteConfig_Bundled(t *testing.T) {
	site, err := LoadSiteConfig(filepath.Join("sites", "drhorton.yaml"))
	require.NoError(t, err)

	def := DefaultSite()
	assert.Equal(t, def.ID, site.ID)
	assert.Equal(t, def.BaseURL, site.BaseURL)
	assert.Equal(t, def.States, site.States)
	assert.Equal(t, def.Statuses, site.Statuses)
	assert.Equal(t, def.Brands, site.Brands)
}

func TestLoadSiteConfig_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mini.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: mini\nbase_url: https://example.com\n"), 0644))

	site, err := LoadSiteConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/api/comms/direct", site.APIPath)
	assert.Equal(t, "Now Selling", site.DefaultStatus)
}

func TestLoadSiteConfig_MissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: nothing\n"), 0644))

	_, err := LoadSiteConfig(path)
	assert.Error(t, err)
}

func TestSiteConfig_URLs(t *testing.T) {
	site := DefaultSite()
	assert.Equal(t, "https://www.drhorton.com/api/comms/direct/texas", site.APIURL("texas"))
	assert.Equal(t, "https://www.drhorton.com/api/comms/direct/texas/austin", site.APIURL("/texas/austin"))
	assert.Equal(t, "https://www.drhorton.com/texas/austin", site.Absolute("/texas/austin"))
	assert.Equal(t, "https://cdn.example.com/a.jpg", site.Absolute("https://cdn.example.com/a.jpg"))
	assert.Equal(t, "", site.Absolute(""))
}

func TestSiteConfig_Status(t *testing.T) {
	site := DefaultSite()
	assert.Equal(t, "Coming Soon", site.Status("COMING_SOON"))
	assert.Equal(t, "Now Selling", site.Status("SOMETHING_NEW"))
	assert.Equal(t, "Now Selling", site.Status(""))
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SANITY_PROJECT_ID", "abc123")
	t.Setenv("SANITY_DATASET", "staging")
	t.Setenv("SANITY_API_TOKEN", "tok")
	t.Setenv("SCRAPE_DELAY_MS", "250")
	t.Setenv("SCRAPE_INTERVAL", "6h")
	t.Setenv("SITES_DIR", "sites")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.Sanity.ProjectID)
	assert.Equal(t, "staging", cfg.Sanity.Dataset)
	assert.Equal(t, 250, cfg.Scraper.DelayMS)
	assert.Equal(t, "6h0m0s", cfg.Scheduler.Interval.String())
	assert.NoError(t, cfg.Validate())

	site, err := cfg.Site()
	require.NoError(t, err)
	assert.Equal(t, "drhorton", site.ID)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Backend: BackendSanity, Scraper: ScraperConfig{Fetcher: FetcherHTTP}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SANITY_PROJECT_ID")

	cfg = &Config{Backend: BackendPostgres, DatabaseURL: "postgres://x", Scraper: ScraperConfig{Fetcher: FetcherBrowser}}
	assert.NoError(t, cfg.Validate())

	cfg = &Config{Backend: "mongo", Scraper: ScraperConfig{Fetcher: FetcherHTTP}}
	assert.Error(t, cfg.Validate())
}

func TestSite_Unknown(t *testing.T) {
	cfg := &Config{SiteID: "lennar", Sites: map[string]*SiteConfig{}}
	_, err := cfg.Site()
	assert.Error(t, err)

	cfg.SiteID = "drhorton"
	site, err := cfg.Site()
	require.NoError(t, err)
	assert.Equal(t, "D.R. Horton", site.Name)
}
