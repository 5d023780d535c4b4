package scraper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"homesite_sync/config"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func testSite() *config.SiteConfig {
	return config.DefaultSite()
}
