package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homesite_sync/config"
)

func TestArchiveKey(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	key := archiveKey("houses", "https://www.drhorton.com/texas/austin/qmis/123-main-st", at)
	assert.Equal(t, "houses/20240501/wwwdrhortoncom-texas-austin-qmis-123-main-st.html", key)
	assert.Equal(t, "areas/20240501/page.html", archiveKey("areas", "", at))
}

func TestDirArchive_Save(t *testing.T) {
	archive, err := NewDirArchive(t.TempDir())
	require.NoError(t, err)

	path, err := archive.Save(context.Background(), "floor-plans", "https://example.com/plan", []byte("<html></html>"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestNewArchive_Selection(t *testing.T) {
	ctx := context.Background()

	a, err := NewArchive(ctx, config.ArchiveConfig{})
	require.NoError(t, err)
	assert.IsType(t, NopArchive{}, a)

	a, err = NewArchive(ctx, config.ArchiveConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &DirArchive{}, a)
}

func TestS3Archive_PublicURL(t *testing.T) {
	a := &S3Archive{cfg: config.S3Config{Bucket: "pages", Region: "us-east-1"}}
	assert.Equal(t, "https://pages.s3.us-east-1.amazonaws.com/k.html", a.PublicURL("k.html"))

	a.cfg.Endpoint = "https://nyc3.digitaloceanspaces.com"
	assert.Equal(t, "https://pages.nyc3.digitaloceanspaces.com/k.html", a.PublicURL("k.html"))
}
