package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"homesite_sync/identity"
)

// PageArchive keeps raw pages the parsers could not make sense of, so the
// selectors can be fixed against the real markup later.
type PageArchive interface {
	Save(ctx context.Context, step, pageURL string, body []byte) (string, error)
}

type NopArchive struct{}

func (NopArchive) Save(context.Context, string, string, []byte) (string, error) {
	return "", nil
}

// DirArchive writes pages under a local directory.
type DirArchive struct {
	root string
}

func NewDirArchive(root string) (*DirArchive, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &DirArchive{root: root}, nil
}

func (a *DirArchive) Save(ctx context.Context, step, pageURL string, body []byte) (string, error) {
	key := archiveKey(step, pageURL, time.Now())
	path := filepath.Join(a.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}
	return path, nil
}

// archiveKey is {step}/{yyyymmdd}/{sanitized-url}.html
func archiveKey(step, pageURL string, at time.Time) string {
	name := pageURL
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}
	name = identity.SanitizeID(strings.ReplaceAll(name, "/", " "))
	if name == "" {
		name = "page"
	}
	return fmt.Sprintf("%s/%s/%s.html", step, at.Format("20060102"), name)
}
