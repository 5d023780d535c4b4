package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"homesite_sync/storage"
)

// archivePage keeps a page the parsers could not use. Archive failures are
// logged and otherwise ignored.
func archivePage(ctx context.Context, archive storage.PageArchive, logger *zap.Logger, step, pageURL string, body []byte) {
	if archive == nil {
		return
	}
	location, err := archive.Save(ctx, step, pageURL, body)
	if err != nil {
		logger.Warn("archive page failed", zap.String("url", pageURL), zap.Error(err))
		return
	}
	if location != "" {
		logger.Info("archived page", zap.String("url", pageURL), zap.String("location", location))
	}
}

// matchesFilter is a case-insensitive substring match; an empty filter
// matches everything.
func matchesFilter(filter string, values ...string) bool {
	if filter == "" {
		return true
	}
	filter = strings.ToLower(strings.TrimSpace(filter))
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), filter) {
			return true
		}
	}
	return false
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
