package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sungwon/erasure-bridge/internal/logger"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// CacheInvalidator drops cached catalog data after an admin write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// invalidateCatalog is a no-op when inv is nil. Failures are logged; entries
// still expire on their TTL.
func invalidateCatalog(ctx context.Context, inv CacheInvalidator) {
	if inv == nil {
		return
	}
	if err := inv.Invalidate(ctx); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("failed to invalidate catalog cache")
	}
}

// listLimit reads the limit query parameter, clamped to [1, maxListLimit].
func listLimit(r *http.Request) int32 {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return int32(n)
}

// maskSecret keeps the last four characters of s.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
