package repository

import (
	"context"
	"strings"

	"github.com/set-night/leadbot/internal/domain"
)

// Open returns the transcript store at location. A postgres:// or
// postgresql:// URL selects PostgreSQL; anything else is a SQLite file path.
func Open(ctx context.Context, location string) (domain.TranscriptStore, error) {
	if IsPostgresURL(location) {
		return OpenPostgres(ctx, location)
	}
	return OpenSQLite(ctx, location)
}

func IsPostgresURL(location string) bool {
	l := strings.ToLower(strings.TrimSpace(location))
	return strings.HasPrefix(l, "postgres://") || strings.HasPrefix(l, "postgresql://")
}
