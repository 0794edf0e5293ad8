package leadbot

import "embed"

// MigrationsFS holds the transcript schema, one subdirectory per backend.
//
//go:embed migrations
var MigrationsFS embed.FS
