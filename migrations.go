package gembot

import "embed"

// MigrationsFS holds the SQL migrations for every supported database dialect.
//
//go:embed migrations
var MigrationsFS embed.FS
