package store

import "embed"

// MigrationFiles embeds the golang-migrate schema migrations for every
// supported driver, keyed by driver name under migrations/<driver>/.
//
//go:embed all:migrations
var MigrationFiles embed.FS
