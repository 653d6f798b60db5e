// Package migrations embeds the schema migration SQL applied to the metadata store.
package migrations

import "embed"

// FS holds the embedded migration files, organized per driver directory.
//
//go:embed sqlite/*.sql
var FS embed.FS
