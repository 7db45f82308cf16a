// Package migrations embeds the migration scripts, one directory per SQL dialect.
package migrations

import "embed"

// FS is the embedded filesystem holding the sqlite and postgres migration directories.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
