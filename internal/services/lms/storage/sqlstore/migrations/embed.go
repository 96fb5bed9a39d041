// Package migrations embeds the per-dialect LMS schema.
package migrations

import "embed"

// FS holds one directory of migrations per dialect: sqlite, mysql, postgres.
//
//go:embed sqlite/*.sql mysql/*.sql postgres/*.sql
var FS embed.FS
