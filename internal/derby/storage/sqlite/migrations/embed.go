package migrations

import "embed"

// FS contains embedded SQLite migrations for batch storage.
//
//go:embed *.sql
var FS embed.FS
