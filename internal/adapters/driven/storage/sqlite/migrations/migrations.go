// Package migrations embeds the SQL schema migrations for the SQLite
// store. Files follow the NNN_name.up.sql convention and run in order.
package migrations

import "embed"

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS
