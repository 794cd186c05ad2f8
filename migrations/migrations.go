// Package migrations embeds the goose SQL migrations applied at startup.
package migrations

import "embed"

// FS holds the versioned *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
