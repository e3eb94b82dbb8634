// Package migrations embeds the goose SQL migrations shared by every service.
package migrations

import "embed"

// FS holds the versioned *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
