// Package pgmigrations embeds the Postgres schema migrations.
package pgmigrations

import "embed"

//go:embed *.sql
var FS embed.FS
