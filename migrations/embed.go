// Package migrations embeds the goose SQL migrations so schema setup does not
// depend on an on-disk migrations directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
