// Package migrations embeds the goose SQL migrations shared by the sqlite
// and postgres stores.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
