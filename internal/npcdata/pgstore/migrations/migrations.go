// Package migrations embeds the goose migrations of the snapshot store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
