// Package migrations embeds the SQL schema migrations for the catalog
// service.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
