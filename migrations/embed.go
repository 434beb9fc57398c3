// Package migrations embeds the SQL schema files applied at startup.
// Files are named NNNN_description.sql and run in lexical order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
