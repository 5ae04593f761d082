// Package migrations holds the PostgreSQL schema, applied in order by
// "medconnect-server migrate up".
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
