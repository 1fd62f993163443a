package migrations

import "embed"

// FS contains the goose migrations of the PostgreSQL booking store.
//
//go:embed *.sql
var FS embed.FS
