// Package pg opens a pgx pool from PG_* settings, runs embedded goose
// migrations against it and maps PostgreSQL error codes to predicates such
// as IsDuplicateKeyError.
package pg
