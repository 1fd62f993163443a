package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

var (
	ErrMigrationsNotProvided   = errors.New("pg: no migrations provided")
	ErrFailedToApplyMigrations = errors.New("pg: apply migrations")
)

// Migrate applies the goose migrations at the root of migrations. goose keeps
// its dialect and table in package state, so calls must not overlap.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, migrations fs.FS, log *slog.Logger) error {
	if migrations == nil {
		return ErrMigrationsNotProvided
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer closeDB(ctx, db, log)

	table := cfg.MigrationsTable
	if table == "" {
		table = "booking_migrations"
	}
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(gooseLogger{log})
	goose.SetTableName(table)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}

func closeDB(ctx context.Context, db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.ErrorContext(ctx, "close migration connection", slog.Any("error", err))
	}
}

// gooseLogger sends goose output to slog.
type gooseLogger struct{ log *slog.Logger }

func (g gooseLogger) Fatalf(format string, v ...any) { g.log.Error(fmt.Sprintf(format, v...)) }
func (g gooseLogger) Printf(format string, v ...any) { g.log.Info(fmt.Sprintf(format, v...)) }
