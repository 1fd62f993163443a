package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/flamingonails/bookings/pkg/pg"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsNotFoundError(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(nil))
	assert.False(t, pg.IsCheckViolationError(nil))

	dup := &pgconn.PgError{Code: "23505"}
	assert.True(t, pg.IsDuplicateKeyError(fmt.Errorf("insert: %w", dup)))
	assert.False(t, pg.IsDuplicateKeyError(errors.New("other")))

	assert.True(t, pg.IsForeignKeyError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, pg.IsForeignKeyError(dup))
	assert.True(t, pg.IsCheckViolationError(&pgconn.PgError{Code: "23514"}))
}

func TestConnectRequiresConnectionString(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(t.Context(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)
}

func TestMigrateRequiresMigrations(t *testing.T) {
	t.Parallel()

	err := pg.Migrate(t.Context(), nil, pg.Config{}, nil, nil)
	assert.ErrorIs(t, err, pg.ErrMigrationsNotProvided)
}
