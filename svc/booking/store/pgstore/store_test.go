package pgstore_test

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/pkg/pg"
	"github.com/flamingonails/bookings/svc/booking"
	"github.com/flamingonails/bookings/svc/booking/store/pgstore"
	"github.com/flamingonails/bookings/svc/booking/store/storetest"
)

// Set BOOKINGS_TEST_PG_URL to a disposable database to run these tests.
// The bookings table is truncated before every subtest.
func TestStore(t *testing.T) {
	url := os.Getenv("BOOKINGS_TEST_PG_URL")
	if url == "" {
		t.Skip("BOOKINGS_TEST_PG_URL not set")
	}

	ctx := t.Context()
	cfg := pg.Config{ConnectionString: url, MaxOpenConns: 10, MaxIdleConns: 1, RetryAttempts: 1}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pgstore.Migrate(ctx, pool, cfg, slog.New(slog.DiscardHandler)))

	storetest.Run(t, func(t *testing.T) booking.Store {
		_, err := pool.Exec(t.Context(), `TRUNCATE bookings`)
		require.NoError(t, err)
		s := pgstore.New(pool)
		require.NoError(t, s.Healthcheck(t.Context()))
		return s
	})
}
