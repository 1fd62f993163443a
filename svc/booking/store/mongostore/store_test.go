package mongostore_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/pkg/mongo"
	"github.com/flamingonails/bookings/svc/booking"
	"github.com/flamingonails/bookings/svc/booking/store/mongostore"
	"github.com/flamingonails/bookings/svc/booking/store/storetest"
)

// Set BOOKINGS_TEST_MONGO_URL to run these tests. Every subtest uses its own
// database, dropped on cleanup.
func TestStore(t *testing.T) {
	url := os.Getenv("BOOKINGS_TEST_MONGO_URL")
	if url == "" {
		t.Skip("BOOKINGS_TEST_MONGO_URL not set")
	}

	client, err := mongo.New(t.Context(), mongo.Config{ConnectionURL: url, MaxPoolSize: 20, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	storetest.Run(t, func(t *testing.T) booking.Store {
		name := "bookings_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		db := client.Database(name)
		t.Cleanup(func() { _ = db.Drop(context.Background()) })

		s := mongostore.New(db)
		require.NoError(t, s.EnsureIndexes(t.Context()))
		require.NoError(t, s.Healthcheck(t.Context()))
		return s
	})
}
