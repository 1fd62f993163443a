package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/pkg/environment"
	"github.com/flamingonails/bookings/pkg/logger"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf))
	log.Debug("hidden")
	assert.Zero(t, buf.Len())

	log.Info("booking created", logger.BookingID("bk-1"))
	entry := decodeLine(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "bk-1", entry["booking_id"])
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("production logs json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger.New(
			logger.WithEnvironment(environment.Production, "bookingd"),
			logger.WithOutput(&buf),
		).Info("ready")

		entry := decodeLine(t, &buf)
		assert.Equal(t, "bookingd", entry["service"])
		assert.Equal(t, "production", entry["env"])
	})

	t.Run("development logs text at debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger.New(
			logger.WithEnvironment(environment.Development, "bookingd"),
			logger.WithOutput(&buf),
		).Debug("tick")

		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "env=development")
	})

	t.Run("later options win", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger.New(
			logger.WithEnvironment(environment.Development, ""),
			logger.WithFormat(logger.FormatJSON),
			logger.WithLevel(slog.LevelWarn),
			logger.WithOutput(&buf),
		).Info("dropped")
		assert.Zero(t, buf.Len())
	})
}

func TestWithFormat_Panics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { logger.WithFormat("xml") })
}

type actorKey struct{}

func TestWithContextExtractors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	actor := func(ctx context.Context) (slog.Attr, bool) {
		v, ok := ctx.Value(actorKey{}).(string)
		return logger.Actor(v), ok
	}
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("region", "blr")),
		logger.WithContextExtractors(nil, actor),
	).With(logger.Component("engine"))

	ctx := context.WithValue(context.Background(), actorKey{}, "staff-1")
	log.InfoContext(ctx, "transition")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "staff-1", entry["actor"])
	assert.Equal(t, "blr", entry["region"])
	assert.Equal(t, "engine", entry["component"])

	buf.Reset()
	log.WithGroup("g").InfoContext(context.Background(), "no actor")
	assert.NotContains(t, buf.String(), "staff-1")
}
