package mongo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flamingonails/bookings/pkg/mongo"
)

func TestNewRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := mongo.New(context.Background(), mongo.Config{})
	assert.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
}
