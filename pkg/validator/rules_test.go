package validator_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	require.NoError(t, validator.Apply(
		validator.RequiredString("customer_name", "Ploy"),
		validator.ValidContact("customer_contact", "+66 81 234 5678"),
	))

	err := validator.Apply(
		validator.RequiredString("customer_name", "  "),
		validator.ValidContact("customer_contact", "not-a-contact"),
		validator.MaxLenString("customer_contact", "not-a-contact", 5),
	)
	require.Error(t, err)
	assert.True(t, validator.IsValidation(err))

	ve := validator.Extract(fmt.Errorf("intake: %w", err))
	require.Len(t, ve, 3)
	assert.Equal(t, []string{"customer_name", "customer_contact"}, ve.Fields())
	assert.Len(t, ve.Map()["customer_contact"], 2)
	assert.Contains(t, ve.Error(), "customer_name: field is required")
	assert.Equal(t, "validation.required", ve[0].Code)
}

func TestContactRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		email bool
		phone bool
	}{
		{"ploy@example.com", true, false},
		{"Ploy <ploy@example.com>", false, false},
		{"ploy@localhost", false, false},
		{"+66812345678", false, true},
		{"081-234-5678", false, true},
		{"(02) 555 0100", false, true},
		{"12345", false, false},
		{"66812345678", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.email, validator.IsEmail(tt.value), "email")
			assert.Equal(t, tt.phone, validator.IsPhone(tt.value), "phone")
		})
	}
	assert.Equal(t, "+66812345678", validator.NormalizePhone(" +66 81-234-5678 "))
}

func TestOneOfAndWhen(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validator.Apply(validator.OneOfString("partition", "active", []string{"active", "archived"})))
	assert.Error(t, validator.Apply(validator.OneOfString("partition", "trash", []string{"active", "archived"})))

	assert.NoError(t, validator.Apply(validator.When(false, validator.RequiredString("new_time", ""))))
	assert.Error(t, validator.Apply(validator.When(true, validator.RequiredString("new_time", ""))))
}
