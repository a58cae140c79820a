package customvalidator

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serialPayload struct {
	SerialNumber string `validate:"serial_number"`
}

type datePayload struct {
	Date time.Time `validate:"date_not_past"`
}

func newTestValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, RegisterCustomValidations(v))
	return v
}

func TestSerialNumberValidation(t *testing.T) {
	v := newTestValidator(t)

	valid := []string{"RGL-0001", "A12", "X-999-Y", "0serial"}
	for _, s := range valid {
		assert.NoError(t, v.Struct(serialPayload{SerialNumber: s}), s)
	}

	invalid := []string{"", "ab", "-starts-with-dash", "кириллица-123", "has space"}
	for _, s := range invalid {
		assert.Error(t, v.Struct(serialPayload{SerialNumber: s}), s)
	}
}

func TestDateNotPast(t *testing.T) {
	v := newTestValidator(t)

	assert.NoError(t, v.Struct(datePayload{Date: time.Now()}), "сегодня — не прошлое")
	assert.NoError(t, v.Struct(datePayload{Date: time.Now().AddDate(0, 0, 7)}))
	assert.Error(t, v.Struct(datePayload{Date: time.Now().AddDate(0, 0, -2)}))
}
