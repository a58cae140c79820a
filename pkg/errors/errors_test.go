package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHttpError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"не найдено", ErrNotFound, http.StatusNotFound},
		{"обёрнутое не найдено", fmt.Errorf("поиск: %w", ErrNotFound), http.StatusNotFound},
		{"запрещено", ErrForbidden, http.StatusForbidden},
		{"конфликт", NewConflictError("занято"), http.StatusConflict},
		{"недопустимый переход", NewTransitionError("approve", "RETURNED"), http.StatusConflict},
		{"ошибка целостности", NewIntegrityError("каскад не выполнен", fmt.Errorf("обрыв")), http.StatusInternalServerError},
		{"неизвестная ошибка", fmt.Errorf("что-то пошло не так"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := ToHttpError(tt.err)
			assert.Equal(t, tt.wantCode, httpErr.Code)
		})
	}
}

func TestToHttpError_ValidationDetails(t *testing.T) {
	ve := NewValidationError()
	ve.Add("serial_number", "уже используется")
	ve.Add("category_id", "не найдена")

	httpErr := ToHttpError(ve)
	require.Equal(t, http.StatusBadRequest, httpErr.Code)

	fields, ok := httpErr.Details.(map[string][]string)
	require.True(t, ok)
	assert.Len(t, fields, 2)
}

func TestValidationError_AccumulatesPerField(t *testing.T) {
	ve := NewValidationError()
	assert.False(t, ve.HasErrors())

	ve.Add("expected_return_date", "раньше даты выдачи")
	ve.Add("expected_return_date", "превышает максимальный срок")

	assert.True(t, ve.HasErrors())
	assert.Len(t, ve.Fields["expected_return_date"], 2)
	assert.Contains(t, ve.Error(), "expected_return_date")
}

func TestTransitionError_NamesActionAndStatus(t *testing.T) {
	err := NewTransitionError("checkout", "PENDING")
	assert.Contains(t, err.Message, "checkout")
	assert.Contains(t, err.Message, "PENDING")
}
