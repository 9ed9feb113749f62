package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"некорректный ввод", NewInvalidInputError("плохое поле"), http.StatusBadRequest},
		{"неавторизован", ErrUnauthorized, http.StatusUnauthorized},
		{"неверные учётные данные", ErrInvalidCredentials, http.StatusUnauthorized},
		{"доступ запрещён", ErrForbidden, http.StatusForbidden},
		{"не найдено", ErrNotFound, http.StatusNotFound},
		{"устройство не найдено", ErrDeviceNotFound, http.StatusNotFound},
		{"конфликт состояния", ErrStateConflict, http.StatusConflict},
		{"обёрнутый конфликт", fmt.Errorf("списание: %w", ErrStateConflict), http.StatusConflict},
		{"неизвестная ошибка", fmt.Errorf("обрыв соединения"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, CodeForError(tc.err))
		})
	}
}

func TestHttpError_Unwrap(t *testing.T) {
	inner := ErrStateConflict
	httpErr := NewHttpError(http.StatusConflict, "конфликт", inner, nil)
	assert.ErrorIs(t, httpErr, ErrStateConflict)
	assert.Contains(t, httpErr.Error(), "конфликт")
}
