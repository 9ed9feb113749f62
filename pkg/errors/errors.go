package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")

	// Контекст
	ErrUserIDNotFoundInContext = fmt.Errorf("UserID не найден в контексте запроса")
	ErrInvalidUserID           = fmt.Errorf("недопустимый UserID")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")

	// Бизнес-ошибки жизненного цикла устройств.
	// ErrStateConflict — нарушение инварианта или таблицы переходов:
	// повторная выдача, неверный статус ремонта, неликвидируемое устройство и т.д.
	ErrStateConflict = fmt.Errorf("конфликт состояния: операция недопустима в текущем статусе")

	ErrDeviceNotFound     = fmt.Errorf("устройство не найдено")
	ErrAssignmentNotFound = fmt.Errorf("запись о выдаче не найдена")
	ErrIncidentNotFound   = fmt.Errorf("заявка о неисправности не найдена")
	ErrRepairNotFound     = fmt.Errorf("заказ на ремонт не найден")
	ErrUserNotFound       = fmt.Errorf("пользователь не найден")
)

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// HttpError — ошибка с HTTP-кодом и сообщением для клиента.
// Err и Context — служебные поля для логирования, наружу не отдаются.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Context map[string]interface{}
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, context map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: context}
}

// CodeForError переводит бизнес-ошибку в HTTP-статус.
// Неизвестные ошибки считаются сбоем транзакции/хранилища и отдаются как 500
// с обобщённым сообщением (детали остаются в логах).
func CodeForError(err error) int {
	var invalidInput *InvalidInputError
	switch {
	case errors.As(err, &invalidInput), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired), errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrEmptyAuthHeader), errors.Is(err, ErrInvalidAuthHeader):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDeviceNotFound),
		errors.Is(err, ErrAssignmentNotFound), errors.Is(err, ErrIncidentNotFound),
		errors.Is(err, ErrRepairNotFound), errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStateConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
