package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenIsNotAccess     = fmt.Errorf("ожидался access-токен")
	ErrTokenIsNotRefresh    = fmt.Errorf("токен не является refresh-токеном")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrForbidden          = fmt.Errorf("доступ запрещён")

	// Контекст
	ErrUserIDNotFoundInContext = fmt.Errorf("UserID не найден в контексте запроса")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")
)

// HttpError — ошибка, которую контроллер отдаёт наружу.
// Message — то, что увидит пользователь; Err — техническая причина для логов.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details interface{}
	Context map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

// ValidationError — накопленные ошибки валидации по полям.
// Валидация НЕ останавливается на первой ошибке: форма показывает все сразу,
// поэтому собираем полный список.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add добавляет сообщение об ошибке для поля.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors сообщает, была ли хоть одна ошибка.
func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Fields[f], "; ")))
	}
	return "ошибка валидации: " + strings.Join(parts, "; ")
}

// ConflictError — нарушение гварда состояния или инварианта
// (вторая активная выдача на то же оборудование, недопустимый переход и т.д.).
type ConflictError struct {
	Message string
	Err     error
}

func (e *ConflictError) Error() string { return e.Message }
func (e *ConflictError) Unwrap() error { return e.Err }

func NewConflictError(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// NewTransitionError — частный случай конфликта: переход невозможен
// из текущего статуса. В сообщении всегда называем и статус, и переход.
func NewTransitionError(action, currentStatus string) *ConflictError {
	return &ConflictError{
		Message: fmt.Sprintf("операция '%s' недопустима для текущего статуса '%s'", action, currentStatus),
	}
}

// IntegrityError — многошаговая транзакционная операция не дошла до конца.
// К моменту возврата этой ошибки транзакция уже откатана: частичных записей нет.
type IntegrityError struct {
	Message string
	Err     error
}

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}
func (e *IntegrityError) Unwrap() error { return e.Err }

func NewIntegrityError(message string, err error) *IntegrityError {
	return &IntegrityError{Message: message, Err: err}
}

// ToHttpError переводит доменную ошибку в HTTP-представление.
// Единственное место, где решается соответствие типа ошибки и кода ответа.
func ToHttpError(err error) *HttpError {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return NewHttpError(http.StatusBadRequest, "Ошибка валидации", err, validationErr.Fields)
	}

	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		return NewHttpError(http.StatusConflict, conflictErr.Message, conflictErr.Err, nil)
	}

	var integrityErr *IntegrityError
	if errors.As(err, &integrityErr) {
		return NewHttpError(http.StatusInternalServerError, "Операция не выполнена, изменения откатаны", err, nil)
	}

	if errors.Is(err, ErrNotFound) {
		return NewHttpError(http.StatusNotFound, ErrNotFound.Error(), err, nil)
	}
	if errors.Is(err, ErrForbidden) {
		return NewHttpError(http.StatusForbidden, ErrForbidden.Error(), err, nil)
	}

	return NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
}
