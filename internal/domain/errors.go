// Package domain описывает общую таксономию ошибок сервиса.
//
// Каждая ошибка несёт машинно-читаемый код причины, по которому обработчики
// выбирают HTTP-статус, а клиенты и тесты ветвятся без разбора текста.
package domain

import "errors"

// Code — машинно-читаемая категория ошибки.
type Code string

const (
	// CodeValidation — некорректные входные данные, исправляет клиент.
	CodeValidation Code = "validation_error"
	// CodeConflict — состояние уже занято другой сущностью.
	CodeConflict Code = "conflict"
	// CodeExpired — токен или бронь просрочены.
	CodeExpired Code = "expired"
	// CodeNotFound — токен или пользователь не найдены.
	CodeNotFound Code = "not_found"
	// CodeDependency — отказ внешней зависимости (БД, SMTP, очередь).
	CodeDependency Code = "dependency_failure"
)

// Error — доменная ошибка с кодом причины и детальной причиной для клиента.
type Error struct {
	Code    Code
	Reason  string
	Message string
}

func (e *Error) Error() string { return e.Message }

// New создает доменную ошибку.
func New(code Code, reason, message string) *Error {
	return &Error{Code: code, Reason: reason, Message: message}
}

// Набор ошибок состояния регистрации и активации.
var (
	ErrUserExists         = New(CodeConflict, "user_exists", "user with this email already exists")
	ErrUsernameTaken      = New(CodeConflict, "username_taken", "username is already taken")
	ErrUsernameReserved   = New(CodeValidation, "username_reserved", "username is reserved by the system")
	ErrReservationExpired = New(CodeExpired, "reservation_expired", "signup reservation has expired, register again")
	ErrUserNotFound       = New(CodeNotFound, "user_not_found", "user not found")
	ErrAlreadyActive      = New(CodeConflict, "already_active", "user is already active")
	ErrUserStateInvalid   = New(CodeConflict, "user_state_invalid", "reservation expired after payment, manual intervention required")
	ErrUserNotPending     = New(CodeConflict, "user_not_pending", "user is not in pending signup state")
	ErrInvalidToken       = New(CodeNotFound, "invalid_token", "token is invalid or already used")
	ErrTokenExpired       = New(CodeExpired, "token_expired", "token has expired")
	ErrAlreadyVerified    = New(CodeConflict, "already_verified", "email is already verified")
	ErrEmailNotVerified   = New(CodeConflict, "email_not_verified", "email is not verified")
	ErrPaymentNotFound    = New(CodeNotFound, "payment_not_found", "payment not found")
	ErrPaymentNotSucceeded = New(CodeConflict, "payment_not_succeeded", "payment has not succeeded")
	ErrProfileExists      = New(CodeConflict, "profile_exists", "studio profile already exists")
	ErrProfileNotFound    = New(CodeNotFound, "profile_not_found", "studio profile not found")
	ErrInvalidCredentials = New(CodeNotFound, "invalid_credentials", "invalid email or password")
)

// Validation создает ошибку валидации по конкретному полю.
func Validation(reason, message string) *Error {
	return New(CodeValidation, reason, message)
}

// CodeOf извлекает код причины из цепочки ошибок.
// Для недоменных ошибок возвращает CodeDependency.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeDependency
}

// ReasonOf извлекает машинную причину из цепочки ошибок.
func ReasonOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return string(CodeDependency)
}
