// Package auth manages accounts, session tokens and the sign-in forms.
package auth

import (
	"errors"
)

var (
	ErrEmailInUse         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// ValidationError is an inline form error shown next to field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

const (
	msgFillAll       = "Заполните все поля"
	msgNameTooShort  = "Имя должно быть не менее 2 символов"
	msgShortPassword = "Пароль должен быть не менее 6 символов"
	msgMismatch      = "Пароли не совпадают"
	msgEmailInUse    = "Этот email уже зарегистрирован"
	msgInvalidEmail  = "Неверный формат email"
	msgBadAvatar     = "Выберите аватар из списка"
	msgBadLogin      = "Неверный email или пароль"
	msgNetwork       = "Ошибка сети. Проверьте подключение"
	msgDefault       = "Произошла ошибка. Попробуйте ещё раз"
)

// ErrUnavailable wraps failures to reach the account store.
var ErrUnavailable = errors.New("account store unavailable")

// Message returns the text shown to the user for err.
func Message(err error) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, ErrEmailInUse):
		return msgEmailInUse
	case errors.Is(err, ErrInvalidCredentials):
		return msgBadLogin
	case errors.Is(err, ErrUnavailable):
		return msgNetwork
	}
	return msgDefault
}
