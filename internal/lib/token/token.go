// Package token генерирует одноразовые токены и временные имена пользователей.
//
// Токены подтверждения почты и сброса пароля — случайные hex-строки,
// пригодные для передачи в URL. Временное имя пользователя выдается при
// создании учётной записи и заменяется на шаге выбора username.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// PlaceholderPrefix — префикс автоматически сгенерированного имени пользователя.
const PlaceholderPrefix = "temp_"

var placeholderPattern = regexp.MustCompile(`^temp_[0-9a-f]{12}$`)

// New возвращает случайный hex-токен длиной 2*n символов.
func New(n int) (string, error) {
	const op = "token.New"
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hex.EncodeToString(buf), nil
}

// NewVerification возвращает токен для подтверждения почты или сброса пароля.
func NewVerification() (string, error) {
	return New(32)
}

// NewPlaceholderUsername возвращает временное имя пользователя вида temp_a1b2c3d4e5f6.
func NewPlaceholderUsername() (string, error) {
	const op = "token.NewPlaceholderUsername"
	suffix, err := New(6)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return PlaceholderPrefix + suffix, nil
}

// IsPlaceholderUsername сообщает, является ли имя автоматически сгенерированным.
// Единственная точка определения: шаг возобновления регистрации и проверка
// статуса используют именно её.
func IsPlaceholderUsername(username string) bool {
	return placeholderPattern.MatchString(strings.ToLower(username))
}
