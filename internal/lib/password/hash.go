// Package password реализует хеширование, проверку и политику сложности паролей.
//
// GetHash создает bcrypt-хеш пароля для безопасного хранения.
// CompareHash сравнивает сохранённый bcrypt-хеш с введённым паролем.
// ValidateStrength проверяет пароль на соответствие политике сложности.
package password

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/studio-directory/internal/domain"
)

// MinLength — минимальная длина пароля по политике регистрации.
const MinLength = 8

// GetHash принимает пароль пользователя и возвращает его bcrypt-хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt-хэш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хэшу, иначе — ошибку.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ValidateStrength проверяет пароль на политику сложности: длина не меньше
// MinLength, строчная и заглавная буквы, цифра и спецсимвол.
func ValidateStrength(password string) error {
	if len(password) < MinLength {
		return domain.Validation("weak_password",
			fmt.Sprintf("password must be at least %d characters long", MinLength))
	}
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit || !hasSpecial {
		return domain.Validation("weak_password",
			"password must contain lowercase, uppercase, digit and special characters")
	}
	return nil
}
