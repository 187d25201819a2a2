// Package auth отвечает за вход пользователя и выдачу JWT.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/studio-directory/internal/domain"
	"github.com/magabrotheeeer/studio-directory/internal/lib/jwt"
	"github.com/magabrotheeeer/studio-directory/internal/lib/password"
	"github.com/magabrotheeeer/studio-directory/internal/lib/sl"
	"github.com/magabrotheeeer/studio-directory/internal/models"
	"github.com/magabrotheeeer/studio-directory/internal/storage"
)

// UserReader читает пользователей для аутентификации.
type UserReader interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service — сервис аутентификации.
type Service struct {
	users UserReader
	maker jwt.Maker
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(users UserReader, maker jwt.Maker, log *slog.Logger) *Service {
	return &Service{users: users, maker: maker, log: log}
}

// LoginResult — результат успешного входа.
type LoginResult struct {
	Token    string `json:"token"`
	UserUID  string `json:"user_uid"`
	Username string `json:"username"`
	Status   string `json:"status"`
}

// Login проверяет пару email/пароль и выдает JWT. Просроченная учётная
// запись войти не может; текст ошибки не раскрывает, что именно не совпало.
func (s *Service) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, pass); err != nil {
		s.log.Info("login rejected", slog.String("email", email))
		return nil, domain.ErrInvalidCredentials
	}
	if user.Status == models.UserStatusExpired {
		return nil, domain.ErrReservationExpired
	}

	token, err := s.maker.GenerateToken(user.UID, user.Username)
	if err != nil {
		s.log.Error("failed to generate token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &LoginResult{
		Token:    token,
		UserUID:  user.UID,
		Username: user.Username,
		Status:   user.Status,
	}, nil
}
