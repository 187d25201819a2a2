// Package profile управляет профилем студии пользователя.
//
// Профиль можно заполнить в любой момент регистрации, но виден он становится
// после подтверждения почты, а активируется вместе с пользователем.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/studio-directory/internal/domain"
	"github.com/magabrotheeeer/studio-directory/internal/models"
	"github.com/magabrotheeeer/studio-directory/internal/storage"
)

// Repository описывает операции хранилища над профилями и пользователями.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	CreateProfile(ctx context.Context, profile models.StudioProfile) (string, error)
	GetProfileByUser(ctx context.Context, userUID string) (*models.StudioProfile, error)
}

// Service — операции над профилем студии.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create заполняет профиль студии пользователя. Видимость и статус профиля
// наследуют состояние учётной записи: у подтверждённого пользователя профиль
// сразу видим, у активного — сразу активен.
func (s *Service) Create(ctx context.Context, userUID, name, description string) (*models.StudioProfile, error) {
	const op = "profile.Create"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Status == models.UserStatusExpired {
		return nil, domain.ErrReservationExpired
	}

	status := models.ProfileStatusPending
	if user.Status == models.UserStatusActive {
		status = models.ProfileStatusActive
	}
	profile := models.StudioProfile{
		UserUID:     user.UID,
		Name:        name,
		Description: description,
		Status:      status,
		Visible:     user.EmailVerified,
	}

	newID, err := s.repo.CreateProfile(ctx, profile)
	if err != nil {
		if errors.Is(err, storage.ErrUniqueViolation) {
			return nil, domain.ErrProfileExists
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	profile.ID = newID
	return &profile, nil
}

// Get возвращает профиль студии пользователя.
func (s *Service) Get(ctx context.Context, userUID string) (*models.StudioProfile, error) {
	const op = "profile.Get"

	profile, err := s.repo.GetProfileByUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return profile, nil
}
