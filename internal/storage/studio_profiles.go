package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/studio-directory/internal/models"
)

// CreateProfile сохраняет профиль студии пользователя.
// Индекс уникальности на user_uid не допускает второго профиля.
func (s *Storage) CreateProfile(ctx context.Context, profile models.StudioProfile) (string, error) {
	const op = "storage.CreateProfile"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO studio_profiles (user_uid, name, description, status, visible)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID string
	if err := s.DB.QueryRowContext(ctx, query,
		profile.UserUID, profile.Name, profile.Description,
		profile.Status, profile.Visible).Scan(&newID); err != nil {
		return "", mapError(op, err)
	}
	return newID, nil
}

// GetProfileByUser возвращает профиль студии пользователя.
func (s *Storage) GetProfileByUser(ctx context.Context, userUID string) (*models.StudioProfile, error) {
	const op = "storage.GetProfileByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, description, status, visible, created_at
			  FROM studio_profiles
			  WHERE user_uid = $1`
	p := &models.StudioProfile{}
	row := s.DB.QueryRowContext(ctx, query, userUID)
	if err := row.Scan(&p.ID, &p.UserUID, &p.Name, &p.Description,
		&p.Status, &p.Visible, &p.CreatedAt); err != nil {
		return nil, mapError(op, err)
	}
	return p, nil
}

// SetProfileVisible открывает видимость профиля после подтверждения почты.
// Единственная точка, где видимость выдается на основании верификации.
func (s *Storage) SetProfileVisible(ctx context.Context, userUID string) error {
	const op = "storage.SetProfileVisible"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE studio_profiles
			  SET visible = TRUE
			  WHERE user_uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return mapError(op, err)
	}
	return nil
}

// ActivateProfile переводит профиль в active, если он ещё не активен.
// Отсутствие профиля — не ошибка: возвращается false.
func (s *Storage) ActivateProfile(ctx context.Context, userUID string) (bool, error) {
	const op = "storage.ActivateProfile"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE studio_profiles
			  SET status = $1
			  WHERE user_uid = $2 AND status <> $1`
	result, err := s.DB.ExecContext(ctx, query, models.ProfileStatusActive, userUID)
	if err != nil {
		return false, mapError(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}
