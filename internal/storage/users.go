package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/studio-directory/internal/models"
)

const userColumns = `uid, email, username, display_name, password_hash, status,
			      email_verified, verification_token, verification_token_expiry,
			      reset_token, reset_token_expiry, reservation_expires_at,
			      created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var verificationToken, resetToken sql.NullString
	var verificationExpiry, resetExpiry sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.DisplayName, &u.PasswordHash,
		&u.Status, &u.EmailVerified, &verificationToken, &verificationExpiry,
		&resetToken, &resetExpiry, &u.ReservationExpiresAt,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if verificationToken.Valid {
		u.VerificationToken = &verificationToken.String
	}
	if verificationExpiry.Valid {
		u.VerificationTokenExpiry = &verificationExpiry.Time
	}
	if resetToken.Valid {
		u.ResetToken = &resetToken.String
	}
	if resetExpiry.Valid {
		u.ResetTokenExpiry = &resetExpiry.Time
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его UID.
// Нарушение уникальности email или username возвращается как ErrUniqueViolation.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, username, display_name, password_hash, status,
			      email_verified, verification_token, verification_token_expiry,
			      reservation_expires_at)
			  VALUES (LOWER($1), $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.DisplayName, user.PasswordHash, user.Status,
		user.EmailVerified, user.VerificationToken, user.VerificationTokenExpiry,
		user.ReservationExpiresAt).Scan(&newUID); err != nil {
		return "", mapError(op, err)
	}
	return newUID, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE LOWER(email) = LOWER($1)`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetUserByVerificationToken возвращает пользователя по токену подтверждения почты.
func (s *Storage) GetUserByVerificationToken(ctx context.Context, verificationToken string) (*models.User, error) {
	const op = "storage.GetUserByVerificationToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE verification_token = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, verificationToken))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetUserByResetToken возвращает пользователя по токену сброса пароля.
func (s *Storage) GetUserByResetToken(ctx context.Context, resetToken string) (*models.User, error) {
	const op = "storage.GetUserByResetToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE reset_token = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, resetToken))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// MarkUserExpired переводит pending-пользователя в expired.
// Возвращает true, если переход выполнен этим вызовом.
func (s *Storage) MarkUserExpired(ctx context.Context, userUID string) (bool, error) {
	const op = "storage.MarkUserExpired"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET status = $1, updated_at = NOW()
			  WHERE uid = $2 AND status = $3`
	result, err := s.DB.ExecContext(ctx, query,
		models.UserStatusExpired, userUID, models.UserStatusPending)
	if err != nil {
		return false, mapError(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// DeleteExpiredUser удаляет просроченную учётную запись, освобождая email и username.
func (s *Storage) DeleteExpiredUser(ctx context.Context, userUID string) error {
	const op = "storage.DeleteExpiredUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM users WHERE uid = $1 AND status = $2`
	if _, err := s.DB.ExecContext(ctx, query, userUID, models.UserStatusExpired); err != nil {
		return mapError(op, err)
	}
	return nil
}

// ClaimUsername атомарно заменяет временное имя на выбранное.
//
// Сначала освобождается имя, удерживаемое чужой просроченной pending-бронью,
// затем выполняется условная запись: строка должна оставаться pending и
// непросроченной. При конкуренции за одно имя ровно один вызов вернет true,
// остальные — ErrUniqueViolation.
func (s *Storage) ClaimUsername(ctx context.Context, userUID, username string) (bool, error) {
	const op = "storage.ClaimUsername"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	reclaim := `UPDATE users
			  SET status = $1, updated_at = NOW()
			  WHERE LOWER(username) = LOWER($2)
			      AND status = $3
			      AND reservation_expires_at < NOW()`
	if _, err := s.DB.ExecContext(ctx, reclaim,
		models.UserStatusExpired, username, models.UserStatusPending); err != nil {
		return false, mapError(op, err)
	}

	claim := `UPDATE users
			  SET username = $1, updated_at = NOW()
			  WHERE uid = $2
			      AND status = $3
			      AND reservation_expires_at > NOW()`
	result, err := s.DB.ExecContext(ctx, claim,
		username, userUID, models.UserStatusPending)
	if err != nil {
		return false, mapError(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// MarkEmailVerified подтверждает почту. Токен подтверждения остаётся до
// собственного срока: повторное открытие той же ссылки находит пользователя
// и отвечает already_verified. email_verified монотонно false -> true.
func (s *Storage) MarkEmailVerified(ctx context.Context, userUID string) error {
	const op = "storage.MarkEmailVerified"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET email_verified = TRUE,
			      updated_at = NOW()
			  WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return mapError(op, err)
	}
	return nil
}

// RotateVerificationToken выписывает свежий токен подтверждения, гася старый.
func (s *Storage) RotateVerificationToken(ctx context.Context, userUID, verificationToken string, expiry time.Time) error {
	const op = "storage.RotateVerificationToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET verification_token = $1,
			      verification_token_expiry = $2,
			      updated_at = NOW()
			  WHERE uid = $3 AND email_verified = FALSE`
	if _, err := s.DB.ExecContext(ctx, query, verificationToken, expiry, userUID); err != nil {
		return mapError(op, err)
	}
	return nil
}

// SetResetToken выписывает токен сброса пароля.
func (s *Storage) SetResetToken(ctx context.Context, userUID, resetToken string, expiry time.Time) error {
	const op = "storage.SetResetToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET reset_token = $1,
			      reset_token_expiry = $2,
			      updated_at = NOW()
			  WHERE uid = $3`
	if _, err := s.DB.ExecContext(ctx, query, resetToken, expiry, userUID); err != nil {
		return mapError(op, err)
	}
	return nil
}

// UpdatePasswordByResetToken записывает новый хэш пароля и гасит токен сброса.
// Запись условна по самому токену: повторное использование погашенного
// токена вернет false.
func (s *Storage) UpdatePasswordByResetToken(ctx context.Context, resetToken, passwordHash string) (bool, error) {
	const op = "storage.UpdatePasswordByResetToken"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET password_hash = $1,
			      reset_token = NULL,
			      reset_token_expiry = NULL,
			      updated_at = NOW()
			  WHERE reset_token = $2`
	result, err := s.DB.ExecContext(ctx, query, passwordHash, resetToken)
	if err != nil {
		return false, mapError(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// ActivateUser переводит подтверждённого pending-пользователя в active.
// Условие email_verified = TRUE дублирует проверку бизнес-слоя: платёж
// никогда не активирует неподтверждённую учётную запись.
// Возвращает true, если переход выполнен этим вызовом; для уже активного
// пользователя возвращает false без ошибки.
func (s *Storage) ActivateUser(ctx context.Context, userUID string) (bool, error) {
	const op = "storage.ActivateUser"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET status = $1, updated_at = NOW()
			  WHERE uid = $2
			      AND status = $3
			      AND email_verified = TRUE`
	result, err := s.DB.ExecContext(ctx, query,
		models.UserStatusActive, userUID, models.UserStatusPending)
	if err != nil {
		return false, mapError(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}
