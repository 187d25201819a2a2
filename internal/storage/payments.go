package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/studio-directory/internal/models"
)

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	p := &models.Payment{}
	var metadata []byte
	// user_uid обнуляется при удалении просроченной учётной записи
	var userUID sql.NullString
	if err := row.Scan(&p.ID, &userUID, &p.ProviderSessionID, &p.Status,
		&p.Amount, &p.Currency, &metadata, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.UserUID = userUID.String
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// CreatePayment сохраняет платёж. provider_session_id — ключ дедупликации:
// повторная вставка той же checkout-сессии возвращает created = false
// без ошибки и без второй строки.
func (s *Storage) CreatePayment(ctx context.Context, payment models.Payment) (string, bool, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return "", false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	metadata, err := json.Marshal(payment.Metadata)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	if payment.Metadata == nil {
		metadata = []byte("{}")
	}

	query := `INSERT INTO payments (user_uid, provider_session_id, status, amount, currency, metadata)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (provider_session_id) DO NOTHING
			  RETURNING id`
	var newID string
	err = s.DB.QueryRowContext(ctx, query,
		payment.UserUID, payment.ProviderSessionID, payment.Status,
		payment.Amount, payment.Currency, metadata).Scan(&newID)
	if err != nil {
		mapped := mapError(op, err)
		if isNotFound(mapped) {
			// ON CONFLICT DO NOTHING не вернул строку: сессия уже записана
			return "", false, nil
		}
		return "", false, mapped
	}
	return newID, true, nil
}

// GetPaymentBySessionID возвращает платёж по идентификатору checkout-сессии.
func (s *Storage) GetPaymentBySessionID(ctx context.Context, providerSessionID string) (*models.Payment, error) {
	const op = "storage.GetPaymentBySessionID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, provider_session_id, status, amount, currency, metadata, created_at
			  FROM payments
			  WHERE provider_session_id = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, providerSessionID))
	if err != nil {
		return nil, mapError(op, err)
	}
	return p, nil
}

// GetSucceededPaymentByUser возвращает успешный платёж пользователя, если он есть.
func (s *Storage) GetSucceededPaymentByUser(ctx context.Context, userUID string) (*models.Payment, error) {
	const op = "storage.GetSucceededPaymentByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, provider_session_id, status, amount, currency, metadata, created_at
			  FROM payments
			  WHERE user_uid = $1 AND status = $2
			  ORDER BY created_at DESC
			  LIMIT 1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, userUID, models.PaymentStatusSucceeded))
	if err != nil {
		return nil, mapError(op, err)
	}
	return p, nil
}

// UpdatePaymentStatus обновляет статус платежа по checkout-сессии.
// Запись условна: уже финализированный платёж не перезаписывается.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, providerSessionID, status string) (bool, error) {
	const op = "storage.UpdatePaymentStatus"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET status = $1
			  WHERE provider_session_id = $2 AND status = $3`
	result, err := s.DB.ExecContext(ctx, query,
		status, providerSessionID, models.PaymentStatusPending)
	if err != nil {
		return false, mapError(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// MarkPaymentAnomaly помечает платёж маркером аномалии в метаданных.
// Платёж не отклоняется: запись нужна для аудита и внеполосного оповещения.
func (s *Storage) MarkPaymentAnomaly(ctx context.Context, paymentID, reason string) error {
	const op = "storage.MarkPaymentAnomaly"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET metadata = metadata || jsonb_build_object($1::text, $2::text)
			  WHERE id = $3`
	if _, err := s.DB.ExecContext(ctx, query, models.MetadataKeyAnomaly, reason, paymentID); err != nil {
		return mapError(op, err)
	}
	return nil
}
