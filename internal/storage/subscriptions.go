package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/studio-directory/internal/models"
)

// GetActiveSubscription возвращает активную подписку пользователя.
func (s *Storage) GetActiveSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetActiveSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, status, period_start, period_end
			  FROM subscriptions
			  WHERE user_uid = $1 AND status = $2
			  LIMIT 1`
	sub := &models.Subscription{}
	row := s.DB.QueryRowContext(ctx, query, userUID, models.SubscriptionStatusActive)
	if err := row.Scan(&sub.ID, &sub.UserUID, &sub.Status,
		&sub.PeriodStart, &sub.PeriodEnd); err != nil {
		return nil, mapError(op, err)
	}
	return sub, nil
}

// EnsureActiveSubscription создает активную подписку, если её ещё нет.
// Частичный индекс уникальности на (user_uid) WHERE status = 'active'
// гарантирует не больше одной активной подписки даже при конкурентных
// попытках активации; проигравшая вставка превращается в no-op.
// Возвращает true, если подписка создана этим вызовом.
func (s *Storage) EnsureActiveSubscription(ctx context.Context, userUID string, periodStart, periodEnd time.Time) (bool, error) {
	const op = "storage.EnsureActiveSubscription"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_uid, status, period_start, period_end)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (user_uid) WHERE status = 'active' DO NOTHING`
	result, err := s.DB.ExecContext(ctx, query,
		userUID, models.SubscriptionStatusActive, periodStart, periodEnd)
	if err != nil {
		return false, mapError(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}
