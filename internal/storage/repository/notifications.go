package repository

import (
	"context"

	"github.com/magabrotheeeer/school-crm/internal/models"
)

// UpsertDeviceToken регистрирует токен устройства за пользователем.
func (s *Storage) UpsertDeviceToken(ctx context.Context, userID *int64, token string) (*models.DeviceToken, error) {
	const op = "storage.UpsertDeviceToken"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	dt := &models.DeviceToken{}
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO device_tokens (user_id, token) VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT device_tokens_token_key DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, token, created_at`, userID, token,
	).Scan(&dt.ID, &dt.UserID, &dt.Token, &dt.CreatedAt)
	if err != nil {
		return nil, wrap(op, err)
	}
	return dt, nil
}

// CreateNotification сохраняет уведомление.
func (s *Storage) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	const op = "storage.CreateNotification"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	created := *n
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO notifications (title, body, type) VALUES ($1, $2, $3)
		RETURNING id, created_at`, n.Title, n.Body, n.Type,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &created, nil
}
