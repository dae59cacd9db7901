package repository

import (
	"context"
	"time"

	"github.com/magabrotheeeer/school-crm/internal/models"
)

// ReplaceOTP удаляет прежние коды пользователя и сохраняет новый.
func (s *Storage) ReplaceOTP(ctx context.Context, userID int64, code string) (*models.OTP, error) {
	const op = "storage.ReplaceOTP"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	otp := &models.OTP{UserID: userID, Code: code}
	err := s.inTx(ctx, func(tx *Storage) error {
		if _, err := tx.q.ExecContext(ctx, `DELETE FROM otps WHERE user_id = $1`, userID); err != nil {
			return err
		}
		return tx.q.QueryRowContext(ctx,
			`INSERT INTO otps (user_id, code) VALUES ($1, $2) RETURNING id, created_at`,
			userID, code).Scan(&otp.ID, &otp.CreatedAt)
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return otp, nil
}

// GetOTPByCode возвращает код подтверждения.
func (s *Storage) GetOTPByCode(ctx context.Context, code string) (*models.OTP, error) {
	const op = "storage.GetOTPByCode"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var otp models.OTP
	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, code, created_at FROM otps WHERE code = $1`, code,
	).Scan(&otp.ID, &otp.UserID, &otp.Code, &otp.CreatedAt)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &otp, nil
}

// DeleteOTP удаляет код по ID.
func (s *Storage) DeleteOTP(ctx context.Context, id int64) error {
	const op = "storage.DeleteOTP"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	if _, err := s.q.ExecContext(ctx, `DELETE FROM otps WHERE id = $1`, id); err != nil {
		return wrap(op, err)
	}
	return nil
}

// PurgeOTPs удаляет коды, созданные раньше before, и возвращает их число.
func (s *Storage) PurgeOTPs(ctx context.Context, before time.Time) (int64, error) {
	const op = "storage.PurgeOTPs"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.q.ExecContext(ctx, `DELETE FROM otps WHERE created_at < $1`, before)
	if err != nil {
		return 0, wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap(op, err)
	}
	return n, nil
}
