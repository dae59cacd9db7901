// Package services ставит уведомления в очередь доставки и регистрирует
// push‑устройства.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/school-crm/internal/metrics"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

// PushSentMessage — ответ на отправку тестового push.
const PushSentMessage = "Push notification sent"

// Тестовое push‑уведомление.
const (
	pushTitle = "Hello"
	pushBody  = "Privet"
	pushType  = "go"
)

// Publisher публикует сообщение в обменник уведомлений.
type Publisher interface {
	Publish(routingKey, messageID string, message any) error
}

// Repository хранит токены устройств и отправленные уведомления.
type Repository interface {
	UpsertDeviceToken(ctx context.Context, userID *int64, token string) (*models.DeviceToken, error)
	CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error)
}

// Service публикует сообщения в очередь доставки.
type Service struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
}

// New создаёт сервис уведомлений.
func New(repo Repository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, log: log}
}

// Queue присваивает сообщению ID и публикует его с ключом канала.
func (s *Service) Queue(ctx context.Context, msg models.Message) error {
	const op = "services.notification.Queue"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if err := s.publisher.Publish(string(msg.Channel), msg.ID, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.NotificationsQueued.WithLabelValues(string(msg.Channel)).Inc()
	s.log.Debug("message queued", slog.String("id", msg.ID), slog.String("channel", string(msg.Channel)))
	return nil
}

// SendPush регистрирует токен устройства пользователя, сохраняет
// уведомление и ставит его в очередь push.
func (s *Service) SendPush(ctx context.Context, userID int64, registrationID string) (string, error) {
	const op = "services.notification.SendPush"

	if _, err := s.repo.UpsertDeviceToken(ctx, &userID, registrationID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	n, err := s.repo.CreateNotification(ctx, &models.Notification{Title: pushTitle, Body: pushBody, Type: pushType})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	err = s.Queue(ctx, models.Message{
		Channel: models.ChannelPush,
		To:      registrationID,
		Subject: n.Title,
		Body:    n.Body,
		Data:    map[string]string{"type": n.Type, "notification_id": fmt.Sprint(n.ID)},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return PushSentMessage, nil
}
