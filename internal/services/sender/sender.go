// Package services доставляет сообщения из очереди через шлюзы каналов.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/school-crm/internal/lib/sl"
	"github.com/magabrotheeeer/school-crm/internal/metrics"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

// Gateway доставляет сообщение одного канала.
type Gateway interface {
	Send(ctx context.Context, msg models.Message) error
}

// SenderService разбирает сообщения очереди и передаёт их шлюзу канала.
type SenderService struct {
	gateways map[models.Channel]Gateway
	log      *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(gateways map[models.Channel]Gateway, log *slog.Logger) *SenderService {
	return &SenderService{gateways: gateways, log: log}
}

// Handle доставляет сообщение из тела body. Ошибка возвращает сообщение
// в очередь.
func (s *SenderService) Handle(ctx context.Context, body []byte) error {
	const op = "services.sender.Handle"
	var msg models.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: unmarshal: %w", op, err)
	}
	log := s.log.With(slog.String("op", op), slog.String("id", msg.ID), slog.String("channel", string(msg.Channel)))

	gw, ok := s.gateways[msg.Channel]
	if !ok {
		metrics.NotificationsDelivered.WithLabelValues(string(msg.Channel), "unsupported").Inc()
		return fmt.Errorf("%s: unsupported channel %q", op, msg.Channel)
	}
	if err := gw.Send(ctx, msg); err != nil {
		metrics.NotificationsDelivered.WithLabelValues(string(msg.Channel), "error").Inc()
		log.Error("failed to deliver message", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.NotificationsDelivered.WithLabelValues(string(msg.Channel), "ok").Inc()
	log.Info("message delivered")
	return nil
}
