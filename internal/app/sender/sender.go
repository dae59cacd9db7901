// Package sender доставляет уведомления из очередей RabbitMQ
// через почту, SMS и push.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/school-crm/internal/config"
	"github.com/magabrotheeeer/school-crm/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/school-crm/internal/lib/sl"
	"github.com/magabrotheeeer/school-crm/internal/lib/smtp"
	"github.com/magabrotheeeer/school-crm/internal/models"
	senderservice "github.com/magabrotheeeer/school-crm/internal/services/sender"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	queues        []rabbitmq.QueueConfig
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	queues := rabbitmq.NotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	gateways := map[models.Channel]senderservice.Gateway{
		models.ChannelEmail: senderservice.NewEmailGateway(smtp.NewTransport(cfg.SMTP, logger), logger),
		models.ChannelSMS:   senderservice.NewSMSGateway(cfg.SMSGateway),
		models.ChannelPush:  senderservice.NewPushGateway(cfg.PushGateway),
	}

	return &App{
		conn:          conn,
		ch:            ch,
		queues:        queues,
		senderService: senderservice.NewSenderService(gateways, logger),
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	for _, q := range a.queues {
		if err := rabbitmq.ConsumerMessage(ctx, a.ch, q.QueueName, a.logger, a.senderService.Handle); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			a.close()
			return err
		}
		a.logger.Info("consumer started", slog.String("queue", q.QueueName))
	}

	select {
	case <-ctx.Done():
	case err := <-a.conn.NotifyClose(make(chan *amqp.Error, 1)):
		a.close()
		if err != nil {
			return fmt.Errorf("app.sender.Run: connection closed: %w", err)
		}
		return nil
	}
	a.logger.Info("sender shutting down gracefully")
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil && err != amqp.ErrClosed {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil && err != amqp.ErrClosed {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
