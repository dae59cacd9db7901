package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/school-crm/internal/lib/sl"
	"github.com/magabrotheeeer/school-crm/internal/lib/smtp"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

// Transport открывает SMTP‑соединение.
type Transport interface {
	Connect(ctx context.Context) (smtp.Client, error)
	GetSMTPUser() string
}

// EmailGateway отправляет письма через SMTP.
type EmailGateway struct {
	transport Transport
	log       *slog.Logger
}

// NewEmailGateway создаёт шлюз электронной почты.
func NewEmailGateway(transport Transport, log *slog.Logger) *EmailGateway {
	return &EmailGateway{transport: transport, log: log}
}

// Send отправляет письмо msg.To.
func (g *EmailGateway) Send(ctx context.Context, msg models.Message) error {
	from := g.transport.GetSMTPUser()
	body := strings.Join([]string{
		"From: " + from,
		"To: " + msg.To,
		"Subject: " + msg.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		msg.Body,
	}, "\r\n")

	client, err := g.transport.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		g.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	if err := client.Rcpt(msg.To); err != nil {
		g.log.Error("failed to set RCPT TO", slog.String("recipient", msg.To), sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = wc.Write([]byte(body)); err != nil {
		_ = wc.Close()
		return err
	}
	if err = wc.Close(); err != nil {
		return err
	}
	return client.Quit()
}
