package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/magabrotheeeer/school-crm/internal/config"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

// SMSGateway отправляет SMS через HTTP API провайдера.
type SMSGateway struct {
	client *http.Client
	url    string
	token  string
	sender string
}

// NewSMSGateway создаёт SMS‑шлюз.
func NewSMSGateway(cfg config.SMSGateway) *SMSGateway {
	return &SMSGateway{
		client: &http.Client{Timeout: cfg.SMSTimeout},
		url:    cfg.SMSURL,
		token:  cfg.SMSToken,
		sender: cfg.SMSSender,
	}
}

type smsRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

// Send отправляет текст msg.Body на номер msg.To.
func (g *SMSGateway) Send(ctx context.Context, msg models.Message) error {
	return postJSON(ctx, g.client, g.url, "Bearer "+g.token, smsRequest{
		From: g.sender,
		To:   msg.To,
		Text: msg.Body,
	})
}

// PushGateway отправляет push‑уведомления через HTTP API провайдера.
type PushGateway struct {
	client    *http.Client
	url       string
	serverKey string
}

// NewPushGateway создаёт push‑шлюз.
func NewPushGateway(cfg config.PushGateway) *PushGateway {
	return &PushGateway{
		client:    &http.Client{Timeout: cfg.PushTimeout},
		url:       cfg.PushURL,
		serverKey: cfg.PushServerKey,
	}
}

type pushRequest struct {
	To           string            `json:"to"`
	Notification pushNotification  `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type pushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send отправляет уведомление на устройство msg.To.
func (g *PushGateway) Send(ctx context.Context, msg models.Message) error {
	return postJSON(ctx, g.client, g.url, "key="+g.serverKey, pushRequest{
		To:           msg.To,
		Notification: pushNotification{Title: msg.Subject, Body: msg.Body},
		Data:         msg.Data,
	})
}

// errorBodyLimit ограничивает часть тела ответа, попадающую в ошибку.
const errorBodyLimit = 512

func postJSON(ctx context.Context, client *http.Client, url, auth string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return fmt.Errorf("gateway returned %d after %s: %s", resp.StatusCode, time.Since(start).Round(time.Millisecond), snippet)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
