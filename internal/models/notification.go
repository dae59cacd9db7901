package models

import "time"

// OTP — одноразовый код подтверждения сброса пароля.
type OTP struct {
	ID        int64
	UserID    int64
	Code      string
	CreatedAt time.Time
}

// Expired сообщает, истёк ли код к моменту now.
func (o OTP) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(o.CreatedAt) > ttl
}

// Notification — отправленное push‑уведомление.
type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// DeviceToken — зарегистрированный токен устройства для push.
type DeviceToken struct {
	ID        int64
	UserID    *int64
	Token     string
	CreatedAt time.Time
}

// Channel — канал доставки.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Message — сообщение в очереди доставки.
type Message struct {
	ID      string            `json:"id"`
	Channel Channel           `json:"channel"`
	To      string            `json:"to"`
	Subject string            `json:"subject,omitempty"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data,omitempty"`
}
