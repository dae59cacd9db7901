// Package observability подключает отправку ошибок в Sentry.
package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry настраивает клиент Sentry. При пустом dsn отправка отключена.
// Возвращаемая функция дожидается отправки накопленных событий.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr отправляет ошибку в Sentry.
func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}
