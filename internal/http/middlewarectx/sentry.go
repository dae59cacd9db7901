package middlewarectx

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
)

// SentryMiddleware привязывает hub Sentry к запросу и отправляет паники.
// Паника пробрасывается дальше, до middleware.Recoverer.
func SentryMiddleware() func(http.Handler) http.Handler {
	return sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle
}
