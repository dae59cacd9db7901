// Package metrics содержит Prometheus‑метрики CRM.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm", Name: "http_requests_total", Help: "Processed HTTP requests",
	}, []string{"method", "route", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crm", Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	ApplicationsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "crm", Name: "applications_created_total", Help: "Created applications",
	})
	ApplicationsConverted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "crm", Name: "applications_converted_total", Help: "Applications converted to students",
	})
	NotificationsQueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm", Name: "notifications_queued_total", Help: "Messages published for delivery",
	}, []string{"channel"})
	NotificationsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm", Name: "notifications_delivered_total", Help: "Delivery attempts by result",
	}, []string{"channel", "result"})
	OTPPurged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "crm", Name: "otp_purged_total", Help: "Expired OTP codes removed",
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, ApplicationsCreated, ApplicationsConverted,
		NotificationsQueued, NotificationsDelivered, OTPPurged)
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware считает запросы и их длительность по шаблону маршрута chi.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
