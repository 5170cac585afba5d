// Package metrics содержит Prometheus-коллекторы social-сервиса.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Значения метки counter у social_counter_drift_total.
const (
	CounterCommentCount = "comment_count"
	CounterUnreadCount  = "unread_count"
)

// Metrics — набор коллекторов сервиса.
type Metrics struct {
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	counterDrift       *prometheus.CounterVec
	replyFetchFailures prometheus.Counter
	likeToggles        *prometheus.CounterVec
	messagesSent       prometheus.Counter
}

// New создаёт коллекторы и регистрирует их в reg.
// В main передаётся prometheus.DefaultRegisterer, в тестах — свежий prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "social_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		counterDrift: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_counter_drift_total",
			Help: "Denormalized counter updates that failed after the primary write succeeded.",
		}, []string{"counter"}),
		replyFetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "social_reply_fetch_failures_total",
			Help: "Reply fetches swallowed while assembling a comment tree.",
		}),
		likeToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_like_toggles_total",
			Help: "Like toggles by target and resulting state.",
		}, []string{"target", "liked"}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "social_messages_sent_total",
			Help: "Chat messages stored.",
		}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.counterDrift,
		m.replyFetchFailures,
		m.likeToggles,
		m.messagesSent,
	)

	return m
}

// ObserveHTTP учитывает завершённый HTTP-запрос.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// CounterDrift учитывает неудачное обновление денормализованного счётчика.
func (m *Metrics) CounterDrift(counter string) {
	m.counterDrift.WithLabelValues(counter).Inc()
}

// ReplyFetchFailed учитывает проглоченную ошибку загрузки ответов.
func (m *Metrics) ReplyFetchFailed() {
	m.replyFetchFailures.Inc()
}

// LikeToggled учитывает переключение лайка; target — "post" или "comment".
func (m *Metrics) LikeToggled(target string, liked bool) {
	m.likeToggles.WithLabelValues(target, strconv.FormatBool(liked)).Inc()
}

// MessageSent учитывает сохранённое сообщение.
func (m *Metrics) MessageSent() {
	m.messagesSent.Inc()
}
