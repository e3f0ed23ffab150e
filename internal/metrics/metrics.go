// Package metrics はPrometheusのメトリクスを定義します。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのコレクタをまとめたものです。
// テストごとに独立したレジストリを使えるよう、グローバルには登録しません。
type Metrics struct {
	HTTPRequestDuration *prometheus.HistogramVec
	AuthEvents          *prometheus.CounterVec
	TaskOperations      *prometheus.CounterVec
}

// New はコレクタを作成して reg に登録します。
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"method", "route", "status"},
		),
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_events_total",
				Help: "Signup, login and session verification outcomes",
			},
			[]string{"event", "result"},
		),
		TaskOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "task_operations_total",
				Help: "Task store operations by outcome",
			},
			[]string{"operation", "result"},
		),
	}
	reg.MustRegister(m.HTTPRequestDuration, m.AuthEvents, m.TaskOperations)
	return m
}

// ObserveHTTPRequest はHTTPリクエストの処理時間を記録します。
func (m *Metrics) ObserveHTTPRequest(method, route, status string, d time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// AuthEvent は認証イベントを数えます。event: signup, login, session
func (m *Metrics) AuthEvent(event, result string) {
	m.AuthEvents.WithLabelValues(event, result).Inc()
}

// TaskOperation はタスク操作を数えます。
func (m *Metrics) TaskOperation(operation, result string) {
	m.TaskOperations.WithLabelValues(operation, result).Inc()
}
