// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 確認結果のラベル値。
const (
	ConfirmResultConfirmed = "confirmed"
	ConfirmResultNotFound  = "not_found"
	ConfirmResultInvalid   = "invalid"
	ConfirmResultError     = "error"
)

// メール送信結果のラベル値。
const (
	SendResultSuccess = "success"
	SendResultFailure = "failure"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 購読ワークフロー、メール送信、HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordSubscriptionCreated()
	RecordSubscriptionRejected(stage string)
	RecordConfirmation(result string)
	RecordEmailSend(result string, duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	subscriptionsCreated  prometheus.Counter
	subscriptionsRejected *prometheus.CounterVec
	confirmations         *prometheus.CounterVec
	emailSend             *prometheus.CounterVec
	emailSendLatency      prometheus.Histogram
	httpStatus            *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		subscriptionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stakevault_subscriptions_created_total",
			Help: "確認メール送信まで完了した購読の合計数",
		}),
		subscriptionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stakevault_subscriptions_rejected_total",
			Help: "失敗した段階別の購読拒否数",
		}, []string{"stage"}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stakevault_confirmations_total",
			Help: "結果別の購読確認リクエスト数",
		}, []string{"result"}),
		emailSend: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stakevault_email_send_total",
			Help: "結果別のメール送信数",
		}, []string{"result"}),
		emailSendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stakevault_email_send_latency_seconds",
			Help:    "メール送信のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stakevault_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.subscriptionsCreated,
		c.subscriptionsRejected,
		c.confirmations,
		c.emailSend,
		c.emailSendLatency,
		c.httpStatus,
	)

	return c
}

// RecordSubscriptionCreated は購読の作成完了を記録する。
func (c *Collector) RecordSubscriptionCreated() {
	c.subscriptionsCreated.Inc()
}

// RecordSubscriptionRejected は購読の拒否を失敗段階付きで記録する。
func (c *Collector) RecordSubscriptionRejected(stage string) {
	c.subscriptionsRejected.WithLabelValues(stage).Inc()
}

// RecordConfirmation は購読確認の結果を記録する。
func (c *Collector) RecordConfirmation(result string) {
	c.confirmations.WithLabelValues(result).Inc()
}

// RecordEmailSend はメール送信の結果とレイテンシを記録する。
func (c *Collector) RecordEmailSend(result string, duration time.Duration) {
	c.emailSend.WithLabelValues(result).Inc()
	c.emailSendLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// NopCollector は何も記録しないMetricsCollector。
type NopCollector struct{}

func (NopCollector) RecordSubscriptionCreated()            {}
func (NopCollector) RecordSubscriptionRejected(string)     {}
func (NopCollector) RecordConfirmation(string)             {}
func (NopCollector) RecordEmailSend(string, time.Duration) {}
func (NopCollector) RecordHTTPStatus(int)                  {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
