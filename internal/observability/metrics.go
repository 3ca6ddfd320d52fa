package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_http_requests_total",
			Help: "Total number of HTTP requests handled by the debug server.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_client_http_request_duration_seconds",
			Help:    "Debug server request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	mergesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_merges_total",
			Help: "Total number of store merges, by source.",
		},
		[]string{"source"},
	)
	messagesMergedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_messages_merged_total",
			Help: "Total number of messages newly added by merges, by source.",
		},
		[]string{"source"},
	)
	fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_history_fetches_total",
			Help: "Total number of history fetches, by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)
	gapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_gaps_total",
			Help: "Total number of id gaps, by resolution.",
		},
		[]string{"resolution"},
	)
	pushEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_push_events_total",
			Help: "Total number of push channel events, by type.",
		},
		[]string{"type"},
	)
	pushActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_client_push_active_connections",
			Help: "Number of active push channel connections.",
		},
	)
	sendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_sends_total",
			Help: "Total number of optimistic sends, by outcome.",
		},
		[]string{"outcome"},
	)
	staleResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_stale_results_discarded_total",
			Help: "Total number of async results discarded after a conversation switch.",
		},
	)
	unreadCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_client_unread_count",
			Help: "Unread messages in the active window.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		mergesTotal,
		messagesMergedTotal,
		fetchesTotal,
		gapsTotal,
		pushEventsTotal,
		pushActiveConnections,
		sendsTotal,
		staleResultsTotal,
		unreadCount,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncMerge(source string, added int) {
	mergesTotal.WithLabelValues(source).Inc()
	if added > 0 {
		messagesMergedTotal.WithLabelValues(source).Add(float64(added))
	}
}

func IncFetch(mode, outcome string) {
	fetchesTotal.WithLabelValues(mode, outcome).Inc()
}

func IncGap(resolution string) {
	gapsTotal.WithLabelValues(resolution).Inc()
}

func IncPushEvent(eventType string) {
	pushEventsTotal.WithLabelValues(eventType).Inc()
}

func IncPushActive() {
	pushActiveConnections.Inc()
}

func DecPushActive() {
	pushActiveConnections.Dec()
}

func IncSend(outcome string) {
	sendsTotal.WithLabelValues(outcome).Inc()
}

func IncStaleResult() {
	staleResultsTotal.Inc()
}

func SetUnreadCount(n int) {
	unreadCount.Set(float64(n))
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
