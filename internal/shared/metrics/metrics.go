package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by route, method and status",
}, []string{"path", "method", "status"})

var extractionStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "extraction_started_total",
	Help: "Total extractions started",
})

var extractionCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "extraction_completed_total",
	Help: "Total extractions persisted",
})

var extractionFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "extraction_failed_total",
	Help: "Total extractions failed, by failure kind",
}, []string{"reason"})

var extractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "extraction_duration_seconds",
	Help:    "End-to-end extraction time.",
	Buckets: []float64{.5, 1, 2, 5, 10, 30, 60, 120},
})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external calls (llm, ocr, cache).",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
}, []string{"operation"})

var chatRepliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chat_replies_total",
	Help: "Chat replies by outcome",
}, []string{"outcome"})

func IncExtractionStarted() {
	extractionStartedTotal.Inc()
}

func IncExtractionCompleted() {
	extractionCompletedTotal.Inc()
}

// IncExtractionFailed counts a failed extraction under reason.
func IncExtractionFailed(reason string) {
	extractionFailedTotal.WithLabelValues(reason).Inc()
}

func ObserveExtractionDuration(elapsed time.Duration) {
	extractionDuration.Observe(elapsed.Seconds())
}

// CaptureDependency records how long an external call labelled operation took.
func CaptureDependency(operation string, elapsed time.Duration) {
	dependencyLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// IncChatReply counts a chat reply; outcome is "answered" or "apology".
func IncChatReply(outcome string) {
	chatRepliesTotal.WithLabelValues(outcome).Inc()
}

// Handler exposes the default registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
