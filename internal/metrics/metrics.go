package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "helpmarq"

var (
	// Registry holds every collector exposed at /metrics.
	Registry = prometheus.NewRegistry()

	applicationsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_submitted_total",
		Help:      "Applications accepted for review.",
	})

	applicationsReviewed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_reviewed_total",
		Help:      "Applications moved out of pending, by resulting status.",
	}, []string{"status"})

	feedbackSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feedback_submitted_total",
		Help:      "Feedback submitted by approved reviewers.",
	})

	feedbackRated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feedback_rated_total",
		Help:      "Feedback rated by project owners, by rating.",
	}, []string{"rating"})

	xpAwarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "xp_awarded_total",
		Help:      "XP paid out to reviewers.",
	})

	notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification dispatch attempts, by event and result.",
	}, []string{"event", "result"})

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
	}, []string{"method", "route"})
)

func init() {
	Registry.MustRegister(
		applicationsSubmitted,
		applicationsReviewed,
		feedbackSubmitted,
		feedbackRated,
		xpAwarded,
		notifications,
		httpInFlight,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RegisterGauge exposes a value sampled at scrape time.
// Registering the same name twice is a no-op.
func RegisterGauge(name, help string, fn func() float64) {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn)
	if err := Registry.Register(g); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}

// GinMiddleware records request counts and latency per matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func ApplicationSubmitted() { applicationsSubmitted.Inc() }

func ApplicationReviewed(status string) { applicationsReviewed.WithLabelValues(status).Inc() }

func FeedbackSubmitted() { feedbackSubmitted.Inc() }

// FeedbackRated counts a rating and the XP it paid.
func FeedbackRated(rating, xp int) {
	feedbackRated.WithLabelValues(strconv.Itoa(rating)).Inc()
	xpAwarded.Add(float64(xp))
}

// NotificationDispatched counts a dispatch attempt; result is "queued", "sent", "skipped" or "failed".
func NotificationDispatched(event, result string) {
	notifications.WithLabelValues(event, result).Inc()
}
