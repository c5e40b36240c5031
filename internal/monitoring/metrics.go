// Package monitoring exposes Prometheus metrics for HTTP traffic and exam activity.
package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/at-ishikawa/eiken/internal/question"
)

// Metrics holds every collector of the server. It satisfies exam.Observer.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	sessionsStarted   *prometheus.CounterVec
	answersRecorded   *prometheus.CounterVec
	sessionsCompleted *prometheus.CounterVec
	scores            *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		gatherer: reg,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		sessionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eiken_sessions_started_total",
				Help: "Number of exam sessions started",
			},
			[]string{"level"},
		),
		answersRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eiken_answers_total",
				Help: "Number of submitted answers",
			},
			[]string{"level", "correct"},
		),
		sessionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eiken_sessions_completed_total",
				Help: "Number of exam sessions completed",
			},
			[]string{"level"},
		),
		scores: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eiken_session_score",
				Help:    "Scores of completed exam sessions",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"level"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.requests,
		m.requestDuration,
		m.sessionsStarted,
		m.answersRecorded,
		m.sessionsCompleted,
		m.scores,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Middleware counts requests and records their latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
	return gin.WrapH(h)
}

func (m *Metrics) SessionStarted(level question.Level) {
	m.sessionsStarted.WithLabelValues(string(level)).Inc()
}

func (m *Metrics) AnswerRecorded(level question.Level, correct bool) {
	m.answersRecorded.WithLabelValues(string(level), strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) SessionCompleted(level question.Level, score float64) {
	m.sessionsCompleted.WithLabelValues(string(level)).Inc()
	m.scores.WithLabelValues(string(level)).Observe(score)
}
