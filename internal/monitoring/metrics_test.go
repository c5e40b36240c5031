package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/eiken/internal/question"
)

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestMetrics_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/exams/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	router.GET("/metrics", m.Handler())

	for _, path := range []string{"/exams/1", "/exams/2", "/nothing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/exams/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "unmatched", "404")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{endpoint="/exams/:id",method="GET",status="404"} 2`)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds_bucket")
}

func TestMetrics_Observer(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.SessionStarted(question.Level3)
	m.SessionStarted(question.Level3)
	m.AnswerRecorded(question.Level3, true)
	m.AnswerRecorded(question.Level3, false)
	m.AnswerRecorded(question.Level3, true)
	m.SessionCompleted(question.Level3, 66.7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsStarted.WithLabelValues("3級")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.answersRecorded.WithLabelValues("3級", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answersRecorded.WithLabelValues("3級", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsCompleted.WithLabelValues("3級")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.scores, "eiken_session_score"))
}
