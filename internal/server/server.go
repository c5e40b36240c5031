// Package server exposes the exam service over HTTP with gin.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/eiken/internal/config"
	"github.com/at-ishikawa/eiken/internal/exam"
	"github.com/at-ishikawa/eiken/internal/question"
)

const (
	serviceName          = "Eiken Exam System API"
	defaultQuestionLimit = 10
)

// Handler serves every API route.
type Handler struct {
	db        *sqlx.DB
	questions question.Store
	ledger    *exam.Ledger
	recorder  *exam.Recorder
	scorer    *exam.Scorer
	stats     *exam.Aggregator

	questionLimit int
	historyLimit  int
}

// NewHandler builds the exam components on top of db.
func NewHandler(db *sqlx.DB, questions question.Store, cfg config.ExamConfig, opts ...exam.Option) (*Handler, error) {
	policy, err := exam.ParseResubmissionPolicy(cfg.ResubmissionPolicy)
	if err != nil {
		return nil, err
	}
	questionLimit := cfg.QuestionLimit
	if questionLimit <= 0 {
		questionLimit = defaultQuestionLimit
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = exam.DefaultHistoryLimit
	}
	return &Handler{
		db:            db,
		questions:     questions,
		ledger:        exam.NewLedger(db, opts...),
		recorder:      exam.NewRecorder(db, questions, policy, opts...),
		scorer:        exam.NewScorer(db, policy, opts...),
		stats:         exam.NewAggregator(db, opts...),
		questionLimit: questionLimit,
		historyLimit:  historyLimit,
	}, nil
}

// RouterConfig carries the pieces of the router that live outside this package.
type RouterConfig struct {
	Server  config.ServerConfig
	Logger  *slog.Logger
	Metrics gin.HandlerFunc
	// Middleware runs before the handlers, after logging and CORS.
	Middleware []gin.HandlerFunc
}

// NewRouter registers the routes of h. ctx bounds background work of the
// middleware such as the rate limiter janitor.
func NewRouter(ctx context.Context, cfg RouterConfig, h *Handler) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger), CORS(cfg.Server.CORS.AllowedOrigins), Secure())
	r.Use(cfg.Middleware...)

	r.GET("/health", h.health)
	if cfg.Metrics != nil {
		r.GET("/metrics", cfg.Metrics)
	}

	api := r.Group("/")
	api.Use(RateLimit(ctx, cfg.Server.RateLimit.Requests, time.Duration(cfg.Server.RateLimit.WindowSeconds)*time.Second))

	questions := api.Group("/questions")
	questions.POST("/", h.createQuestion)
	questions.GET("/detail/:id", h.getQuestion)
	questions.GET("/:level", h.listQuestions)

	exams := api.Group("/exams")
	exams.POST("/start", h.startExam)
	exams.POST("/complete", h.completeExam)
	exams.GET("/:id", h.getExam)
	exams.GET("/:id/results", h.getResults)

	api.POST("/answers/submit", h.submitAnswer)

	users := api.Group("/users")
	users.GET("/:id/stats", h.getUserStats)
	users.GET("/:id/history", h.getUserHistory)

	return r
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		slog.Default().WarnContext(ctx, "database ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": serviceName, "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName, "database": "up"})
}
