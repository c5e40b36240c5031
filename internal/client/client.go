// Package client is an HTTP client for the exam API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/at-ishikawa/eiken/internal/config"
	"github.com/at-ishikawa/eiken/internal/exam"
	"github.com/at-ishikawa/eiken/internal/question"
)

const defaultRetryDelay = 200 * time.Millisecond

// APIError is a non-2xx response of the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("response error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// retryable reports whether the request can be sent again. Requests that
// change state are only retried when the server refused them before handling.
func (e *APIError) retryable(idempotent bool) bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return idempotent
	}
	return false
}

type Client struct {
	httpClient       *resty.Client
	maxRetryAttempts uint
	retryDelay       time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithRetryDelay sets the base delay of the exponential backoff.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

func New(cfg config.ClientConfig, opts ...Option) *Client {
	httpClient := resty.New()
	httpClient.SetBaseURL(cfg.BaseURL)
	httpClient.SetHeader("Content-Type", "application/json")
	httpClient.SetHeader("Accept", "application/json")
	if cfg.TimeoutSeconds > 0 {
		httpClient.SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	}

	c := &Client{
		httpClient:       httpClient,
		maxRetryAttempts: cfg.RetryAttempts,
		retryDelay:       defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Close() error {
	return c.httpClient.Close()
}

type request struct {
	method     string
	path       string
	idempotent bool
	body       any
	pathParams map[string]string
	query      map[string]string
}

func (c *Client) do(ctx context.Context, r request, result any) error {
	return retry.Do(
		func() error {
			req := c.httpClient.R().SetContext(ctx)
			if r.body != nil {
				req.SetBody(r.body)
			}
			if result != nil {
				req.SetResult(result)
			}
			for k, v := range r.pathParams {
				req.SetPathParam(k, v)
			}
			for k, v := range r.query {
				req.SetQueryParam(k, v)
			}

			response, err := req.Execute(r.method, r.path)
			if err != nil {
				if ctx.Err() != nil || !r.idempotent {
					return retry.Unrecoverable(err)
				}
				return err
			}
			if response.IsError() {
				apiErr := &APIError{StatusCode: response.StatusCode(), Message: errorMessage(response.String())}
				if !apiErr.retryable(r.idempotent) {
					return retry.Unrecoverable(apiErr)
				}
				return apiErr
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetryAttempts+1),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	)
}

func errorMessage(body string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return body
}

type HealthStatus struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
}

func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var result HealthStatus
	if err := c.do(ctx, request{method: http.MethodGet, path: "/health", idempotent: true}, &result); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	return &result, nil
}

func (c *Client) ListQuestions(ctx context.Context, level question.Level, limit int) ([]question.Question, error) {
	r := request{
		method:     http.MethodGet,
		path:       "/questions/{level}",
		idempotent: true,
		pathParams: map[string]string{"level": string(level)},
	}
	if limit > 0 {
		r.query = map[string]string{"limit": strconv.Itoa(limit)}
	}
	var result []question.Question
	if err := c.do(ctx, r, &result); err != nil {
		return nil, fmt.Errorf("list questions of %s: %w", level, err)
	}
	return result, nil
}

func (c *Client) GetQuestion(ctx context.Context, id int64) (*question.Question, error) {
	var result question.Question
	if err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/questions/detail/{id}",
		idempotent: true,
		pathParams: map[string]string{"id": strconv.FormatInt(id, 10)},
	}, &result); err != nil {
		return nil, fmt.Errorf("get question %d: %w", id, err)
	}
	return &result, nil
}

func (c *Client) CreateQuestion(ctx context.Context, q question.Question) (int64, error) {
	var result struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/questions/", body: q}, &result); err != nil {
		return 0, fmt.Errorf("create question: %w", err)
	}
	return result.ID, nil
}

func (c *Client) StartExam(ctx context.Context, userID string, level question.Level, questionCount int) (int64, error) {
	var result struct {
		SessionID int64 `json:"session_id"`
	}
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/exams/start",
		body: map[string]any{
			"user_id":        userID,
			"level":          level,
			"question_count": questionCount,
		},
	}, &result); err != nil {
		return 0, fmt.Errorf("start exam: %w", err)
	}
	return result.SessionID, nil
}

func (c *Client) GetExam(ctx context.Context, sessionID int64) (*exam.Session, error) {
	var result exam.Session
	if err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/exams/{id}",
		idempotent: true,
		pathParams: map[string]string{"id": strconv.FormatInt(sessionID, 10)},
	}, &result); err != nil {
		return nil, fmt.Errorf("get exam %d: %w", sessionID, err)
	}
	return &result, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, sessionID, questionID int64, answer string) (*exam.Grade, error) {
	var result exam.Grade
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/answers/submit",
		body: map[string]any{
			"session_id":  sessionID,
			"question_id": questionID,
			"user_answer": answer,
		},
	}, &result); err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}
	return &result, nil
}

// CompleteExam is retried like a read since completing twice returns the stored score.
func (c *Client) CompleteExam(ctx context.Context, sessionID int64) (float64, error) {
	var result struct {
		Score float64 `json:"score"`
	}
	if err := c.do(ctx, request{
		method:     http.MethodPost,
		path:       "/exams/complete",
		idempotent: true,
		body:       map[string]any{"session_id": sessionID},
	}, &result); err != nil {
		return 0, fmt.Errorf("complete exam %d: %w", sessionID, err)
	}
	return result.Score, nil
}

func (c *Client) Results(ctx context.Context, sessionID int64) (*exam.Results, error) {
	var result exam.Results
	if err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/exams/{id}/results",
		idempotent: true,
		pathParams: map[string]string{"id": strconv.FormatInt(sessionID, 10)},
	}, &result); err != nil {
		return nil, fmt.Errorf("get results of exam %d: %w", sessionID, err)
	}
	return &result, nil
}

func (c *Client) UserStats(ctx context.Context, userID string) (*exam.User, error) {
	var result exam.User
	if err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/users/{id}/stats",
		idempotent: true,
		pathParams: map[string]string{"id": userID},
	}, &result); err != nil {
		return nil, fmt.Errorf("get stats of %s: %w", userID, err)
	}
	return &result, nil
}

func (c *Client) History(ctx context.Context, userID string, limit int) ([]exam.SessionSummary, error) {
	r := request{
		method:     http.MethodGet,
		path:       "/users/{id}/history",
		idempotent: true,
		pathParams: map[string]string{"id": userID},
	}
	if limit > 0 {
		r.query = map[string]string{"limit": strconv.Itoa(limit)}
	}
	var result []exam.SessionSummary
	if err := c.do(ctx, r, &result); err != nil {
		return nil, fmt.Errorf("get history of %s: %w", userID, err)
	}
	return result, nil
}
