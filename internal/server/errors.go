package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/at-ishikawa/eiken/internal/exam"
	"github.com/at-ishikawa/eiken/internal/question"
)

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, exam.ErrNotFound), errors.Is(err, question.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, exam.ErrSessionCompleted), errors.Is(err, exam.ErrDuplicateAnswer):
		return http.StatusConflict
	case errors.Is(err, exam.ErrInvalidInput),
		errors.Is(err, question.ErrUnknownLevel),
		errors.Is(err, question.ErrUnknownType),
		errors.Is(err, question.ErrInvalid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// abortWithError writes {"error": ...}. Internal errors are logged and hidden from the client.
func abortWithError(c *gin.Context, err error) {
	status := statusOf(err)
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		slog.Default().ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func abortBadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
