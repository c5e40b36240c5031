package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/at-ishikawa/eiken/internal/question"
)

type createQuestionRequest struct {
	Level         string   `json:"level" binding:"required"`
	QuestionType  string   `json:"question_type" binding:"required"`
	QuestionText  string   `json:"question_text" binding:"required"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer" binding:"required"`
	Explanation   *string  `json:"explanation"`
}

type startExamRequest struct {
	UserID        *string `json:"user_id" binding:"required"`
	Level         string  `json:"level" binding:"required"`
	QuestionCount *int    `json:"question_count" binding:"required"`
}

type submitAnswerRequest struct {
	SessionID  *int64  `json:"session_id" binding:"required"`
	QuestionID *int64  `json:"question_id" binding:"required"`
	UserAnswer *string `json:"user_answer" binding:"required"`
}

// completeExamRequest also accepts a client computed score, which is ignored.
type completeExamRequest struct {
	SessionID *int64   `json:"session_id" binding:"required"`
	Score     *float64 `json:"score"`
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortBadRequest(c, fmt.Errorf("invalid id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func queryLimit(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		abortBadRequest(c, fmt.Errorf("invalid limit %q", raw))
		return 0, false
	}
	// limit=0 asks for an empty page.
	if limit < 0 {
		return fallback, true
	}
	return limit, true
}

func (h *Handler) listQuestions(c *gin.Context) {
	level, err := question.ParseLevel(c.Param("level"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	limit, ok := queryLimit(c, h.questionLimit)
	if !ok {
		return
	}

	questions, err := h.questions.List(c.Request.Context(), level, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (h *Handler) getQuestion(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	q, err := h.questions.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *Handler) createQuestion(c *gin.Context) {
	var req createQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	q := &question.Question{
		Level:         question.Level(req.Level),
		Type:          question.Type(req.QuestionType),
		Text:          req.QuestionText,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Explanation:   req.Explanation,
	}
	id, err := h.questions.Create(c.Request.Context(), q)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "created", "id": id})
}

func (h *Handler) startExam(c *gin.Context) {
	var req startExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	level, err := question.ParseLevel(req.Level)
	if err != nil {
		abortWithError(c, err)
		return
	}

	id, err := h.ledger.Start(c.Request.Context(), *req.UserID, level, *req.QuestionCount)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "status": "started"})
}

func (h *Handler) getExam(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	session, err := h.ledger.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) submitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	grade, err := h.recorder.Submit(c.Request.Context(), *req.SessionID, *req.QuestionID, *req.UserAnswer)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, grade)
}

func (h *Handler) completeExam(c *gin.Context) {
	var req completeExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	score, err := h.scorer.Complete(c.Request.Context(), *req.SessionID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed", "score": score})
}

func (h *Handler) getResults(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	results, err := h.recorder.Results(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) getUserStats(c *gin.Context) {
	user, err := h.stats.GetOrCreate(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) getUserHistory(c *gin.Context) {
	limit, ok := queryLimit(c, h.historyLimit)
	if !ok {
		return
	}
	history, err := h.stats.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
