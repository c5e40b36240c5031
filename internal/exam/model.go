// Package exam implements the exam session lifecycle: starting sessions,
// grading submitted answers, scoring completed sessions and keeping per-user
// statistics.
package exam

import (
	"fmt"
	"time"

	"github.com/at-ishikawa/eiken/internal/question"
)

// DefaultHistoryLimit is the number of sessions returned by History when no
// positive limit is given.
const DefaultHistoryLimit = 10

// ResubmissionPolicy decides how repeated answers to the same question within
// one session are recorded and scored.
type ResubmissionPolicy string

const (
	// PolicyCountAll stores every submission and scores each one.
	PolicyCountAll ResubmissionPolicy = "count_all"
	// PolicyLastWins stores every submission but only the newest one per question is scored.
	PolicyLastWins ResubmissionPolicy = "last_wins"
	// PolicyReject refuses a second submission for a question.
	PolicyReject ResubmissionPolicy = "reject"
)

// ParseResubmissionPolicy converts s to a ResubmissionPolicy.
func ParseResubmissionPolicy(s string) (ResubmissionPolicy, error) {
	switch p := ResubmissionPolicy(s); p {
	case PolicyCountAll, PolicyLastWins, PolicyReject:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown resubmission policy %q", ErrInvalidInput, s)
}

// Session is one attempt by a user at a level.
// CompletedAt is nil until the session is finalized.
type Session struct {
	ID             int64          `db:"id" json:"id"`
	UserID         string         `db:"user_id" json:"user_id"`
	Level          question.Level `db:"level" json:"level"`
	TotalQuestions int            `db:"total_questions" json:"total_questions"`
	CorrectAnswers int            `db:"correct_answers" json:"correct_answers"`
	Score          float64        `db:"score" json:"score"`
	StartedAt      time.Time      `db:"started_at" json:"started_at"`
	CompletedAt    *time.Time     `db:"completed_at" json:"completed_at"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// IsCompleted reports whether the session has been finalized.
func (s Session) IsCompleted() bool {
	return s.CompletedAt != nil
}

// Answer is a single graded submission. Answers are never updated.
type Answer struct {
	ID         int64     `db:"id" json:"id"`
	SessionID  int64     `db:"session_id" json:"session_id"`
	QuestionID int64     `db:"question_id" json:"question_id"`
	UserAnswer string    `db:"user_answer" json:"user_answer"`
	IsCorrect  bool      `db:"is_correct" json:"is_correct"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Grade is the immediate feedback for a submission.
type Grade struct {
	IsCorrect     bool    `json:"is_correct"`
	CorrectAnswer string  `json:"correct_answer"`
	Explanation   *string `json:"explanation"`
}

// AnswerDetail is an answer joined with its question.
type AnswerDetail struct {
	Answer
	QuestionText  string  `db:"question_text" json:"question_text"`
	CorrectAnswer string  `db:"correct_answer" json:"correct_answer"`
	Explanation   *string `db:"explanation" json:"explanation"`
}

// Results is a session snapshot with every answer in submission order.
type Results struct {
	Session Session        `json:"session"`
	Answers []AnswerDetail `json:"answers"`
}

// SessionSummary is a history entry.
type SessionSummary struct {
	ID             int64          `json:"id"`
	Level          question.Level `json:"level"`
	TotalQuestions int            `json:"total_questions"`
	CorrectAnswers int            `json:"correct_answers"`
	Score          float64        `json:"score"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at"`
}

func summarize(s Session) SessionSummary {
	return SessionSummary{
		ID:             s.ID,
		Level:          s.Level,
		TotalQuestions: s.TotalQuestions,
		CorrectAnswers: s.CorrectAnswers,
		Score:          s.Score,
		StartedAt:      s.StartedAt,
		CompletedAt:    s.CompletedAt,
	}
}

// User holds the running totals of a user.
type User struct {
	ID           string    `db:"id" json:"user_id"`
	Name         *string   `db:"name" json:"name"`
	Email        *string   `db:"email" json:"email"`
	TotalExams   int       `db:"total_exams" json:"total_exams"`
	TotalCorrect int       `db:"total_correct" json:"total_correct"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}

// Score converts a correct/total pair into a percentage.
// A session without answers scores exactly 0.
func Score(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}
