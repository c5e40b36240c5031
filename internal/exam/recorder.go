package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/at-ishikawa/eiken/internal/database"
	"github.com/at-ishikawa/eiken/internal/question"
)

// Recorder grades submissions against the question bank and appends them to a session.
type Recorder struct {
	db        *sqlx.DB
	questions question.Store
	policy    ResubmissionPolicy
	ledger    *Ledger
	opts      options
}

// NewRecorder creates a Recorder.
func NewRecorder(db *sqlx.DB, questions question.Store, policy ResubmissionPolicy, opts ...Option) *Recorder {
	o := newOptions(opts)
	return &Recorder{
		db:        db,
		questions: questions,
		policy:    policy,
		ledger:    &Ledger{db: db, opts: o},
		opts:      o,
	}
}

// Submit grades userAnswer by exact, case-sensitive comparison with the
// question's correct answer and records it. The session tallies are not
// touched until the session is completed.
func (r *Recorder) Submit(ctx context.Context, sessionID, questionID int64, userAnswer string) (*Grade, error) {
	ctx, span := tracer.Start(ctx, "exam.Recorder.Submit")
	defer span.End()
	span.SetAttributes(attribute.Int64("exam.session_id", sessionID), attribute.Int64("exam.question_id", questionID))

	if _, err := r.ledger.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	q, err := r.questions.Get(ctx, questionID)
	if errors.Is(err, question.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve question %d: %w", questionID, err)
	}

	grade := &Grade{
		IsCorrect:     q.CorrectAnswer == userAnswer,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}

	var level question.Level
	if err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		// Holding the row lock serializes submits with each other and with Complete.
		session, err := r.ledger.withTx(tx).getForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.IsCompleted() {
			return fmt.Errorf("session %d: %w", sessionID, ErrSessionCompleted)
		}
		level = session.Level

		if r.policy == PolicyReject {
			var answered int
			if err := tx.GetContext(ctx, &answered,
				"SELECT COUNT(*) FROM user_answers WHERE session_id = ? AND question_id = ?",
				sessionID, questionID,
			); err != nil {
				return fmt.Errorf("count previous answers: %w", err)
			}
			if answered > 0 {
				return fmt.Errorf("question %d: %w", questionID, ErrDuplicateAnswer)
			}
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_answers (session_id, question_id, user_answer, is_correct, created_at) VALUES (?, ?, ?, ?, ?)",
			sessionID, questionID, userAnswer, grade.IsCorrect, r.opts.now(),
		); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Bool("exam.answer_correct", grade.IsCorrect))
	slog.Default().Debug("answer recorded", "session_id", sessionID, "question_id", questionID, "correct", grade.IsCorrect)
	r.opts.observer.AnswerRecorded(level, grade.IsCorrect)
	return grade, nil
}

// Results returns the session together with every answer and its question.
func (r *Recorder) Results(ctx context.Context, sessionID int64) (*Results, error) {
	session, err := r.ledger.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	answers := []AnswerDetail{}
	if err := r.db.SelectContext(ctx, &answers, `SELECT ua.id, ua.session_id, ua.question_id, ua.user_answer, ua.is_correct, ua.created_at,
	q.question_text, q.correct_answer, q.explanation
FROM user_answers ua
JOIN questions q ON q.id = ua.question_id
WHERE ua.session_id = ?
ORDER BY ua.id`, sessionID); err != nil {
		return nil, fmt.Errorf("load answers of session %d: %w", sessionID, err)
	}
	return &Results{Session: *session, Answers: answers}, nil
}
