package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/at-ishikawa/eiken/internal/database"
)

const tallyAllQuery = `SELECT COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct
FROM user_answers
WHERE session_id = ?`

// tallyLastWinsQuery only counts the newest answer per question.
const tallyLastWinsQuery = `SELECT COUNT(*) AS total, COALESCE(SUM(CASE WHEN ua.is_correct THEN 1 ELSE 0 END), 0) AS correct
FROM user_answers ua
WHERE ua.session_id = ?
	AND ua.id = (SELECT MAX(l.id) FROM user_answers l WHERE l.session_id = ua.session_id AND l.question_id = ua.question_id)`

type tally struct {
	Total   int `db:"total"`
	Correct int `db:"correct"`
}

// Scorer completes sessions.
type Scorer struct {
	db     *sqlx.DB
	policy ResubmissionPolicy
	opts   options
}

// NewScorer creates a Scorer.
func NewScorer(db *sqlx.DB, policy ResubmissionPolicy, opts ...Option) *Scorer {
	return &Scorer{db: db, policy: policy, opts: newOptions(opts)}
}

// Complete aggregates the answers of a session, finalizes it and adds the
// result to the user's totals, all in one transaction. Completing a session
// that is already completed returns its stored score without changing anything.
func (s *Scorer) Complete(ctx context.Context, sessionID int64) (float64, error) {
	ctx, span := tracer.Start(ctx, "exam.Scorer.Complete")
	defer span.End()
	span.SetAttributes(attribute.Int64("exam.session_id", sessionID))

	var (
		session  *Session
		result   tally
		score    float64
		finished bool
	)
	if err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		ledger := &Ledger{db: tx, opts: s.opts}

		var err error
		session, err = ledger.getForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.IsCompleted() {
			score = session.Score
			finished = true
			return nil
		}

		query := tallyAllQuery
		if s.policy == PolicyLastWins {
			query = tallyLastWinsQuery
		}
		if err := tx.GetContext(ctx, &result, query, sessionID); err != nil {
			return fmt.Errorf("tally answers of session %d: %w", sessionID, err)
		}
		score = Score(result.Correct, result.Total)

		err = ledger.Finalize(ctx, sessionID, result.Correct, score)
		if errors.Is(err, ErrSessionCompleted) {
			// A concurrent Complete won; report its stored score.
			session, err = ledger.getForUpdate(ctx, sessionID)
			if err != nil {
				return err
			}
			score = session.Score
			finished = true
			return nil
		}
		if err != nil {
			return err
		}
		return newAggregator(tx, s.opts).recordCompletion(ctx, session.UserID, result.Correct)
	}); err != nil {
		return 0, err
	}

	span.SetAttributes(attribute.Float64("exam.score", score), attribute.Bool("exam.already_completed", finished))
	if finished {
		slog.Default().Debug("session already completed", "session_id", sessionID, "score", score)
		return score, nil
	}
	slog.Default().Info("exam session completed",
		"session_id", sessionID,
		"user_id", session.UserID,
		"answers", result.Total,
		"correct", result.Correct,
		"score", score,
	)
	s.opts.observer.SessionCompleted(session.Level, score)
	return score, nil
}
