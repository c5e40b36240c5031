package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/eiken/internal/question"
)

const sessionColumns = "id, user_id, level, total_questions, correct_answers, score, started_at, completed_at, created_at"

// Ledger owns exam session records and their transition to completed.
type Ledger struct {
	db   sqlx.ExtContext
	opts options
}

// NewLedger creates a Ledger over a database handle or a transaction.
func NewLedger(db sqlx.ExtContext, opts ...Option) *Ledger {
	return &Ledger{db: db, opts: newOptions(opts)}
}

func (l *Ledger) withTx(tx *sqlx.Tx) *Ledger {
	return &Ledger{db: tx, opts: l.opts}
}

// Start creates an in-progress session and returns its id.
// userID and questionCount are recorded as given; questionCount is not
// checked against the bank and may be negative.
func (l *Ledger) Start(ctx context.Context, userID string, level question.Level, questionCount int) (int64, error) {
	if _, err := question.ParseLevel(string(level)); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	now := l.opts.now()
	res, err := l.db.ExecContext(ctx,
		"INSERT INTO exam_sessions (user_id, level, total_questions, correct_answers, score, started_at, created_at) VALUES (?, ?, ?, 0, 0, ?, ?)",
		userID, level, questionCount, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert exam session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.Default().Debug("exam session started", "session_id", id, "user_id", userID, "level", level)
	l.opts.observer.SessionStarted(level)
	return id, nil
}

// Get returns the session with the given id.
func (l *Ledger) Get(ctx context.Context, id int64) (*Session, error) {
	return l.get(ctx, id, false)
}

// getForUpdate reads the session and, on MySQL, holds its row lock until the
// surrounding transaction ends. SQLite serializes writers on its own.
func (l *Ledger) getForUpdate(ctx context.Context, id int64) (*Session, error) {
	return l.get(ctx, id, true)
}

func (l *Ledger) get(ctx context.Context, id int64, lock bool) (*Session, error) {
	query := "SELECT " + sessionColumns + " FROM exam_sessions WHERE id = ?"
	if lock && l.db.DriverName() == "mysql" {
		query += " FOR UPDATE"
	}

	var s Session
	err := sqlx.GetContext(ctx, l.db, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get exam session %d: %w", id, err)
	}
	return &s, nil
}

// Finalize marks an in-progress session completed with its final tallies.
// A session can be finalized once; later calls return ErrSessionCompleted.
func (l *Ledger) Finalize(ctx context.Context, id int64, correct int, score float64) error {
	res, err := l.db.ExecContext(ctx,
		"UPDATE exam_sessions SET completed_at = ?, correct_answers = ?, score = ? WHERE id = ? AND completed_at IS NULL",
		l.opts.now(), correct, score, id,
	)
	if err != nil {
		return fmt.Errorf("finalize exam session %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	if _, err := l.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("session %d: %w", id, ErrSessionCompleted)
}

// ListByUser returns the newest sessions of a user first.
func (l *Ledger) ListByUser(ctx context.Context, userID string, limit int) ([]Session, error) {
	sessions := []Session{}
	if err := sqlx.SelectContext(ctx, l.db, &sessions,
		"SELECT "+sessionColumns+" FROM exam_sessions WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		userID, limit,
	); err != nil {
		return nil, fmt.Errorf("list exam sessions of %s: %w", userID, err)
	}
	return sessions, nil
}
