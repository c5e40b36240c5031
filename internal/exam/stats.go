package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/eiken/internal/database"
)

const userColumns = "id, name, email, total_exams, total_correct, created_at"

// Aggregator maintains per-user totals and exposes session history.
type Aggregator struct {
	db     sqlx.ExtContext
	ledger *Ledger
	opts   options
}

// NewAggregator creates an Aggregator.
func NewAggregator(db sqlx.ExtContext, opts ...Option) *Aggregator {
	return newAggregator(db, newOptions(opts))
}

func newAggregator(db sqlx.ExtContext, opts options) *Aggregator {
	return &Aggregator{db: db, ledger: &Ledger{db: db, opts: opts}, opts: opts}
}

// GetOrCreate returns the user's totals, creating an empty record first when
// the user has never been seen.
func (a *Aggregator) GetOrCreate(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	u, err := a.get(ctx, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	_, err = a.db.ExecContext(ctx,
		"INSERT INTO users (id, total_exams, total_correct, created_at) VALUES (?, 0, 0, ?)",
		userID, a.opts.now(),
	)
	// Another request may have created the row first.
	if err != nil && !database.IsDuplicateKey(err) {
		return nil, fmt.Errorf("insert user %s: %w", userID, err)
	}
	return a.get(ctx, userID)
}

func (a *Aggregator) get(ctx context.Context, userID string) (*User, error) {
	var u User
	err := sqlx.GetContext(ctx, a.db, &u, "SELECT "+userColumns+" FROM users WHERE id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return &u, nil
}

// History returns up to limit sessions of the user, newest first.
// A negative limit means DefaultHistoryLimit and a zero limit returns no sessions.
func (a *Aggregator) History(ctx context.Context, userID string, limit int) ([]SessionSummary, error) {
	if limit == 0 {
		return []SessionSummary{}, nil
	}
	if limit < 0 {
		limit = DefaultHistoryLimit
	}
	sessions, err := a.ledger.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	summaries := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, summarize(s))
	}
	return summaries, nil
}

// recordCompletion adds one finished exam and its correct answers to the user's totals.
func (a *Aggregator) recordCompletion(ctx context.Context, userID string, correct int) error {
	updated, err := a.addTotals(ctx, userID, correct)
	if err != nil || updated {
		return err
	}

	_, err = a.db.ExecContext(ctx,
		"INSERT INTO users (id, total_exams, total_correct, created_at) VALUES (?, 1, ?, ?)",
		userID, correct, a.opts.now(),
	)
	if err == nil {
		return nil
	}
	if !database.IsDuplicateKey(err) {
		return fmt.Errorf("insert totals of user %s: %w", userID, err)
	}

	// GetOrCreate inserted the row after the first update.
	updated, err = a.addTotals(ctx, userID, correct)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("update totals of user %s: no row after duplicate insert", userID)
	}
	return nil
}

func (a *Aggregator) addTotals(ctx context.Context, userID string, correct int) (bool, error) {
	res, err := a.db.ExecContext(ctx,
		"UPDATE users SET total_exams = total_exams + 1, total_correct = total_correct + ? WHERE id = ?",
		correct, userID,
	)
	if err != nil {
		return false, fmt.Errorf("update totals of user %s: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
