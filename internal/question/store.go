package question

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/eiken/internal/database"
)

//go:generate mockgen -source=store.go -destination=../mocks/question/mock_store.go -package=mock_question Store

// Store is the question bank.
type Store interface {
	Get(ctx context.Context, id int64) (*Question, error)
	List(ctx context.Context, level Level, limit int) ([]Question, error)
	Create(ctx context.Context, q *Question) (int64, error)
}

const selectColumns = "id, level, question_type, question_text, options, correct_answer, explanation, created_at"

var insertColumns = []string{"level", "question_type", "question_text", "options", "correct_answer", "explanation", "created_at"}

// DBRepository implements Store on top of SQL.
type DBRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the question with the given id.
func (r *DBRepository) Get(ctx context.Context, id int64) (*Question, error) {
	var q Question
	err := r.db.GetContext(ctx, &q, "SELECT "+selectColumns+" FROM questions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get question %d: %w", id, err)
	}
	return &q, nil
}

// List returns up to limit questions of a level, oldest first.
func (r *DBRepository) List(ctx context.Context, level Level, limit int) ([]Question, error) {
	questions := []Question{}
	if err := r.db.SelectContext(ctx, &questions,
		"SELECT "+selectColumns+" FROM questions WHERE level = ? ORDER BY id LIMIT ?",
		level, limit,
	); err != nil {
		return nil, fmt.Errorf("list questions of %s: %w", level, err)
	}
	return questions, nil
}

// Create stores q and returns its id.
func (r *DBRepository) Create(ctx context.Context, q *Question) (int64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	q.CreatedAt = r.now()
	res, err := r.db.ExecContext(ctx,
		database.BuildMultiRowInsert("questions", insertColumns, 1),
		q.Level, q.Type, q.Text, q.Options, q.CorrectAnswer, q.Explanation, q.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	q.ID = id
	return id, nil
}

// BatchCreate inserts questions in a single transaction using a multi-row INSERT.
func (r *DBRepository) BatchCreate(ctx context.Context, questions []*Question) error {
	if len(questions) == 0 {
		return nil
	}
	now := r.now()
	args := make([]any, 0, len(questions)*len(insertColumns))
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		q.CreatedAt = now
		args = append(args, q.Level, q.Type, q.Text, q.Options, q.CorrectAnswer, q.Explanation, q.CreatedAt)
	}

	return database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		query := database.BuildMultiRowInsert("questions", insertColumns, len(questions))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
}

// Count returns the number of stored questions.
func (r *DBRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM questions"); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}
