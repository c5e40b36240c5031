package exam

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/eiken/internal/question"
)

func TestScore(t *testing.T) {
	tests := []struct {
		correct int
		total   int
		want    float64
	}{
		{correct: 0, total: 0, want: 0},
		{correct: 0, total: 4, want: 0},
		{correct: 4, total: 4, want: 100},
		{correct: 1, total: 2, want: 50},
		{correct: 2, total: 3, want: 2.0 / 3.0 * 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Score(tt.correct, tt.total), "%d/%d", tt.correct, tt.total)
	}

	for total := 0; total <= 20; total++ {
		for correct := 0; correct <= total; correct++ {
			got := Score(correct, total)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		}
	}
}

func TestScorer_Complete(t *testing.T) {
	type submission struct {
		text   string
		answer string
	}
	tests := []struct {
		name        string
		policy      ResubmissionPolicy
		submissions []submission
		wantScore   float64
		wantCorrect int
	}{
		{
			name:      "no answers scores zero",
			policy:    PolicyCountAll,
			wantScore: 0,
		},
		{
			name:   "two of three correct",
			policy: PolicyCountAll,
			submissions: []submission{
				{text: textStudent, answer: "A"},
				{text: textBus, answer: "B"},
				{text: textApples, answer: "eating"},
			},
			wantScore:   2.0 / 3.0 * 100,
			wantCorrect: 2,
		},
		{
			name:   "all wrong",
			policy: PolicyCountAll,
			submissions: []submission{
				{text: textStudent, answer: "a"},
				{text: textApples, answer: "Eating"},
			},
			wantScore: 0,
		},
		{
			name:   "count all scores every resubmission",
			policy: PolicyCountAll,
			submissions: []submission{
				{text: textStudent, answer: "B"},
				{text: textStudent, answer: "A"},
			},
			wantScore:   50,
			wantCorrect: 1,
		},
		{
			name:   "last wins scores only the newest answer",
			policy: PolicyLastWins,
			submissions: []submission{
				{text: textStudent, answer: "B"},
				{text: textStudent, answer: "A"},
				{text: textApples, answer: "eating"},
				{text: textApples, answer: "eat"},
			},
			wantScore:   50,
			wantCorrect: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := newTestDB(t)
			questions := seedQuestions(t, db)
			observer := &recordingObserver{}
			ledger := NewLedger(db)
			recorder := NewRecorder(db, question.NewDBRepository(db), tt.policy)
			scorer := NewScorer(db, tt.policy, WithObserver(observer))

			sessionID, err := ledger.Start(ctx, "u1", question.Level5, len(tt.submissions))
			require.NoError(t, err)
			for _, s := range tt.submissions {
				_, err := recorder.Submit(ctx, sessionID, questions[s.text].ID, s.answer)
				require.NoError(t, err)
			}

			score, err := scorer.Complete(ctx, sessionID)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantScore, score, 1e-9)

			session, err := ledger.Get(ctx, sessionID)
			require.NoError(t, err)
			assert.True(t, session.IsCompleted())
			assert.Equal(t, tt.wantCorrect, session.CorrectAnswers)
			assert.InDelta(t, tt.wantScore, session.Score, 1e-9)
			assert.Len(t, observer.completed, 1)

			user, err := NewAggregator(db).GetOrCreate(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, 1, user.TotalExams)
			assert.Equal(t, tt.wantCorrect, user.TotalCorrect)
		})
	}
}

func TestScorer_Complete_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	questions := seedQuestions(t, db)
	clock := newStepClock()
	ledger := NewLedger(db, WithClock(clock.Now))
	recorder := NewRecorder(db, question.NewDBRepository(db), PolicyCountAll, WithClock(clock.Now))
	observer := &recordingObserver{}
	scorer := NewScorer(db, PolicyCountAll, WithClock(clock.Now), WithObserver(observer))

	sessionID, err := ledger.Start(ctx, "u1", question.Level5, 2)
	require.NoError(t, err)
	_, err = recorder.Submit(ctx, sessionID, questions[textStudent].ID, "A")
	require.NoError(t, err)
	_, err = recorder.Submit(ctx, sessionID, questions[textBus].ID, "D")
	require.NoError(t, err)

	first, err := scorer.Complete(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, first)
	before, err := ledger.Get(ctx, sessionID)
	require.NoError(t, err)

	second, err := scorer.Complete(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	after, err := ledger.Get(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, after.CompletedAt)
	assert.True(t, before.CompletedAt.Equal(*after.CompletedAt), "completed_at must not move")
	assert.Equal(t, before.CorrectAnswers, after.CorrectAnswers)

	user, err := NewAggregator(db).GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, user.TotalExams, "user totals are counted once")
	assert.Equal(t, 1, user.TotalCorrect)
	assert.Len(t, observer.completed, 1)
}

func TestScorer_Complete_NotFound(t *testing.T) {
	_, err := NewScorer(newTestDB(t), PolicyCountAll).Complete(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScorer_Complete_Concurrent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	questions := seedQuestions(t, db)
	ledger := NewLedger(db)
	recorder := NewRecorder(db, question.NewDBRepository(db), PolicyCountAll)
	scorer := NewScorer(db, PolicyCountAll)

	sessionID, err := ledger.Start(ctx, "u1", question.Level3, 1)
	require.NoError(t, err)
	_, err = recorder.Submit(ctx, sessionID, questions[textTooComplex].ID, "too complex")
	require.NoError(t, err)

	const workers = 8
	scores := make([]float64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scores[i], errs[i] = scorer.Complete(ctx, sessionID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 100.0, scores[i])
	}
	user, err := NewAggregator(db).GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, user.TotalExams)
}

func TestScorer_Complete_AccumulatesAcrossSessions(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	questions := seedQuestions(t, db)
	ledger := NewLedger(db)
	recorder := NewRecorder(db, question.NewDBRepository(db), PolicyCountAll)
	scorer := NewScorer(db, PolicyCountAll)

	for _, answer := range []string{"A", "B", "A"} {
		sessionID, err := ledger.Start(ctx, "u1", question.Level5, 1)
		require.NoError(t, err)
		_, err = recorder.Submit(ctx, sessionID, questions[textStudent].ID, answer)
		require.NoError(t, err)
		_, err = scorer.Complete(ctx, sessionID)
		require.NoError(t, err)
	}

	user, err := NewAggregator(db).GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, user.TotalExams)
	assert.Equal(t, 2, user.TotalCorrect)
}

func TestScorer_Complete_SQL(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	selectSession := regexp.QuoteMeta("SELECT "+sessionColumns+" FROM exam_sessions WHERE id = ?") + "$"
	lockSession := regexp.QuoteMeta("SELECT " + sessionColumns + " FROM exam_sessions WHERE id = ? FOR UPDATE")
	tallyAnswers := regexp.QuoteMeta(tallyAllQuery)
	finalize := regexp.QuoteMeta("UPDATE exam_sessions SET completed_at = ?, correct_answers = ?, score = ? WHERE id = ? AND completed_at IS NULL")
	addTotals := regexp.QuoteMeta("UPDATE users SET total_exams = total_exams + 1, total_correct = total_correct + ? WHERE id = ?")
	columns := []string{"id", "user_id", "level", "total_questions", "correct_answers", "score", "started_at", "completed_at", "created_at"}
	openRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(columns).AddRow(1, "u1", "3級", 4, 0, 0.0, now, nil, now)
	}
	completedRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(columns).AddRow(1, "u1", "3級", 4, 2, 50.0, now, now, now)
	}
	tallyRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"total", "correct"}).AddRow(4, 3)
	}

	tests := []struct {
		name          string
		setupMock     func(mock sqlmock.Sqlmock)
		wantScore     float64
		wantCompleted int
	}{
		{
			name: "completes an open session under the row lock",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockSession).WithArgs(int64(1)).WillReturnRows(openRow())
				mock.ExpectQuery(tallyAnswers).WithArgs(int64(1)).WillReturnRows(tallyRows())
				mock.ExpectExec(finalize).WithArgs(now, 3, 75.0, int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(addTotals).WithArgs(3, "u1").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			wantScore:     75,
			wantCompleted: 1,
		},
		{
			name: "already completed session returns the stored score",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockSession).WithArgs(int64(1)).WillReturnRows(completedRow())
				mock.ExpectCommit()
			},
			wantScore: 50,
		},
		{
			name: "losing a concurrent completion returns the stored score",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockSession).WithArgs(int64(1)).WillReturnRows(openRow())
				mock.ExpectQuery(tallyAnswers).WithArgs(int64(1)).WillReturnRows(tallyRows())
				mock.ExpectExec(finalize).WithArgs(now, 3, 75.0, int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(selectSession).WithArgs(int64(1)).WillReturnRows(completedRow())
				mock.ExpectQuery(lockSession).WithArgs(int64(1)).WillReturnRows(completedRow())
				mock.ExpectCommit()
			},
			wantScore: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			observer := &recordingObserver{}
			scorer := NewScorer(sqlx.NewDb(db, "mysql"), PolicyCountAll, WithClock(func() time.Time { return now }), WithObserver(observer))
			tt.setupMock(mock)

			score, err := scorer.Complete(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, score)
			assert.Len(t, observer.completed, tt.wantCompleted)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
