package exam

import (
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/eiken/internal/question"
	"github.com/at-ishikawa/eiken/internal/testutil"
)

func newTestDB(t *testing.T) *sqlx.DB {
	return testutil.OpenTestDB(t)
}

func seedQuestions(t *testing.T, db *sqlx.DB) map[string]question.Question {
	return testutil.SeedSampleQuestions(t, db)
}

const (
	textTooComplex = "The problem is ___ to solve without expert help."
	textStudent    = "I ___ a student."
	textBus        = "She goes to school ___ bus."
	textApples     = "I like ___ apples."
)

// stepClock advances one second on every call so that rows get distinct timestamps.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingObserver struct {
	mu        sync.Mutex
	started   []question.Level
	answers   []bool
	completed []float64
}

func (o *recordingObserver) SessionStarted(level question.Level) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, level)
}

func (o *recordingObserver) AnswerRecorded(_ question.Level, correct bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.answers = append(o.answers, correct)
}

func (o *recordingObserver) SessionCompleted(_ question.Level, score float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, score)
}
