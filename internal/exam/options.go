package exam

import (
	"time"

	"go.opentelemetry.io/otel"

	"github.com/at-ishikawa/eiken/internal/question"
)

var tracer = otel.Tracer("github.com/at-ishikawa/eiken/internal/exam")

// Observer receives lifecycle events, typically to export metrics.
type Observer interface {
	SessionStarted(level question.Level)
	AnswerRecorded(level question.Level, correct bool)
	SessionCompleted(level question.Level, score float64)
}

type noopObserver struct{}

func (noopObserver) SessionStarted(question.Level)            {}
func (noopObserver) AnswerRecorded(question.Level, bool)      {}
func (noopObserver) SessionCompleted(question.Level, float64) {}

type options struct {
	observer Observer
	now      func() time.Time
}

// Option configures a component of this package.
type Option func(*options)

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observer = o
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(opts *options) {
		if now != nil {
			opts.now = now
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		observer: noopObserver{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
