package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/at-ishikawa/eiken/internal/question"
)

// ExamQuizCLI walks through one exam session question by question.
type ExamQuizCLI struct {
	*InteractiveQuizCLI

	sessionID int64
	questions []question.Question
	next      int
	correct   int
	score     float64
	completed bool
}

// ErrNoQuestions is returned when the bank has no question for the level.
var ErrNoQuestions = errors.New("no questions for the level")

// NewExamQuizCLI fetches up to count questions of level and starts a session for them.
func NewExamQuizCLI(ctx context.Context, base *InteractiveQuizCLI, userID string, level question.Level, count int) (*ExamQuizCLI, error) {
	questions, err := base.api.ListQuestions(ctx, level, count)
	if err != nil {
		return nil, fmt.Errorf("api.ListQuestions() > %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%s: %w", level, ErrNoQuestions)
	}

	sessionID, err := base.api.StartExam(ctx, userID, level, len(questions))
	if err != nil {
		return nil, fmt.Errorf("api.StartExam() > %w", err)
	}

	_, _ = base.bold.Fprintf(base.stdoutWriter, "Eiken %s: %d questions (session #%d)\n\n", level, len(questions), sessionID)
	return &ExamQuizCLI{
		InteractiveQuizCLI: base,
		sessionID:          sessionID,
		questions:          questions,
	}, nil
}

// SessionID returns the id of the started session.
func (r *ExamQuizCLI) SessionID() int64 {
	return r.sessionID
}

// Score returns the final score once the session is completed.
func (r *ExamQuizCLI) Score() (float64, bool) {
	return r.score, r.completed
}

func (r *ExamQuizCLI) Session(ctx context.Context) error {
	if r.next >= len(r.questions) {
		return r.complete(ctx)
	}
	q := r.questions[r.next]
	r.next++

	if err := r.displayQuestion(q); err != nil {
		return err
	}

	input, err := r.stdinReader.ReadString('\n')
	if errors.Is(err, io.EOF) && input == "" {
		_, _ = fmt.Fprintf(r.stdoutWriter, "\nInput closed. Session #%d is left open.\n", r.sessionID)
		return errEnd
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("error reading input: %w", err)
	}
	answer := strings.TrimRight(input, "\r\n")

	grade, err := r.api.SubmitAnswer(ctx, r.sessionID, q.ID, answer)
	if err != nil {
		return fmt.Errorf("api.SubmitAnswer() > %w", err)
	}
	if grade.IsCorrect {
		r.correct++
		_, _ = fmt.Fprint(r.stdoutWriter, "✅ ")
		_, _ = r.green.Fprintln(r.stdoutWriter, "Correct!")
	} else {
		_, _ = fmt.Fprint(r.stdoutWriter, "❌ ")
		_, _ = r.red.Fprintf(r.stdoutWriter, "Wrong. The correct answer is %s\n", r.bold.Sprint(grade.CorrectAnswer))
	}
	if grade.Explanation != nil && *grade.Explanation != "" {
		_, _ = fmt.Fprintf(r.stdoutWriter, "   %s %s\n", r.italic.Sprint("Explanation:"), *grade.Explanation)
	}
	_, err = fmt.Fprintln(r.stdoutWriter)
	return err
}

func (r *ExamQuizCLI) displayQuestion(q question.Question) error {
	if _, err := r.bold.Fprintf(r.stdoutWriter, "Q%d/%d ", r.next, len(r.questions)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(r.stdoutWriter, "[%s] %s\n", q.Type, q.Text); err != nil {
		return err
	}
	for i, option := range q.Options {
		if _, err := fmt.Fprintf(r.stdoutWriter, "  %s. %s\n", optionKey(i), option); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(r.stdoutWriter, "> ")
	return err
}

func (r *ExamQuizCLI) complete(ctx context.Context) error {
	score, err := r.api.CompleteExam(ctx, r.sessionID)
	if err != nil {
		return fmt.Errorf("api.CompleteExam() > %w", err)
	}
	r.score = score
	r.completed = true
	_, _ = r.bold.Fprintf(r.stdoutWriter, "Score: %.1f (%d/%d correct)\n", score, r.correct, len(r.questions))
	return errEnd
}

// optionKey labels the i-th option A, B, C...
func optionKey(i int) string {
	return string(rune('A' + i))
}
