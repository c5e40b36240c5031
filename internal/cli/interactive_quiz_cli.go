package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/at-ishikawa/eiken/internal/exam"
	"github.com/at-ishikawa/eiken/internal/question"
)

var errEnd = errors.New("end")

//go:generate mockgen -source=interactive_quiz_cli.go -destination=../mocks/cli/mock_api.go -package=mock_cli API

// API is the part of the exam API used by the interactive quiz.
type API interface {
	ListQuestions(ctx context.Context, level question.Level, limit int) ([]question.Question, error)
	StartExam(ctx context.Context, userID string, level question.Level, questionCount int) (int64, error)
	SubmitAnswer(ctx context.Context, sessionID, questionID int64, answer string) (*exam.Grade, error)
	CompleteExam(ctx context.Context, sessionID int64) (float64, error)
}

// Session is one step of an interactive loop. It returns errEnd when the loop should stop.
type Session interface {
	Session(ctx context.Context) error
}

// InteractiveQuizCLI holds the terminal state shared by interactive commands.
type InteractiveQuizCLI struct {
	api          API
	stdinReader  *bufio.Reader
	stdoutWriter io.Writer
	bold         *color.Color
	italic       *color.Color
	green        *color.Color
	red          *color.Color
}

// NewInteractiveQuizCLI creates a CLI reading from stdin and writing to stdout.
func NewInteractiveQuizCLI(api API) *InteractiveQuizCLI {
	return newInteractiveQuizCLI(api, os.Stdin, os.Stdout)
}

func newInteractiveQuizCLI(api API, stdin io.Reader, stdout io.Writer) *InteractiveQuizCLI {
	return &InteractiveQuizCLI{
		api:          api,
		stdinReader:  bufio.NewReader(stdin),
		stdoutWriter: stdout,
		bold:         color.New(color.Bold),
		italic:       color.New(color.Italic),
		green:        color.New(color.FgGreen),
		red:          color.New(color.FgRed),
	}
}

// Run calls session until it ends, fails or the user interrupts.
func (cli *InteractiveQuizCLI) Run(ctx context.Context, session Session) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for ctx.Err() == nil {
			if err := session.Session(ctx); err != nil {
				if !errors.Is(err, errEnd) {
					errCh <- err
				}
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(cli.stdoutWriter, "\nReceived interrupt signal, exiting...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error: %w", err)
		}
	}
	return nil
}
