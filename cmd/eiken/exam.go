package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/eiken/internal/cli"
	"github.com/at-ishikawa/eiken/internal/question"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// levelFlag returns the level given on the command line or the configured default.
func levelFlag(level, fallback string) (question.Level, error) {
	if level == "" {
		level = fallback
	}
	return question.ParseLevel(level)
}

func newQuizCommand() *cobra.Command {
	var (
		level string
		count int
	)
	command := &cobra.Command{
		Use:   "quiz",
		Short: "Take an exam interactively, answering one question at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, c, err := newClient()
			if err != nil {
				return err
			}
			defer func() {
				_ = c.Close()
			}()

			user, err := resolveUser(cfg)
			if err != nil {
				return err
			}
			lv, err := levelFlag(level, cfg.Client.DefaultLevel)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			base := cli.NewInteractiveQuizCLI(c)
			quiz, err := cli.NewExamQuizCLI(ctx, base, user, lv, count)
			if err != nil {
				return err
			}
			return base.Run(ctx, quiz)
		},
	}
	command.Flags().StringVar(&level, "level", "", "Eiken level, e.g. 3級 (defaults to client.default_level)")
	command.Flags().IntVar(&count, "count", 10, "maximum number of questions")
	return command
}

func newStartCommand() *cobra.Command {
	var (
		level string
		count int
	)
	command := &cobra.Command{
		Use:   "start",
		Short: "Start an exam session and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, c, err := newClient()
			if err != nil {
				return err
			}
			defer func() {
				_ = c.Close()
			}()

			user, err := resolveUser(cfg)
			if err != nil {
				return err
			}
			lv, err := levelFlag(level, cfg.Client.DefaultLevel)
			if err != nil {
				return err
			}

			id, err := c.StartExam(cmd.Context(), user, lv, count)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "session %d started (%s, %d questions)\n", id, lv, count)
			return err
		},
	}
	command.Flags().StringVar(&level, "level", "", "Eiken level (defaults to client.default_level)")
	command.Flags().IntVar(&count, "count", 10, "number of questions in the session")
	return command
}

func newSubmitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <session-id> <question-id> <answer>",
		Short: "Submit an answer and print whether it is correct",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0])
			if err != nil {
				return err
			}
			questionID, err := parseID(args[1])
			if err != nil {
				return err
			}

			_, c, err := newClient()
			if err != nil {
				return err
			}
			defer func() {
				_ = c.Close()
			}()

			grade, err := c.SubmitAnswer(cmd.Context(), sessionID, questionID, args[2])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if grade.IsCorrect {
				_, err = fmt.Fprintln(out, "correct")
			} else {
				_, err = fmt.Fprintf(out, "incorrect: the answer is %s\n", grade.CorrectAnswer)
			}
			if err == nil && grade.Explanation != nil {
				_, err = fmt.Fprintf(out, "explanation: %s\n", *grade.Explanation)
			}
			return err
		},
	}
}

func newCompleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <session-id>",
		Short: "Complete a session and print its score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, c, err := newClient()
			if err != nil {
				return err
			}
			defer func() {
				_ = c.Close()
			}()

			score, err := c.CompleteExam(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "session %d completed: score %.1f\n", sessionID, score)
			return err
		},
	}
}

func newResultsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "results <session-id>",
		Short: "Print the answers of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, c, err := newClient()
			if err != nil {
				return err
			}
			defer func() {
				_ = c.Close()
			}()

			results, err := c.Results(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s := results.Session
			status := "in progress"
			if s.IsCompleted() {
				status = fmt.Sprintf("score %.1f", s.Score)
			}
			if _, err := fmt.Fprintf(out, "session %d (%s, %s): %s\n", s.ID, s.UserID, s.Level, status); err != nil {
				return err
			}
			for i, a := range results.Answers {
				mark := "o"
				if !a.IsCorrect {
					mark = "x"
				}
				if _, err := fmt.Fprintf(out, "%d. [%s] %s\n   answer: %s, correct: %s\n", i+1, mark, a.QuestionText, a.UserAnswer, a.CorrectAnswer); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
