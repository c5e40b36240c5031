package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the totals of the user",
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

			stats, err := c.UserStats(cmd.Context(), user)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d exams, %d correct answers\n", stats.ID, stats.TotalExams, stats.TotalCorrect)
			return err
		},
	}
}

func newHistoryCommand() *cobra.Command {
	var limit int
	command := &cobra.Command{
		Use:   "history",
		Short: "Print the sessions of the user, newest first",
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

			history, err := c.History(cmd.Context(), user, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(history) == 0 {
				_, err = fmt.Fprintln(out, "no sessions")
				return err
			}
			for _, s := range history {
				completedAt := ""
				if s.CompletedAt != nil {
					completedAt = s.CompletedAt.Local().Format("2006-01-02 15:04")
				}
				if _, err := fmt.Fprintf(out, "#%d\t%s\t%5.1f\t%d/%d\t%s\n", s.ID, s.Level, s.Score, s.CorrectAnswers, s.TotalQuestions, completedAt); err != nil {
					return err
				}
			}
			return nil
		},
	}
	command.Flags().IntVar(&limit, "limit", 0, "number of sessions (defaults to the server limit)")
	return command
}
