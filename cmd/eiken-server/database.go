package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/eiken/internal/config"
	"github.com/at-ishikawa/eiken/internal/database"
	"github.com/at-ishikawa/eiken/internal/question"
	"github.com/at-ishikawa/eiken/schemas"
)

const (
	connectAttempts = 5
	connectDelay    = 500 * time.Millisecond
)

// connect opens the database and waits until it answers a ping, so the server
// can start before a MySQL container is ready.
func connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("database.Open() > %w", err)
	}

	err = retry.Do(
		func() error {
			return db.PingContext(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(connectAttempts),
		retry.Delay(connectDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Default().WarnContext(ctx, "database is not ready", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	applied, err := database.Migrate(ctx, db, schemas.Migrations)
	if err != nil {
		return fmt.Errorf("database.Migrate() > %w", err)
	}
	slog.Default().InfoContext(ctx, "migrations applied", "count", len(applied), "files", applied)
	return nil
}

// seedQuestions loads questions from file, or the bundled sample bank when
// file is empty. With onlyIfEmpty it does nothing once the bank has questions.
func seedQuestions(ctx context.Context, db *sqlx.DB, file string, onlyIfEmpty bool) (int, error) {
	repo := question.NewDBRepository(db)
	if onlyIfEmpty {
		count, err := repo.Count(ctx)
		if err != nil {
			return 0, err
		}
		if count > 0 {
			slog.Default().DebugContext(ctx, "question bank is not empty, skip seeding", "count", count)
			return 0, nil
		}
	}

	var (
		questions []*question.Question
		err       error
	)
	if file != "" {
		questions, err = question.LoadYAML(file)
	} else {
		questions, err = question.ParseYAML(schemas.SampleQuestions)
	}
	if err != nil {
		return 0, fmt.Errorf("load questions: %w", err)
	}

	if err := repo.BatchCreate(ctx, questions); err != nil {
		return 0, fmt.Errorf("repo.BatchCreate() > %w", err)
	}
	slog.Default().InfoContext(ctx, "questions seeded", "count", len(questions), "file", file)
	return len(questions), nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()
			return migrate(ctx, db)
		},
	}
}

func newSeedCommand() *cobra.Command {
	var (
		file        string
		onlyIfEmpty bool
	)
	command := &cobra.Command{
		Use:   "seed",
		Short: "Load questions into the question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Seed.QuestionsFile
			}

			ctx := cmd.Context()
			db, err := connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()
			if err := migrate(ctx, db); err != nil {
				return err
			}

			n, err := seedQuestions(ctx, db, file, onlyIfEmpty)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d questions loaded\n", n)
			return err
		},
	}
	command.Flags().StringVar(&file, "file", "", "question bank YAML file (defaults to the bundled sample bank)")
	command.Flags().BoolVar(&onlyIfEmpty, "if-empty", false, "only seed when the question bank is empty")
	return command
}
