package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/eiken/internal/client"
	"github.com/at-ishikawa/eiken/internal/config"
)

var (
	configFile string
	userID     string
)

var errNoUser = errors.New("user id is required: pass --user or set EIKEN_USER_ID")

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if _, fprintfErr := fmt.Fprintf(os.Stderr, "failed to execute a command: %+v\n", err); fprintfErr != nil {
			panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var debugMode bool
	rootCommand := &cobra.Command{
		Use:           "eiken",
		Short:         "Practice Eiken exams against the exam API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debugMode)
			return nil
		},
	}
	flags := rootCommand.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path")
	flags.StringVar(&userID, "user", "", "user id (defaults to client.user_id)")
	flags.BoolVar(&debugMode, "debug", false, "Enable debug mode")

	rootCommand.AddCommand(
		newQuizCommand(),
		newStartCommand(),
		newSubmitCommand(),
		newCompleteCommand(),
		newResultsCommand(),
		newStatsCommand(),
		newHistoryCommand(),
		newReportCommand(),
	)
	return rootCommand
}

// setupLogger configures the default logger based on debug mode
func setupLogger(debugMode bool) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})),
	)
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newClient loads the configuration and returns an API client for it.
// The caller closes the client.
func newClient() (*config.Config, *client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return cfg, client.New(cfg.Client), nil
}

func resolveUser(cfg *config.Config) (string, error) {
	if userID != "" {
		return userID, nil
	}
	if cfg.Client.UserID != "" {
		return cfg.Client.UserID, nil
	}
	return "", errNoUser
}
