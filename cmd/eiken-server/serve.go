package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/eiken/internal/bootstrap"
	"github.com/at-ishikawa/eiken/internal/config"
	"github.com/at-ishikawa/eiken/internal/exam"
	"github.com/at-ishikawa/eiken/internal/monitoring"
	"github.com/at-ishikawa/eiken/internal/question"
	"github.com/at-ishikawa/eiken/internal/server"
	"github.com/at-ishikawa/eiken/internal/telemetry"
)

func newServeCommand() *cobra.Command {
	var seed bool
	command := &cobra.Command{
		Use:   "serve",
		Short: "Run the exam API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, seed)
		},
	}
	command.Flags().BoolVar(&seed, "seed", false, "seed the question bank when it is empty")
	return command
}

func serve(ctx context.Context, cfg *config.Config, seed bool) error {
	app := bootstrap.New(time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second)

	db, err := connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	app.AddShutdownHook(func(context.Context) error {
		return db.Close()
	})
	if err := migrate(ctx, db); err != nil {
		return errors.Join(err, db.Close())
	}
	if seed {
		if _, err := seedQuestions(ctx, db, cfg.Seed.QuestionsFile, true); err != nil {
			return errors.Join(err, db.Close())
		}
	}

	shutdownTracer, err := telemetry.Setup(ctx, cfg.Tracing)
	if err != nil {
		return errors.Join(fmt.Errorf("telemetry.Setup() > %w", err), db.Close())
	}
	app.AddShutdownHook(shutdownTracer)

	srv, err := newHTTPServer(ctx, cfg, db, prometheus.NewRegistry())
	if err != nil {
		return errors.Join(err, shutdownTracer(ctx), db.Close())
	}
	app.AddShutdownHook(srv.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		slog.Default().InfoContext(ctx, "starting server", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

// newHTTPServer wires the handlers, metrics and tracing into an h2c server.
// ctx bounds the background work of the middleware.
func newHTTPServer(ctx context.Context, cfg *config.Config, db *sqlx.DB, reg *prometheus.Registry) (*http.Server, error) {
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}
	metrics, err := monitoring.New(reg)
	if err != nil {
		return nil, fmt.Errorf("monitoring.New() > %w", err)
	}

	handler, err := server.NewHandler(db, question.NewDBRepository(db), cfg.Exam, exam.WithObserver(metrics))
	if err != nil {
		return nil, fmt.Errorf("server.NewHandler() > %w", err)
	}

	router := server.NewRouter(ctx, server.RouterConfig{
		Server:  cfg.Server,
		Logger:  slog.Default(),
		Metrics: metrics.Handler(),
		Middleware: []gin.HandlerFunc{
			metrics.Middleware(),
			telemetry.Middleware(otel.GetTracerProvider()),
		},
	}, handler)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}
