package cli

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/config"
	pgstore "quiz-platform-service/internal/infra/postgres"
)

// NewSweepCmd runs one overdue-quiz sweep, persisting a notification per
// overdue quiz. Meant to be invoked by cron when the in-server loop is off.
func NewSweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Detect overdue quizzes and notify users once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context(), *configPath)
		},
	}
}

func runSweep(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := pgstore.NewQuizStore(pool)
	overdue := app.NewOverdueService(store, log)
	notifier := app.NewNotificationDispatcher(store, nil)
	return overdue.Sweep(ctx, notifier)
}
