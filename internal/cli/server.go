package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/config"
	"quiz-platform-service/internal/infra/memory"
	pgstore "quiz-platform-service/internal/infra/postgres"
	redisinfra "quiz-platform-service/internal/infra/redis"
	transport "quiz-platform-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz platform server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	responseTTL := config.TTLDuration(cfg.Cache.ResponseTTL, 48*time.Hour)
	quizTTL := config.TTLDuration(cfg.Cache.QuizTTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var store app.QuizStore
	var contentLoader redisinfra.QuizContentLoader
	if pool != nil {
		pg := pgstore.NewQuizStore(pool)
		store = pg
		contentLoader = pg
	} else {
		log.Warn("postgres not configured, using in-memory store")
		mem := memory.NewQuizStore()
		store = mem
		contentLoader = mem
	}

	var responseCache app.ResponseCache
	var content app.QuizContentProvider
	if redisClient != nil {
		responseCache = redisinfra.NewResponseCache(redisClient, responseTTL)
		content = redisinfra.NewContentCache(redisClient, contentLoader, quizTTL)
	} else {
		log.Warn("redis not configured, using in-memory caches")
		responseCache = memory.NewResponseCache(responseTTL)
		content = memory.NewContentCache(contentLoader, quizTTL)
	}

	hub := app.NewNotificationHub()
	scoring := app.NewScoringService(store, responseCache, log)
	responses := app.NewResponseService(responseCache, content, store)
	analytics := app.NewAnalyticsService(store)
	overdue := app.NewOverdueService(store, log)
	notifier := app.NewNotificationDispatcher(store, hub)

	handler := transport.NewHandler(scoring, responses, analytics, overdue, store, log)
	wsHandler := transport.NewWSHandler(hub, log)

	router := handler.Routes()
	router.Get("/ws/notifications", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if interval := config.TTLDuration(cfg.Sweep.Interval, 0); interval > 0 {
		go runSweepLoop(sweepCtx, overdue, notifier, interval, log)
	}

	go func() {
		log.Infow("starting quiz platform service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runSweepLoop(ctx context.Context, overdue *app.OverdueService, notifier app.Notifier, interval time.Duration, log *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := overdue.Sweep(ctx, notifier); err != nil {
				log.Errorw("overdue sweep failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
