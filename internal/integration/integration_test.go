package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/domain"
	pgstore "quiz-platform-service/internal/infra/postgres"
	pgmigrations "quiz-platform-service/internal/infra/postgres/migrations"
	infraredis "quiz-platform-service/internal/infra/redis"
)

type fixture struct {
	companyID  uuid.UUID
	userID     uuid.UUID
	quizID     uuid.UUID
	questionID uuid.UUID
	wrongID    uuid.UUID
	rightID    uuid.UUID
}

func TestCompleteQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	fix := fixture{
		companyID:  uuid.New(),
		userID:     uuid.New(),
		quizID:     uuid.New(),
		questionID: uuid.New(),
		wrongID:    uuid.New(),
		rightID:    uuid.New(),
	}
	seedQuiz(t, ctx, pgURL, fix)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	log := zap.NewNop().Sugar()
	store := pgstore.NewQuizStore(pool)
	responseCache := infraredis.NewResponseCache(redisClient, 48*time.Hour)
	contentCache := infraredis.NewContentCache(redisClient, store, 5*time.Minute)
	scoring := app.NewScoringService(store, responseCache, log)
	responses := app.NewResponseService(responseCache, contentCache, store)
	analytics := app.NewAnalyticsService(store)
	overdue := app.NewOverdueService(store, log)

	quiz, err := store.GetQuiz(ctx, fix.quizID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}

	result, err := scoring.EvaluateQuiz(ctx, quiz, domain.Completion{
		QuizID: fix.quizID,
		Questions: []domain.QuestionCompletion{
			{QuestionID: fix.questionID, AnswerIDs: []uuid.UUID{fix.rightID}},
		},
	}, fix.userID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result.Score != 100 {
		t.Fatalf("expected score 100, got %d", result.Score)
	}

	display, err := responses.UserQuizResponse(ctx, fix.userID, fix.quizID)
	if err != nil {
		t.Fatalf("responses: %v", err)
	}
	if display.Score != 100 || len(display.Questions) != 1 {
		t.Fatalf("unexpected display %+v", display)
	}
	if display.Questions[0].ChoosenAnswers[0].Text != "4" {
		t.Fatalf("unexpected answer text %q", display.Questions[0].ChoosenAnswers[0].Text)
	}

	points, err := analytics.AveragesOverIntervals(domain.ScoreSubject{Kind: domain.SubjectUser, ID: fix.userID}, app.IntervalDaily).Collect(ctx)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if len(points) != 1 || points[0].Average != 100 {
		t.Fatalf("unexpected trend %+v", points)
	}

	overdueQuizzes, err := overdue.OverdueQuizzes(ctx, fix.userID)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(overdueQuizzes) != 0 {
		t.Fatalf("expected no overdue quizzes right after completion, got %+v", overdueQuizzes)
	}

	// A retake with the wrong answer replaces the cached verdict.
	if _, err := scoring.EvaluateQuiz(ctx, quiz, domain.Completion{
		QuizID: fix.quizID,
		Questions: []domain.QuestionCompletion{
			{QuestionID: fix.questionID, AnswerIDs: []uuid.UUID{fix.wrongID}},
		},
	}, fix.userID); err != nil {
		t.Fatalf("retake: %v", err)
	}
	detail, found, err := responseCache.UserQuizResult(ctx, fix.userID, fix.quizID)
	if err != nil || !found {
		t.Fatalf("cache after retake: found=%v err=%v", found, err)
	}
	chosen := detail.Questions[0].ChosenAnswers
	if len(chosen) != 1 || chosen[0].AnswerID != fix.wrongID || chosen[0].IsCorrect {
		t.Fatalf("expected only the retake's wrong choice, got %+v", chosen)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuiz(t *testing.T, ctx context.Context, dsn string, fix fixture) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	exec := func(query string, args ...interface{}) {
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	exec(`INSERT INTO quizzes (id, company_id, title, description, frequency) VALUES (?, ?, ?, ?, ?)`,
		fix.quizID, fix.companyID, "Arithmetic", "Weekly check", 7)
	exec(`INSERT INTO questions (id, quizz_id, text) VALUES (?, ?, ?)`,
		fix.questionID, fix.quizID, "What is 2 + 2?")
	exec(`INSERT INTO answers (id, question_id, text, is_correct) VALUES (?, ?, ?, ?)`,
		fix.wrongID, fix.questionID, "3", false)
	exec(`INSERT INTO answers (id, question_id, text, is_correct) VALUES (?, ?, ?, ?)`,
		fix.rightID, fix.questionID, "4", true)
	exec(`INSERT INTO company_members (company_id, user_id) VALUES (?, ?)`,
		fix.companyID, fix.userID)
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
