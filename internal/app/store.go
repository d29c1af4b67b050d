package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quiz-platform-service/internal/domain"
)

// QuizStore abstracts durable storage of quizzes, results and notifications
// (Postgres in production, in-memory for tests).
type QuizStore interface {
	GetQuiz(ctx context.Context, quizID uuid.UUID) (domain.Quiz, error)
	GetQuestion(ctx context.Context, questionID uuid.UUID) (domain.Question, error)
	GetQuestionAnswers(ctx context.Context, questionID uuid.UUID) ([]domain.Answer, error)
	QuizQuestionCount(ctx context.Context, quizID uuid.UUID) (int, error)

	CreateQuizResult(ctx context.Context, result domain.QuizResult) error
	LatestQuizResult(ctx context.Context, userID, quizID uuid.UUID) (domain.QuizResult, bool, error)
	// AverageScore returns the average of all results matching the subject with
	// CreatedAt <= until. ok is false when no results match.
	AverageScore(ctx context.Context, subject domain.ScoreSubject, until time.Time) (avg float64, ok bool, err error)

	UserCompanies(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	CompanyQuizzes(ctx context.Context, companyID uuid.UUID) ([]domain.Quiz, error)
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)

	CreateNotification(ctx context.Context, n domain.Notification) error
}

// ResponseCache is the addressing layer over the TTL key-value store holding
// per-answer verdicts. Reads treat absence as empty, never as an error.
type ResponseCache interface {
	// StoreResult writes the full verdict of one completion as a single atomic batch.
	StoreResult(ctx context.Context, userID, companyID uuid.UUID, result domain.QuizDetailResult) error
	// Invalidate deletes every cached entry for (user, quiz) across companies.
	Invalidate(ctx context.Context, userID, quizID uuid.UUID) error
	// UserQuizResult reconstructs the cached verdict for one (user, quiz).
	UserQuizResult(ctx context.Context, userID, quizID uuid.UUID) (domain.QuizDetailResult, bool, error)
	// UserResults reconstructs every cached verdict of a user, grouped by quiz
	// in encounter order.
	UserResults(ctx context.Context, userID uuid.UUID) ([]domain.QuizDetailResult, error)
	// CompanyQuizResults reconstructs cached verdicts of all users for one
	// (company, quiz), keyed by user.
	CompanyQuizResults(ctx context.Context, companyID, quizID uuid.UUID) (map[uuid.UUID]domain.QuizDetailResult, error)
}

// QuizContentProvider serves the full question/answer tree of a quiz for
// display paths (cached in front of the store).
type QuizContentProvider interface {
	GetQuizContent(ctx context.Context, quizID uuid.UUID) (domain.QuizContent, error)
}

// Notifier delivers a notification to a user.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string) error
}
