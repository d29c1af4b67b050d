package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-platform-service/internal/domain"
)

// OverdueService determines which quizzes a user must retake: those of their
// companies whose latest result is at least Frequency days old, or which they
// never completed.
type OverdueService struct {
	store QuizStore
	log   *zap.SugaredLogger
	clock func() time.Time
}

func NewOverdueService(store QuizStore, log *zap.SugaredLogger) *OverdueService {
	return &OverdueService{store: store, log: log, clock: time.Now}
}

// NewOverdueServiceWithClock is test-only for deterministic deadlines.
func NewOverdueServiceWithClock(store QuizStore, log *zap.SugaredLogger, now func() time.Time) *OverdueService {
	return &OverdueService{store: store, log: log, clock: now}
}

// OverdueQuizzes lists the user's overdue quizzes across all their companies.
// A completion exactly Frequency days old counts as overdue.
func (s *OverdueService) OverdueQuizzes(ctx context.Context, userID uuid.UUID) ([]domain.Quiz, error) {
	companies, err := s.store.UserCompanies(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	var overdue []domain.Quiz
	for _, companyID := range companies {
		quizzes, err := s.store.CompanyQuizzes(ctx, companyID)
		if err != nil {
			return nil, err
		}
		for _, quiz := range quizzes {
			latest, ok, err := s.store.LatestQuizResult(ctx, userID, quiz.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				overdue = append(overdue, quiz)
				continue
			}
			deadline := time.Duration(quiz.Frequency) * 24 * time.Hour
			if now.Sub(latest.CreatedAt) >= deadline {
				overdue = append(overdue, quiz)
			}
		}
	}
	return overdue, nil
}

// Sweep runs the detector for every known user and dispatches one
// notification per overdue quiz. Intended for a periodic scheduler.
func (s *OverdueService) Sweep(ctx context.Context, notifier Notifier) error {
	users, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return err
	}
	for _, userID := range users {
		overdue, err := s.OverdueQuizzes(ctx, userID)
		if err != nil {
			return err
		}
		for _, quiz := range overdue {
			if err := notifier.Notify(ctx, userID, "Overdued quizz", "You have overdued quizz "+quiz.Title); err != nil {
				return err
			}
		}
		if len(overdue) > 0 {
			s.log.Infow("overdue quizzes detected", "user", userID, "count", len(overdue))
		}
	}
	return nil
}
