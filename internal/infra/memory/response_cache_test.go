package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"quiz-platform-service/internal/domain"
)

func singleAnswerDetail(quizID, questionID, answerID uuid.UUID, correct bool) domain.QuizDetailResult {
	return domain.QuizDetailResult{
		QuizID: quizID,
		Questions: []domain.QuestionResult{
			{QuestionID: questionID, ChosenAnswers: []domain.ChosenAnswer{{AnswerID: answerID, IsCorrect: correct}}},
		},
	}
}

func TestResponseCacheRoundTrip(t *testing.T) {
	cache := NewResponseCache(time.Hour)
	ctx := context.Background()
	userID, companyID, quizID, questionID, answerID := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()

	if err := cache.StoreResult(ctx, userID, companyID, singleAnswerDetail(quizID, questionID, answerID, true)); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, found, err := cache.UserQuizResult(ctx, userID, quizID)
	if err != nil || !found {
		t.Fatalf("fetch: found=%v err=%v", found, err)
	}
	if len(got.Questions) != 1 || got.Questions[0].QuestionID != questionID {
		t.Fatalf("unexpected questions %+v", got.Questions)
	}
	chosen := got.Questions[0].ChosenAnswers
	if len(chosen) != 1 || chosen[0].AnswerID != answerID || !chosen[0].IsCorrect {
		t.Fatalf("unexpected chosen answers %+v", chosen)
	}
}

func TestResponseCacheInvalidateThenStoreReplaces(t *testing.T) {
	cache := NewResponseCache(time.Hour)
	ctx := context.Background()
	userID, companyID, quizID, questionID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	first, second := uuid.New(), uuid.New()

	_ = cache.StoreResult(ctx, userID, companyID, domain.QuizDetailResult{
		QuizID: quizID,
		Questions: []domain.QuestionResult{
			{QuestionID: questionID, ChosenAnswers: []domain.ChosenAnswer{
				{AnswerID: first, IsCorrect: false},
				{AnswerID: second, IsCorrect: true},
			}},
		},
	})
	_ = cache.Invalidate(ctx, userID, quizID)
	_ = cache.StoreResult(ctx, userID, companyID, singleAnswerDetail(quizID, questionID, second, true))

	got, found, _ := cache.UserQuizResult(ctx, userID, quizID)
	if !found {
		t.Fatalf("expected cached retake")
	}
	chosen := got.Questions[0].ChosenAnswers
	if len(chosen) != 1 || chosen[0].AnswerID != second {
		t.Fatalf("expected earlier choices to be gone, got %+v", chosen)
	}
}

func TestResponseCacheExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewResponseCacheWithClock(time.Hour, func() time.Time { return now })
	ctx := context.Background()
	userID, quizID := uuid.New(), uuid.New()

	_ = cache.StoreResult(ctx, userID, uuid.New(), singleAnswerDetail(quizID, uuid.New(), uuid.New(), true))

	if _, found, _ := cache.UserQuizResult(ctx, userID, quizID); !found {
		t.Fatalf("expected entry before expiry")
	}

	now = now.Add(2 * time.Hour)
	if _, found, _ := cache.UserQuizResult(ctx, userID, quizID); found {
		t.Fatalf("expected entry to expire")
	}
}

func TestResponseCacheCompanyView(t *testing.T) {
	cache := NewResponseCache(time.Hour)
	ctx := context.Background()
	companyID, quizID := uuid.New(), uuid.New()
	alice, bob := uuid.New(), uuid.New()

	_ = cache.StoreResult(ctx, alice, companyID, singleAnswerDetail(quizID, uuid.New(), uuid.New(), true))
	_ = cache.StoreResult(ctx, bob, companyID, singleAnswerDetail(quizID, uuid.New(), uuid.New(), false))
	_ = cache.StoreResult(ctx, uuid.New(), uuid.New(), singleAnswerDetail(quizID, uuid.New(), uuid.New(), true))

	results, err := cache.CompanyQuizResults(ctx, companyID, quizID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 company members, got %d", len(results))
	}
	if _, ok := results[alice]; !ok {
		t.Fatalf("missing alice")
	}
	if _, ok := results[bob]; !ok {
		t.Fatalf("missing bob")
	}
}
