package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"quiz-platform-service/internal/domain"
)

type countingLoader struct {
	calls int32
	store *QuizStore
}

func (l *countingLoader) LoadQuizContent(ctx context.Context, quizID uuid.UUID) (domain.QuizContent, error) {
	atomic.AddInt32(&l.calls, 1)
	return l.store.LoadQuizContent(ctx, quizID)
}

func seedContent(store *QuizStore) uuid.UUID {
	quizID := uuid.New()
	questionID := uuid.New()
	store.AddQuizContent(domain.QuizContent{
		Quiz: domain.Quiz{ID: quizID, CompanyID: uuid.New(), Title: "Cached"},
		Questions: []domain.QuestionContent{
			{
				Question: domain.Question{ID: questionID, QuizID: quizID, Text: "Pick"},
				Answers: []domain.Answer{
					{ID: uuid.New(), QuestionID: questionID, Text: "Yes", IsCorrect: true},
				},
			},
		},
	})
	return quizID
}

func TestContentCacheLoadsOnce(t *testing.T) {
	store := NewQuizStore()
	quizID := seedContent(store)
	loader := &countingLoader{store: store}
	cache := NewContentCache(loader, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		content, err := cache.GetQuizContent(ctx, quizID)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if content.Quiz.ID != quizID {
			t.Fatalf("get %d: unexpected quiz %v", i, content.Quiz.ID)
		}
	}
	if got := atomic.LoadInt32(&loader.calls); got != 1 {
		t.Fatalf("expected 1 loader call, got %d", got)
	}
}

func TestContentCacheCollapsesConcurrentMisses(t *testing.T) {
	store := NewQuizStore()
	quizID := seedContent(store)
	loader := &countingLoader{store: store}
	cache := NewContentCache(loader, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.GetQuizContent(ctx, quizID); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&loader.calls); got != 1 {
		t.Fatalf("expected concurrent misses to collapse to 1 load, got %d", got)
	}
}

func TestContentCachePropagatesNotFound(t *testing.T) {
	store := NewQuizStore()
	cache := NewContentCache(&countingLoader{store: store}, time.Minute)

	_, err := cache.GetQuizContent(context.Background(), uuid.New())
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
