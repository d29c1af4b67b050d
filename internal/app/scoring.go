package app

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-platform-service/internal/domain"
)

// ScoringService evaluates quiz completions: it scores submissions against the
// stored questions, persists the result and rewrites the response cache.
type ScoringService struct {
	store QuizStore
	cache ResponseCache
	log   *zap.SugaredLogger
	locks keyedMutex
	clock func() time.Time
}

func NewScoringService(store QuizStore, cache ResponseCache, log *zap.SugaredLogger) *ScoringService {
	return &ScoringService{
		store: store,
		cache: cache,
		log:   log,
		clock: time.Now,
	}
}

// NewScoringServiceWithClock is test-only for deterministic timestamps.
func NewScoringServiceWithClock(store QuizStore, cache ResponseCache, log *zap.SugaredLogger, now func() time.Time) *ScoringService {
	s := NewScoringService(store, cache, log)
	s.clock = now
	return s
}

// EvaluateQuestion scores one question of a submission.
//
// Let C be the question's correct-answer count. Chosen ids collapse to a set,
// then each correct choice adds 1 and each incorrect choice subtracts 1. Any
// incorrect choice forces the fractional score to 0; otherwise it is
// max(0, tally) / C. Ids that don't resolve within this quiz are NotFound
// errors, not zero scores.
func (s *ScoringService) EvaluateQuestion(ctx context.Context, quizID uuid.UUID, completion domain.QuestionCompletion) (float64, domain.QuestionResult, error) {
	question, err := s.store.GetQuestion(ctx, completion.QuestionID)
	if err != nil {
		return 0, domain.QuestionResult{}, err
	}
	if question.QuizID != quizID {
		return 0, domain.QuestionResult{}, domain.NewNotFound("Question")
	}

	answers, err := s.store.GetQuestionAnswers(ctx, question.ID)
	if err != nil {
		return 0, domain.QuestionResult{}, err
	}
	byID := make(map[uuid.UUID]domain.Answer, len(answers))
	correctCount := 0
	for _, answer := range answers {
		byID[answer.ID] = answer
		if answer.IsCorrect {
			correctCount++
		}
	}

	result := domain.QuestionResult{QuestionID: question.ID}
	tally := 0
	anyIncorrect := false
	for _, answerID := range dedupe(completion.AnswerIDs) {
		answer, ok := byID[answerID]
		if !ok {
			return 0, domain.QuestionResult{}, domain.NewNotFound("Answer")
		}
		result.ChosenAnswers = append(result.ChosenAnswers, domain.ChosenAnswer{
			AnswerID:  answer.ID,
			IsCorrect: answer.IsCorrect,
		})
		if answer.IsCorrect {
			tally++
		} else {
			tally--
			anyIncorrect = true
		}
	}

	if anyIncorrect {
		return 0, result, nil
	}
	if tally < 0 {
		tally = 0
	}
	return float64(tally) / float64(correctCount), result, nil
}

// EvaluateQuiz scores a full completion and returns the persisted QuizResult.
//
// Per-question fractional scores are each weighted 1/question_count, so
// questions omitted from the submission contribute 0. The sum is scaled to
// 0..100 and floored. The result row is persisted before the cache is
// invalidated and rewritten; validation errors abort before any persistence.
func (s *ScoringService) EvaluateQuiz(ctx context.Context, quiz domain.Quiz, completion domain.Completion, userID uuid.UUID) (domain.QuizResult, error) {
	seen := make(map[uuid.UUID]struct{}, len(completion.Questions))
	for _, question := range completion.Questions {
		if _, dup := seen[question.QuestionID]; dup {
			return domain.QuizResult{}, domain.NewBusinessRule("completion contains duplicate question")
		}
		seen[question.QuestionID] = struct{}{}
	}

	unlock := s.locks.lock(userID.String() + "/" + completion.QuizID.String())
	defer unlock()

	questionCount, err := s.store.QuizQuestionCount(ctx, completion.QuizID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	if questionCount == 0 {
		return domain.QuizResult{}, domain.NewNotFound("Question")
	}

	score := 0.0
	detail := domain.QuizDetailResult{QuizID: completion.QuizID}
	for _, question := range completion.Questions {
		fractional, questionResult, err := s.EvaluateQuestion(ctx, completion.QuizID, question)
		if err != nil {
			return domain.QuizResult{}, err
		}
		score += fractional / float64(questionCount)
		detail.Questions = append(detail.Questions, questionResult)
	}

	result := domain.QuizResult{
		ID:        uuid.New(),
		UserID:    userID,
		QuizID:    completion.QuizID,
		CompanyID: quiz.CompanyID,
		Score:     int(math.Floor(score * 100)),
		CreatedAt: s.clock(),
	}
	if err := s.store.CreateQuizResult(ctx, result); err != nil {
		return domain.QuizResult{}, err
	}

	// The cache is advisory: a reader between delete and rewrite sees "not yet
	// computed", never a merge of two attempts.
	if err := s.cache.Invalidate(ctx, userID, completion.QuizID); err != nil {
		return domain.QuizResult{}, err
	}
	if err := s.cache.StoreResult(ctx, userID, quiz.CompanyID, detail); err != nil {
		return domain.QuizResult{}, err
	}
	s.log.Infow("quiz completed", "user", userID, "quizz", completion.QuizID, "score", result.Score)
	return result, nil
}

// dedupe collapses ids to a set, keeping first-encounter order.
func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// keyedMutex serializes evaluations per (user, quiz) so two concurrent
// re-submissions cannot interleave their invalidate/rewrite steps. Cross-process
// races remain last-write-wins.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedLock{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
