package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-platform-service/internal/domain"
)

// ResponseCache is the in-memory twin of the Redis response cache, with the
// same replace-not-merge invalidation and TTL semantics.
type ResponseCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   func() time.Time
	entries []responseEntry
}

type responseEntry struct {
	userID     uuid.UUID
	companyID  uuid.UUID
	quizID     uuid.UUID
	questionID uuid.UUID
	answerID   uuid.UUID
	correct    bool
	expiresAt  time.Time
}

func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{ttl: ttl, clock: time.Now}
}

// NewResponseCacheWithClock is test-only for deterministic expiry.
func NewResponseCacheWithClock(ttl time.Duration, now func() time.Time) *ResponseCache {
	return &ResponseCache{ttl: ttl, clock: now}
}

func (c *ResponseCache) StoreResult(_ context.Context, userID, companyID uuid.UUID, result domain.QuizDetailResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	expiresAt := c.clock().Add(c.ttl)
	for _, question := range result.Questions {
		for _, chosen := range question.ChosenAnswers {
			c.entries = append(c.entries, responseEntry{
				userID:     userID,
				companyID:  companyID,
				quizID:     result.QuizID,
				questionID: question.QuestionID,
				answerID:   chosen.AnswerID,
				correct:    chosen.IsCorrect,
				expiresAt:  expiresAt,
			})
		}
	}
	return nil
}

func (c *ResponseCache) Invalidate(_ context.Context, userID, quizID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.entries[:0]
	for _, entry := range c.entries {
		if entry.userID == userID && entry.quizID == quizID {
			continue
		}
		kept = append(kept, entry)
	}
	c.entries = kept
	return nil
}

func (c *ResponseCache) UserQuizResult(_ context.Context, userID, quizID uuid.UUID) (domain.QuizDetailResult, bool, error) {
	results := c.group(func(e responseEntry) bool {
		return e.userID == userID && e.quizID == quizID
	})
	if len(results) == 0 {
		return domain.QuizDetailResult{}, false, nil
	}
	return results[0], true, nil
}

func (c *ResponseCache) UserResults(_ context.Context, userID uuid.UUID) ([]domain.QuizDetailResult, error) {
	return c.group(func(e responseEntry) bool {
		return e.userID == userID
	}), nil
}

func (c *ResponseCache) CompanyQuizResults(_ context.Context, companyID, quizID uuid.UUID) (map[uuid.UUID]domain.QuizDetailResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.clock()
	users := make(map[uuid.UUID]struct{})
	for _, entry := range c.entries {
		if entry.companyID == companyID && entry.quizID == quizID && entry.expiresAt.After(now) {
			users[entry.userID] = struct{}{}
		}
	}
	results := make(map[uuid.UUID]domain.QuizDetailResult, len(users))
	for userID := range users {
		grouped := c.groupLocked(now, func(e responseEntry) bool {
			return e.userID == userID && e.companyID == companyID && e.quizID == quizID
		})
		results[userID] = grouped[0]
	}
	return results, nil
}

func (c *ResponseCache) group(match func(responseEntry) bool) []domain.QuizDetailResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.groupLocked(c.clock(), match)
}

// groupLocked groups live entries by quiz then question, in insertion order.
func (c *ResponseCache) groupLocked(now time.Time, match func(responseEntry) bool) []domain.QuizDetailResult {
	var results []domain.QuizDetailResult
	quizIndex := make(map[uuid.UUID]int)
	questionIndex := make(map[uuid.UUID]map[uuid.UUID]int)

	for _, entry := range c.entries {
		if !match(entry) || !entry.expiresAt.After(now) {
			continue
		}
		qi, ok := quizIndex[entry.quizID]
		if !ok {
			qi = len(results)
			quizIndex[entry.quizID] = qi
			questionIndex[entry.quizID] = make(map[uuid.UUID]int)
			results = append(results, domain.QuizDetailResult{QuizID: entry.quizID})
		}
		questions := questionIndex[entry.quizID]
		idx, ok := questions[entry.questionID]
		if !ok {
			idx = len(results[qi].Questions)
			questions[entry.questionID] = idx
			results[qi].Questions = append(results[qi].Questions, domain.QuestionResult{QuestionID: entry.questionID})
		}
		results[qi].Questions[idx].ChosenAnswers = append(results[qi].Questions[idx].ChosenAnswers, domain.ChosenAnswer{
			AnswerID:  entry.answerID,
			IsCorrect: entry.correct,
		})
	}
	return results
}
