package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quiz-platform-service/internal/domain"
)

// ResponseCache stores one byte per chosen answer ("1" correct, "0" incorrect)
// under composite keys, bounded by a TTL. Entries are advisory: they are
// reconstructible from the persisted results, so loss only degrades the
// "view my answers" paths.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	return &ResponseCache{client: client, ttl: ttl}
}

// StoreResult writes a completion's verdicts as one MULTI/EXEC batch so a
// reader never observes a partially written attempt.
func (c *ResponseCache) StoreResult(ctx context.Context, userID, companyID uuid.UUID, result domain.QuizDetailResult) error {
	pipe := c.client.TxPipeline()
	for _, question := range result.Questions {
		for _, chosen := range question.ChosenAnswers {
			key := entryKey(userID, companyID, result.QuizID, question.QuestionID, chosen.AnswerID)
			value := "0"
			if chosen.IsCorrect {
				value = "1"
			}
			pipe.Set(ctx, key.String(), value, c.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store quiz responses: %w", err)
	}
	return nil
}

// Invalidate deletes every entry for (user, quiz), company wildcarded. Paired
// with StoreResult it replaces an attempt rather than merging into it: a
// retake choosing fewer answers must not resurrect earlier choices.
func (c *ResponseCache) Invalidate(ctx context.Context, userID, quizID uuid.UUID) error {
	keys, err := c.scanKeys(ctx, userQuizPattern(userID, quizID).String())
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate quiz responses: %w", err)
	}
	return nil
}

func (c *ResponseCache) UserQuizResult(ctx context.Context, userID, quizID uuid.UUID) (domain.QuizDetailResult, bool, error) {
	entries, err := c.fetch(ctx, userQuizPattern(userID, quizID).String())
	if err != nil {
		return domain.QuizDetailResult{}, false, err
	}
	if len(entries) == 0 {
		return domain.QuizDetailResult{}, false, nil
	}
	return groupEntries(entries)[0], true, nil
}

func (c *ResponseCache) UserResults(ctx context.Context, userID uuid.UUID) ([]domain.QuizDetailResult, error) {
	entries, err := c.fetch(ctx, userPattern(userID).String())
	if err != nil {
		return nil, err
	}
	return groupEntries(entries), nil
}

func (c *ResponseCache) CompanyQuizResults(ctx context.Context, companyID, quizID uuid.UUID) (map[uuid.UUID]domain.QuizDetailResult, error) {
	entries, err := c.fetch(ctx, companyQuizPattern(companyID, quizID).String())
	if err != nil {
		return nil, err
	}
	perUser := make(map[uuid.UUID][]cachedEntry)
	for _, entry := range entries {
		perUser[entry.key.UserID] = append(perUser[entry.key.UserID], entry)
	}
	results := make(map[uuid.UUID]domain.QuizDetailResult, len(perUser))
	for user, userEntries := range perUser {
		results[user] = groupEntries(userEntries)[0]
	}
	return results, nil
}

type cachedEntry struct {
	key     parsedKey
	correct bool
}

func (c *ResponseCache) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan response cache: %w", err)
	}
	return keys, nil
}

// fetch resolves a wildcard pattern to decoded entries: scan the keyspace,
// bulk-fetch the matched values, then parse each key back into its 5-tuple.
func (c *ResponseCache) fetch(ctx context.Context, pattern string) ([]cachedEntry, error) {
	keys, err := c.scanKeys(ctx, pattern)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch response cache values: %w", err)
	}

	entries := make([]cachedEntry, 0, len(keys))
	for i, raw := range values {
		if raw == nil {
			// Expired between scan and fetch.
			continue
		}
		key, err := parseAnswerKey(keys[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, cachedEntry{key: key, correct: raw == "1"})
	}
	return entries, nil
}

// groupEntries groups decoded entries by quiz, then by question within each
// quiz, preserving encounter order. A scan by user across companies can span
// multiple quizzes.
func groupEntries(entries []cachedEntry) []domain.QuizDetailResult {
	var results []domain.QuizDetailResult
	quizIndex := make(map[uuid.UUID]int)
	questionIndex := make(map[uuid.UUID]map[uuid.UUID]int)

	for _, entry := range entries {
		qi, ok := quizIndex[entry.key.QuizID]
		if !ok {
			qi = len(results)
			quizIndex[entry.key.QuizID] = qi
			questionIndex[entry.key.QuizID] = make(map[uuid.UUID]int)
			results = append(results, domain.QuizDetailResult{QuizID: entry.key.QuizID})
		}
		questions := questionIndex[entry.key.QuizID]
		idx, ok := questions[entry.key.QuestionID]
		if !ok {
			idx = len(results[qi].Questions)
			questions[entry.key.QuestionID] = idx
			results[qi].Questions = append(results[qi].Questions, domain.QuestionResult{QuestionID: entry.key.QuestionID})
		}
		results[qi].Questions[idx].ChosenAnswers = append(results[qi].Questions[idx].ChosenAnswers, domain.ChosenAnswer{
			AnswerID:  entry.key.AnswerID,
			IsCorrect: entry.correct,
		})
	}
	return results
}
