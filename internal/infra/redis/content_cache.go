package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-platform-service/internal/domain"
)

// QuizContentLoader fetches the full quiz tree from the backing store.
type QuizContentLoader interface {
	LoadQuizContent(ctx context.Context, quizID uuid.UUID) (domain.QuizContent, error)
}

// ContentCache caches full quiz content as JSON under quiz:{id}:content and
// falls back to the loader on a miss. Concurrent misses for the same quiz
// collapse to one load.
type ContentCache struct {
	client *redis.Client
	loader QuizContentLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewContentCache(client *redis.Client, loader QuizContentLoader, ttl time.Duration) *ContentCache {
	return &ContentCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ContentCache) GetQuizContent(ctx context.Context, quizID uuid.UUID) (domain.QuizContent, error) {
	key := c.contentKey(quizID)

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return decodeContent(raw)
	}

	result, err, _ := c.sf.Do(quizID.String(), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := c.client.Get(ctx, key).Result()
		if err == nil {
			return decodeContent(raw)
		}

		content, err := c.loader.LoadQuizContent(ctx, quizID)
		if err != nil {
			return domain.QuizContent{}, err
		}

		data, err := json.Marshal(content)
		if err != nil {
			return domain.QuizContent{}, fmt.Errorf("marshal quiz content: %w", err)
		}
		_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		return content, nil
	})
	if err != nil {
		return domain.QuizContent{}, err
	}
	return result.(domain.QuizContent), nil
}

func (c *ContentCache) contentKey(quizID uuid.UUID) string {
	return "quiz:" + quizID.String() + ":content"
}

func decodeContent(raw string) (domain.QuizContent, error) {
	var content domain.QuizContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return domain.QuizContent{}, fmt.Errorf("unmarshal quiz content: %w", err)
	}
	return content, nil
}

func (c *ContentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
