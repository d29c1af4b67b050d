package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"quiz-platform-service/internal/domain"
)

// QuizContentLoader fetches the full quiz tree from a backing store.
type QuizContentLoader interface {
	LoadQuizContent(ctx context.Context, quizID uuid.UUID) (domain.QuizContent, error)
}

// ContentCache caches quiz content with TTL to avoid repeated store hits.
type ContentCache struct {
	loader QuizContentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[uuid.UUID]cachedContent
}

type cachedContent struct {
	content   domain.QuizContent
	expiresAt time.Time
}

func NewContentCache(loader QuizContentLoader, ttl time.Duration) *ContentCache {
	return &ContentCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[uuid.UUID]cachedContent),
	}
}

func (c *ContentCache) GetQuizContent(ctx context.Context, quizID uuid.UUID) (domain.QuizContent, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.content, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(quizID.String(), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.content, nil
		}
		c.mu.RUnlock()

		content, err := c.loader.LoadQuizContent(ctx, quizID)
		if err != nil {
			return domain.QuizContent{}, err
		}

		c.mu.Lock()
		c.cache[quizID] = cachedContent{
			content:   content,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return content, nil
	})
	if err != nil {
		return domain.QuizContent{}, err
	}
	return result.(domain.QuizContent), nil
}

func (c *ContentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
