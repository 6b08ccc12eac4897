package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"eatpl-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// SectionLoader fetches section content from a backing store (e.g., Postgres).
type SectionLoader interface {
	LoadSection(ctx context.Context, sectionID string) (domain.BankSection, error)
}

// SectionRepository caches section rows in Redis and falls back to a loader on cache miss.
// Rows are stored as JSON: SET section:{sectionID}:rows {json}
type SectionRepository struct {
	client *redis.Client
	loader SectionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSectionRepository(client *redis.Client, loader SectionLoader, ttl time.Duration) *SectionRepository {
	return &SectionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *SectionRepository) GetSection(ctx context.Context, sectionID string) (domain.BankSection, error) {
	if content, ok := r.cached(ctx, sectionID); ok {
		return content, nil
	}

	result, err, _ := r.sf.Do(sectionID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if content, ok := r.cached(ctx, sectionID); ok {
			return content, nil
		}

		content, err := r.loader.LoadSection(ctx, sectionID)
		if err != nil {
			return domain.BankSection{}, err
		}

		payload, err := json.Marshal(content)
		if err != nil {
			return domain.BankSection{}, err
		}
		if err := r.client.Set(ctx, r.key(sectionID), payload, r.ttlWithJitter()).Err(); err != nil {
			log.Printf("cache section %s: %v", sectionID, err)
		}
		return content, nil
	})
	if err != nil {
		return domain.BankSection{}, err
	}
	return result.(domain.BankSection), nil
}

// Invalidate removes the cached rows so admin edits show up on the next read.
func (r *SectionRepository) Invalidate(ctx context.Context, sectionID string) {
	if err := r.client.Del(ctx, r.key(sectionID)).Err(); err != nil {
		log.Printf("invalidate section %s: %v", sectionID, err)
	}
	r.sf.Forget(sectionID)
}

func (r *SectionRepository) cached(ctx context.Context, sectionID string) (domain.BankSection, bool) {
	raw, err := r.client.Get(ctx, r.key(sectionID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("read cached section %s: %v", sectionID, err)
		}
		return domain.BankSection{}, false
	}
	var content domain.BankSection
	if err := json.Unmarshal(raw, &content); err != nil {
		return domain.BankSection{}, false
	}
	return content, true
}

func (r *SectionRepository) key(sectionID string) string {
	return "section:" + sectionID + ":rows"
}

func (r *SectionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
