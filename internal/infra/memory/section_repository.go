package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"eatpl-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// SectionLoader fetches section content from a backing store.
type SectionLoader interface {
	LoadSection(ctx context.Context, sectionID string) (domain.BankSection, error)
}

// SectionRepository caches section rows with TTL to avoid repeated DB hits.
type SectionRepository struct {
	loader SectionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedSection
}

type cachedSection struct {
	content   domain.BankSection
	expiresAt time.Time
}

func NewSectionRepository(loader SectionLoader, ttl time.Duration) *SectionRepository {
	return &SectionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSection),
	}
}

func (r *SectionRepository) GetSection(ctx context.Context, sectionID string) (domain.BankSection, error) {
	if content, ok := r.lookup(sectionID); ok {
		return content, nil
	}

	result, err, _ := r.sf.Do(sectionID, func() (interface{}, error) {
		if content, ok := r.lookup(sectionID); ok {
			return content, nil
		}

		content, err := r.loader.LoadSection(ctx, sectionID)
		if err != nil {
			return domain.BankSection{}, err
		}

		r.mu.Lock()
		r.cache[sectionID] = cachedSection{
			content:   content,
			expiresAt: r.clock().Add(r.ttlWithJitterLocked()),
		}
		r.mu.Unlock()
		return content, nil
	})
	if err != nil {
		return domain.BankSection{}, err
	}
	return result.(domain.BankSection), nil
}

// Invalidate drops a cached section so the next read reloads it.
func (r *SectionRepository) Invalidate(_ context.Context, sectionID string) {
	r.mu.Lock()
	delete(r.cache, sectionID)
	r.mu.Unlock()
	r.sf.Forget(sectionID)
}

func (r *SectionRepository) lookup(sectionID string) (domain.BankSection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[sectionID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.BankSection{}, false
	}
	return entry.content, true
}

func (r *SectionRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
