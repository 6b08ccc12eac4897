package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"eatpl-quiz-service/internal/app"
	"eatpl-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// AttemptStore is a Redis-backed implementation of app.AttemptRepository.
// Notes:
//   - Redis holds the authoritative snapshot; every save writes it.
//   - An attempt stays in the local map only while it has subscribers, so
//     websocket clients share one instance. Other reads load from Redis and
//     see updates saved by any instance.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration

	mu   sync.Mutex
	live map[string]*liveAttempt
}

type liveAttempt struct {
	attempt *app.Attempt
	refs    int
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client: client,
		ttl:    ttl,
		live:   make(map[string]*liveAttempt),
	}
}

func (s *AttemptStore) Create(ctx context.Context, attempt *app.Attempt) error {
	return s.Save(ctx, attempt)
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (*app.Attempt, error) {
	if attempt, ok := s.liveAttempt(attemptID); ok {
		return attempt, nil
	}

	raw, err := s.client.Get(ctx, s.key(attemptID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load attempt %s: %w", attemptID, err)
	}
	var snap domain.AttemptSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode attempt %s: %w", attemptID, err)
	}
	return app.RestoreAttempt(snap, nil), nil
}

func (s *AttemptStore) Save(ctx context.Context, attempt *app.Attempt) error {
	payload, err := json.Marshal(attempt.Snapshot())
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(attempt.ID()), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save attempt %s: %w", attempt.ID(), err)
	}
	return nil
}

// Retain keeps a subscribed attempt in process and returns the shared copy.
func (s *AttemptStore) Retain(attempt *app.Attempt) *app.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live[attempt.ID()]
	if !ok {
		entry = &liveAttempt{attempt: attempt}
		s.live[attempt.ID()] = entry
	}
	entry.refs++
	return entry.attempt
}

// Release drops the local copy once its last subscriber is gone.
func (s *AttemptStore) Release(attemptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live[attemptID]
	if !ok {
		return
	}
	if entry.refs--; entry.refs <= 0 {
		delete(s.live, attemptID)
	}
}

func (s *AttemptStore) liveAttempt(attemptID string) (*app.Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live[attemptID]
	if !ok {
		return nil, false
	}
	return entry.attempt, true
}

func (s *AttemptStore) key(attemptID string) string {
	return "attempt:" + attemptID
}
