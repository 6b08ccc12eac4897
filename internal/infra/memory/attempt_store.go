package memory

import (
	"context"
	"sync"

	"eatpl-quiz-service/internal/app"
	"eatpl-quiz-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) Create(_ context.Context, attempt *app.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID()] = attempt
	return nil
}

func (s *AttemptStore) Get(_ context.Context, attemptID string) (*app.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

// Save is a no-op: the stored pointer is the live attempt.
func (s *AttemptStore) Save(_ context.Context, _ *app.Attempt) error {
	return nil
}
