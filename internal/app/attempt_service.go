package app

import (
	"context"
	"fmt"

	"eatpl-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// SectionRepository loads section content (from cache/backing store).
type SectionRepository interface {
	GetSection(ctx context.Context, sectionID string) (domain.BankSection, error)
	Invalidate(ctx context.Context, sectionID string)
}

// AttemptRepository abstracts how attempts are stored (in-memory, Redis, etc).
type AttemptRepository interface {
	Create(ctx context.Context, attempt *Attempt) error
	Get(ctx context.Context, attemptID string) (*Attempt, error)
	Save(ctx context.Context, attempt *Attempt) error
}

// AttemptTracker is implemented by repositories that keep a live attempt in
// process only while it has subscribers.
type AttemptTracker interface {
	// Retain registers a subscriber and returns the instance all subscribers
	// of the attempt share.
	Retain(attempt *Attempt) *Attempt
	Release(attemptID string)
}

// Move is a navigation request within an attempt.
type Move struct {
	Kind  string `json:"kind"`
	Index int    `json:"index"`
}

const (
	MoveNext     = "next"
	MovePrevious = "previous"
	MoveGoto     = "goto"
)

// AttemptService contains the test-taking use cases.
type AttemptService struct {
	attempts AttemptRepository
	sections SectionRepository
	fold     FoldOptions
	newID    func() string
}

func NewAttemptService(attempts AttemptRepository, sections SectionRepository, fold FoldOptions) *AttemptService {
	return &AttemptService{
		attempts: attempts,
		sections: sections,
		fold:     fold,
		newID:    func() string { return uuid.NewString() },
	}
}

// Create folds the section into questions and opens a new attempt for the user.
func (s *AttemptService) Create(ctx context.Context, userID, sectionID string, autoStart bool) (domain.AttemptView, error) {
	content, err := s.sections.GetSection(ctx, sectionID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	questions := GroupRows(content.Rows, s.fold)
	if len(questions) == 0 {
		return domain.AttemptView{}, fmt.Errorf("%w: section %s has no questions", domain.ErrInvalidInput, sectionID)
	}

	attempt := NewAttempt(s.newID(), userID, content.Section, questions)
	view := attempt.View()
	if autoStart {
		if view, err = attempt.Begin(); err != nil {
			return domain.AttemptView{}, err
		}
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return domain.AttemptView{}, err
	}
	return view, nil
}

// Attempt returns the live attempt owned by the user.
func (s *AttemptService) Attempt(ctx context.Context, userID, attemptID string) (*Attempt, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID() != userID {
		return nil, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *AttemptService) Get(ctx context.Context, userID, attemptID string) (domain.AttemptView, error) {
	attempt, err := s.Attempt(ctx, userID, attemptID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	view := attempt.View()
	if view.State == domain.AttemptFinished {
		// persist an expiry that happened on read
		_ = s.attempts.Save(ctx, attempt)
	}
	return view, nil
}

// Begin starts the attempt timer.
func (s *AttemptService) Begin(ctx context.Context, userID, attemptID string) (domain.AttemptView, error) {
	attempt, err := s.Attempt(ctx, userID, attemptID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	view, err := attempt.Begin()
	if err != nil {
		return view, err
	}
	return view, s.attempts.Save(ctx, attempt)
}

// Answer records the user's choice for a question.
func (s *AttemptService) Answer(ctx context.Context, userID, attemptID string, questionID int64, label string) (domain.AnswerResult, domain.AttemptView, error) {
	attempt, err := s.Attempt(ctx, userID, attemptID)
	if err != nil {
		return domain.AnswerResult{}, domain.AttemptView{}, err
	}
	res, view, err := attempt.Answer(questionID, label)
	if err != nil {
		return res, view, err
	}
	return res, view, s.attempts.Save(ctx, attempt)
}

// Navigate moves the current question index.
func (s *AttemptService) Navigate(ctx context.Context, userID, attemptID string, move Move) (domain.AttemptView, error) {
	attempt, err := s.Attempt(ctx, userID, attemptID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	var view domain.AttemptView
	switch move.Kind {
	case MoveNext:
		view = attempt.Next()
	case MovePrevious:
		view = attempt.Previous()
	case MoveGoto:
		if view, err = attempt.Goto(move.Index); err != nil {
			return view, err
		}
	default:
		return domain.AttemptView{}, fmt.Errorf("%w: unknown move %q", domain.ErrInvalidInput, move.Kind)
	}
	return view, s.attempts.Save(ctx, attempt)
}

// Finish stops the timer and scores the attempt.
func (s *AttemptService) Finish(ctx context.Context, userID, attemptID string) (domain.Result, domain.AttemptView, error) {
	attempt, err := s.Attempt(ctx, userID, attemptID)
	if err != nil {
		return domain.Result{}, domain.AttemptView{}, err
	}
	res, view, err := attempt.Finish()
	if err != nil {
		return res, view, err
	}
	return res, view, s.attempts.Save(ctx, attempt)
}

// Result returns the score and the fully revealed view of a finished attempt.
func (s *AttemptService) Result(ctx context.Context, userID, attemptID string) (domain.Result, domain.AttemptView, error) {
	attempt, err := s.Attempt(ctx, userID, attemptID)
	if err != nil {
		return domain.Result{}, domain.AttemptView{}, err
	}
	res, err := attempt.Result()
	if err != nil {
		return res, domain.AttemptView{}, err
	}
	return res, attempt.View(), nil
}

// Subscribe returns a channel that receives view updates for an attempt.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *AttemptService) Subscribe(ctx context.Context, userID, attemptID string) (<-chan domain.AttemptView, func(), error) {
	attempt, err := s.Attempt(ctx, userID, attemptID)
	if err != nil {
		return nil, nil, err
	}
	tracker, ok := s.attempts.(AttemptTracker)
	if !ok {
		ch, cancel := attempt.Subscribe()
		return ch, cancel, nil
	}
	ch, cancel := tracker.Retain(attempt).Subscribe()
	return ch, func() {
		cancel()
		tracker.Release(attemptID)
	}, nil
}
