package app_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"eatpl-quiz-service/internal/app"
	"eatpl-quiz-service/internal/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func sampleRows() []domain.OptionRow {
	return []domain.OptionRow{
		{ID: 1, SectionID: "s1", QuestionText: "2 + 2?", OptionOrder: 0, OptionText: "3"},
		{ID: 1, SectionID: "s1", QuestionText: "2 + 2?", OptionOrder: 1, OptionText: "4", IsCorrect: true, Explanation: "basic math"},
		{ID: 2, SectionID: "s1", QuestionText: "Capital of France?", OptionOrder: 0, OptionText: "Paris", IsCorrect: true},
		{ID: 2, SectionID: "s1", QuestionText: "Capital of France?", OptionOrder: 1, OptionText: "Rome"},
		{ID: 3, SectionID: "s1", QuestionText: "Water boils at 100C at sea level", OptionOrder: 0, OptionText: "True"},
	}
}

func newTestAttempt(clock *fakeClock, limit int) *app.Attempt {
	section := domain.Section{ID: "s1", Name: "Basics", TimeLimitSeconds: limit}
	return app.NewAttemptWithClock("a1", "u1", section, app.GroupRows(sampleRows(), app.FoldOptions{}), clock.Now)
}

func TestAttemptLifecycle(t *testing.T) {
	clock := newFakeClock()
	attempt := newTestAttempt(clock, 0)

	if _, _, err := attempt.Answer(1, "B"); !errors.Is(err, domain.ErrAttemptNotActive) {
		t.Fatalf("expected not active before start, got %v", err)
	}
	if attempt.Elapsed() != 0 {
		t.Fatalf("expected zero elapsed before start")
	}

	view, err := attempt.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if view.State != domain.AttemptActive {
		t.Fatalf("expected active, got %s", view.State)
	}
	if view.Questions[0].CorrectAnswer != "" || view.Questions[0].ExplanationText != "" {
		t.Fatalf("unanswered question must not reveal the answer")
	}

	clock.Advance(42 * time.Second)
	if attempt.Elapsed() != 42 {
		t.Fatalf("expected 42s elapsed, got %d", attempt.Elapsed())
	}

	res, view, err := attempt.Answer(1, "B")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !res.Correct || res.CorrectAnswer != "B" || res.ExplanationText != "basic math" {
		t.Fatalf("unexpected answer result %+v", res)
	}
	if view.Questions[0].CorrectAnswer != "B" || !view.Questions[0].Answered {
		t.Fatalf("answered question should reveal the answer, got %+v", view.Questions[0])
	}

	if _, _, err := attempt.Answer(1, "A"); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}
	if _, _, err := attempt.Answer(2, "C"); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected option not found, got %v", err)
	}
	if _, _, err := attempt.Answer(99, "A"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
	if _, _, err := attempt.Answer(2, "B"); err != nil {
		t.Fatalf("answer 2: %v", err)
	}

	if _, err := attempt.Result(); !errors.Is(err, domain.ErrAttemptNotFinished) {
		t.Fatalf("expected not finished, got %v", err)
	}

	result, view, err := attempt.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	// question 3 stays unanswered and still counts toward the total
	if result.Correct != 1 || result.Total != 3 || result.Percentage != 33 {
		t.Fatalf("unexpected result %+v", result)
	}
	if view.Result == nil || view.Questions[2].CorrectAnswer != "A" {
		t.Fatalf("finished view should reveal all answers, got %+v", view.Questions[2])
	}

	clock.Advance(time.Minute)
	if attempt.Elapsed() != 42 {
		t.Fatalf("elapsed must be frozen after finish, got %d", attempt.Elapsed())
	}
	again, _, err := attempt.Finish()
	if err != nil || again != result {
		t.Fatalf("expected idempotent finish, got %+v %v", again, err)
	}
	if _, _, err := attempt.Answer(3, "A"); !errors.Is(err, domain.ErrAttemptNotActive) {
		t.Fatalf("expected not active after finish, got %v", err)
	}
}

func TestAttemptNavigationBounds(t *testing.T) {
	attempt := newTestAttempt(newFakeClock(), 0)

	if v := attempt.Previous(); v.CurrentIndex != 0 {
		t.Fatalf("expected index to stay at 0, got %d", v.CurrentIndex)
	}
	attempt.Next()
	attempt.Next()
	if v := attempt.Next(); v.CurrentIndex != 2 {
		t.Fatalf("expected index to stop at last question, got %d", v.CurrentIndex)
	}
	if _, err := attempt.Goto(3); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected out of range goto to fail, got %v", err)
	}
	if v, err := attempt.Goto(1); err != nil || v.CurrentIndex != 1 {
		t.Fatalf("goto 1: %v %d", err, v.CurrentIndex)
	}
}

func TestAttemptTimeLimitFinishes(t *testing.T) {
	clock := newFakeClock()
	attempt := newTestAttempt(clock, 60)
	if _, err := attempt.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, _, err := attempt.Answer(2, "A"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	clock.Advance(90 * time.Second)
	if _, _, err := attempt.Answer(1, "B"); !errors.Is(err, domain.ErrAttemptNotActive) {
		t.Fatalf("expected expired attempt to reject answers, got %v", err)
	}
	res, err := attempt.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.ElapsedSeconds != 60 || res.Correct != 1 {
		t.Fatalf("unexpected result after expiry %+v", res)
	}
}

func TestAttemptSubscribeReceivesUpdates(t *testing.T) {
	attempt := newTestAttempt(newFakeClock(), 0)
	ch, cancel := attempt.Subscribe()
	defer cancel()

	initial := <-ch
	if initial.State != domain.AttemptNotStarted {
		t.Fatalf("expected initial snapshot, got %s", initial.State)
	}
	if _, err := attempt.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	update := <-ch
	if update.State != domain.AttemptActive {
		t.Fatalf("expected active update, got %s", update.State)
	}
}

func TestAttemptSnapshotRoundTrip(t *testing.T) {
	clock := newFakeClock()
	attempt := newTestAttempt(clock, 0)
	_, _ = attempt.Begin()
	_, _, _ = attempt.Answer(1, "A")
	attempt.Next()

	restored := app.RestoreAttempt(attempt.Snapshot(), clock.Now)
	if _, _, err := restored.Answer(1, "B"); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("restored attempt lost answers: %v", err)
	}
	if v := restored.View(); v.CurrentIndex != 1 || v.State != domain.AttemptActive {
		t.Fatalf("unexpected restored view %+v", v)
	}
}

func TestScoreRounding(t *testing.T) {
	qs := app.GroupRows(sampleRows(), app.FoldOptions{})
	res := app.Score(qs, map[int64]string{1: "B", 2: "A"})
	if res.Percentage != 67 {
		t.Fatalf("expected 67%%, got %d", res.Percentage)
	}
	if empty := app.Score(nil, nil); empty.Percentage != 0 || empty.Total != 0 {
		t.Fatalf("expected zero score for no questions, got %+v", empty)
	}
}

func TestAttemptElapsedStopsAtDeadline(t *testing.T) {
	clock := newFakeClock()
	attempt := newTestAttempt(clock, 60)
	if _, err := attempt.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}

	clock.Advance(5 * time.Minute)
	if got := attempt.Elapsed(); got != 60 {
		t.Fatalf("expected elapsed capped at the limit, got %d", got)
	}
	if _, err := attempt.Result(); err != nil {
		t.Fatalf("expected attempt finished at the deadline, got %v", err)
	}
}

func TestAttemptSubscribeInitialViewComesFirst(t *testing.T) {
	clock := newFakeClock()
	attempt := newTestAttempt(clock, 60)
	if _, err := attempt.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	clock.Advance(2 * time.Minute)

	ch, cancel := attempt.Subscribe()
	if attempt.Subscribers() != 1 {
		t.Fatalf("expected one subscriber, got %d", attempt.Subscribers())
	}
	initial := <-ch
	if initial.State != domain.AttemptFinished || initial.ElapsedSeconds != 60 {
		t.Fatalf("expected expired view first, got %s elapsed %d", initial.State, initial.ElapsedSeconds)
	}
	attempt.Next()
	if next := <-ch; next.CurrentIndex != 1 {
		t.Fatalf("expected navigation update after the initial view, got index %d", next.CurrentIndex)
	}

	cancel()
	if attempt.Subscribers() != 0 {
		t.Fatalf("expected no subscribers after cancel")
	}
}
