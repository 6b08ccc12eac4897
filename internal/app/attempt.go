package app

import (
	"math"
	"sync"
	"time"

	"eatpl-quiz-service/internal/domain"
)

// Attempt is one user's walk through a section. It owns the current index,
// the selected answers, and the timer.
type Attempt struct {
	id        string
	userID    string
	sectionID string
	now       func() time.Time

	mu          sync.RWMutex
	state       domain.AttemptState
	questions   []domain.QuestionRecord
	answers     map[int64]string
	current     int
	timeLimit   time.Duration
	startedAt   time.Time
	finishedAt  time.Time
	subscribers map[chan domain.AttemptView]struct{}
}

// NewAttempt creates a not-started attempt over the given questions.
func NewAttempt(id, userID string, section domain.Section, questions []domain.QuestionRecord) *Attempt {
	return NewAttemptWithClock(id, userID, section, questions, time.Now)
}

// NewAttemptWithClock allows deterministic timestamps in tests.
func NewAttemptWithClock(id, userID string, section domain.Section, questions []domain.QuestionRecord, now func() time.Time) *Attempt {
	qs := make([]domain.QuestionRecord, len(questions))
	copy(qs, questions)
	return &Attempt{
		id:          id,
		userID:      userID,
		sectionID:   section.ID,
		now:         now,
		state:       domain.AttemptNotStarted,
		questions:   qs,
		answers:     make(map[int64]string),
		timeLimit:   time.Duration(section.TimeLimitSeconds) * time.Second,
		subscribers: make(map[chan domain.AttemptView]struct{}),
	}
}

// RestoreAttempt rebuilds an attempt from its persisted snapshot.
func RestoreAttempt(s domain.AttemptSnapshot, now func() time.Time) *Attempt {
	if now == nil {
		now = time.Now
	}
	answers := make(map[int64]string, len(s.Answers))
	for k, v := range s.Answers {
		answers[k] = v
	}
	return &Attempt{
		id:          s.ID,
		userID:      s.UserID,
		sectionID:   s.SectionID,
		now:         now,
		state:       s.State,
		questions:   s.Questions,
		answers:     answers,
		current:     s.CurrentIndex,
		timeLimit:   s.TimeLimit,
		startedAt:   s.StartedAt,
		finishedAt:  s.FinishedAt,
		subscribers: make(map[chan domain.AttemptView]struct{}),
	}
}

func (a *Attempt) ID() string     { return a.id }
func (a *Attempt) UserID() string { return a.userID }

// Snapshot returns the persisted form of the attempt.
func (a *Attempt) Snapshot() domain.AttemptSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	answers := make(map[int64]string, len(a.answers))
	for k, v := range a.answers {
		answers[k] = v
	}
	return domain.AttemptSnapshot{
		ID:           a.id,
		UserID:       a.userID,
		SectionID:    a.sectionID,
		State:        a.state,
		Questions:    a.questions,
		Answers:      answers,
		CurrentIndex: a.current,
		TimeLimit:    a.timeLimit,
		StartedAt:    a.startedAt,
		FinishedAt:   a.finishedAt,
	}
}

// Begin starts the timer.
func (a *Attempt) Begin() (domain.AttemptView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != domain.AttemptNotStarted {
		return a.viewLocked(), domain.ErrAttemptNotActive
	}
	a.state = domain.AttemptActive
	a.startedAt = a.now()
	return a.broadcastLocked(), nil
}

// Answer records the selected label for a question. Answers cannot be changed.
func (a *Attempt) Answer(questionID int64, label string) (domain.AnswerResult, domain.AttemptView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.expireLocked() {
		a.broadcastLocked()
	}
	if a.state != domain.AttemptActive {
		return domain.AnswerResult{}, a.viewLocked(), domain.ErrAttemptNotActive
	}
	q := a.questionLocked(questionID)
	if q == nil {
		return domain.AnswerResult{}, a.viewLocked(), domain.ErrQuestionNotFound
	}
	if _, ok := a.answers[questionID]; ok {
		return domain.AnswerResult{}, a.viewLocked(), domain.ErrAlreadyAnswered
	}
	if _, ok := q.Option(label); !ok {
		return domain.AnswerResult{}, a.viewLocked(), domain.ErrOptionNotFound
	}

	a.answers[questionID] = label
	res := domain.AnswerResult{
		QuestionID:      questionID,
		Selected:        label,
		Correct:         label == q.CorrectAnswer,
		CorrectAnswer:   q.CorrectAnswer,
		ExplanationText: q.ExplanationText,
	}
	return res, a.broadcastLocked(), nil
}

// Next moves to the following question, stopping at the last one.
func (a *Attempt) Next() domain.AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current < len(a.questions)-1 {
		a.current++
	}
	return a.broadcastLocked()
}

// Previous moves to the preceding question, stopping at the first one.
func (a *Attempt) Previous() domain.AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current > 0 {
		a.current--
	}
	return a.broadcastLocked()
}

// Goto jumps to a zero-based question index.
func (a *Attempt) Goto(index int) (domain.AttemptView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.questions) {
		return a.viewLocked(), domain.ErrQuestionNotFound
	}
	a.current = index
	return a.broadcastLocked(), nil
}

// Finish stops the timer and scores the attempt. Finishing twice returns the
// same result.
func (a *Attempt) Finish() (domain.Result, domain.AttemptView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.state {
	case domain.AttemptNotStarted:
		return domain.Result{}, a.viewLocked(), domain.ErrAttemptNotActive
	case domain.AttemptActive:
		if !a.expireLocked() {
			a.state = domain.AttemptFinished
			a.finishedAt = a.now()
		}
		return a.resultLocked(), a.broadcastLocked(), nil
	}
	return a.resultLocked(), a.viewLocked(), nil
}

// Result returns the score of a finished attempt.
func (a *Attempt) Result() (domain.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.expireLocked() {
		a.broadcastLocked()
	}
	if a.state != domain.AttemptFinished {
		return domain.Result{}, domain.ErrAttemptNotFinished
	}
	return a.resultLocked(), nil
}

// View returns the current client-facing state, finishing the attempt first
// if its time limit has passed.
func (a *Attempt) View() domain.AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.expireLocked() {
		return a.broadcastLocked()
	}
	return a.viewLocked()
}

// Elapsed returns whole seconds since the start, frozen once finished. An
// attempt past its time limit is finished first, so the value never exceeds it.
func (a *Attempt) Elapsed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.expireLocked() {
		a.broadcastLocked()
	}
	return a.elapsedLocked()
}

// Subscribe returns a channel of view updates and a cancel function that
// must be called to release it.
func (a *Attempt) Subscribe() (<-chan domain.AttemptView, func()) {
	ch := make(chan domain.AttemptView, 8)

	a.mu.Lock()
	if a.expireLocked() {
		a.broadcastLocked()
	}
	a.subscribers[ch] = struct{}{}
	// queued under the lock so no broadcast can overtake it
	ch <- a.viewLocked()
	a.mu.Unlock()

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

// Subscribers returns the number of open subscriptions.
func (a *Attempt) Subscribers() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.subscribers)
}

// Score computes the result for a set of records and answers.
func Score(questions []domain.QuestionRecord, answers map[int64]string) domain.Result {
	correct := 0
	for _, q := range questions {
		if label, ok := answers[q.ID]; ok && label == q.CorrectAnswer {
			correct++
		}
	}
	pct := 0
	if len(questions) > 0 {
		pct = int(math.Round(float64(correct) / float64(len(questions)) * 100))
	}
	return domain.Result{Correct: correct, Total: len(questions), Percentage: pct}
}

// expireLocked finishes an active attempt whose time limit has passed.
func (a *Attempt) expireLocked() bool {
	if a.state != domain.AttemptActive || a.timeLimit <= 0 {
		return false
	}
	deadline := a.startedAt.Add(a.timeLimit)
	if a.now().Before(deadline) {
		return false
	}
	a.state = domain.AttemptFinished
	a.finishedAt = deadline
	return true
}

func (a *Attempt) elapsedLocked() int {
	switch a.state {
	case domain.AttemptActive:
		return int(a.now().Sub(a.startedAt) / time.Second)
	case domain.AttemptFinished:
		return int(a.finishedAt.Sub(a.startedAt) / time.Second)
	}
	return 0
}

func (a *Attempt) resultLocked() domain.Result {
	res := Score(a.questions, a.answers)
	res.ElapsedSeconds = a.elapsedLocked()
	return res
}

func (a *Attempt) questionLocked(id int64) *domain.QuestionRecord {
	for i := range a.questions {
		if a.questions[i].ID == id {
			return &a.questions[i]
		}
	}
	return nil
}

func (a *Attempt) viewLocked() domain.AttemptView {
	finished := a.state == domain.AttemptFinished
	views := make([]domain.QuestionView, 0, len(a.questions))
	for _, q := range a.questions {
		label, answered := a.answers[q.ID]
		v := domain.QuestionView{QuestionRecord: q, SelectedAnswer: label, Answered: answered}
		if !answered && !finished {
			v.CorrectAnswer = ""
			v.CorrectAnswerInferred = false
			v.ExplanationText = ""
			v.ExplanationImg = ""
		}
		views = append(views, v)
	}
	view := domain.AttemptView{
		ID:             a.id,
		SectionID:      a.sectionID,
		State:          a.state,
		CurrentIndex:   a.current,
		ElapsedSeconds: a.elapsedLocked(),
		TimeLimit:      int(a.timeLimit / time.Second),
		AnsweredCount:  len(a.answers),
		Questions:      views,
	}
	if finished {
		res := a.resultLocked()
		view.Result = &res
	}
	return view
}

func (a *Attempt) broadcastLocked() domain.AttemptView {
	view := a.viewLocked()
	for ch := range a.subscribers {
		select {
		case ch <- view:
		default:
			// drop the stale update so slow readers never block writers
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}
