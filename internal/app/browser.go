package app

import (
	"context"
	"sync"
	"time"

	"eatpl-quiz-service/internal/domain"
)

// DefaultSearchDebounce is the quiet period before a search query runs.
const DefaultSearchDebounce = 500 * time.Millisecond

// Debouncer runs the most recent function once no new call arrived for delay.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, cancelling any call still waiting.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.seq == seq
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Stop cancels a pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
	}
}

// QuestionLister is the query side used by QuestionBrowser.
type QuestionLister interface {
	ListQuestions(ctx context.Context, q domain.QuestionQuery) (domain.Page[domain.AdminQuestion], error)
}

// BrowseEvent is a listing result, or the error of a failed refresh.
type BrowseEvent struct {
	Query domain.QuestionQuery
	Page  domain.Page[domain.AdminQuestion]
	Err   error
}

// QuestionBrowser holds the admin listing state of one client: search text,
// page, and the empty-explanation filter.
type QuestionBrowser struct {
	ctx      context.Context
	lister   QuestionLister
	debounce *Debouncer

	mu     sync.Mutex
	query  domain.QuestionQuery
	gen    uint64
	events chan BrowseEvent
	closed bool
}

func NewQuestionBrowser(ctx context.Context, lister QuestionLister, delay time.Duration, pageSize int) *QuestionBrowser {
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}
	q := domain.QuestionQuery{PageRequest: domain.PageRequest{Page: 1, Limit: pageSize}.Normalize()}
	return &QuestionBrowser{
		ctx:      ctx,
		lister:   lister,
		debounce: NewDebouncer(delay),
		query:    q,
		events:   make(chan BrowseEvent, 4),
	}
}

// Events delivers listing results. It is closed by Close.
func (b *QuestionBrowser) Events() <-chan BrowseEvent { return b.events }

// Query returns the current listing state.
func (b *QuestionBrowser) Query() domain.QuestionQuery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// SetSearch updates the search text after the debounce delay and returns to page one.
func (b *QuestionBrowser) SetSearch(text string) {
	b.debounce.Trigger(func() {
		b.mu.Lock()
		b.query.Search = text
		b.query.Page = 1
		b.mu.Unlock()
		b.Refresh()
	})
}

// SetPage moves to another page immediately.
func (b *QuestionBrowser) SetPage(page int) {
	b.mu.Lock()
	b.query.Page = page
	b.query.PageRequest = b.query.PageRequest.Normalize()
	b.mu.Unlock()
	b.Refresh()
}

// SetFilter toggles the empty-explanation filter and returns to page one.
func (b *QuestionBrowser) SetFilter(hasEmptyExplanation bool) {
	b.mu.Lock()
	b.query.HasEmptyExplanation = hasEmptyExplanation
	b.query.Page = 1
	b.mu.Unlock()
	b.Refresh()
}

// Refresh runs the current query and publishes the result. Results of
// superseded queries are discarded.
func (b *QuestionBrowser) Refresh() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.gen++
	gen := b.gen
	q := b.query
	b.mu.Unlock()

	page, err := b.lister.ListQuestions(b.ctx, q)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || gen != b.gen {
		return
	}
	ev := BrowseEvent{Query: q, Page: page, Err: err}
	select {
	case b.events <- ev:
	default:
		select {
		case <-b.events:
		default:
		}
		b.events <- ev
	}
}

// Close stops pending searches and closes the event channel.
func (b *QuestionBrowser) Close() {
	b.debounce.Stop()
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
}
