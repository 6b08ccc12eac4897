package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"eatpl-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// Bank is an in-memory question bank, useful for tests and demos. It serves
// sections, the admin listing, comments, issue reports, and users.
type Bank struct {
	mu       sync.RWMutex
	sections []domain.Section
	rows     []domain.OptionRow

	comments  []domain.Comment
	reports   []domain.IssueReport
	users     map[string]domain.User
	lastIDSeq int64
}

// NewBank builds a bank from an import file.
func NewBank(src domain.Bank) *Bank {
	b := &Bank{users: make(map[string]domain.User)}
	for _, s := range src.Sections {
		b.sections = append(b.sections, s.Section)
		for _, row := range s.Rows {
			row.SectionID = s.ID
			b.rows = append(b.rows, row)
		}
	}
	return b
}

func (b *Bank) nextID() int64 {
	b.lastIDSeq++
	return b.lastIDSeq
}

func (b *Bank) LoadSection(_ context.Context, sectionID string) (domain.BankSection, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.sections {
		if s.ID != sectionID {
			continue
		}
		content := domain.BankSection{Section: s}
		for _, row := range b.rows {
			if row.SectionID == sectionID {
				content.Rows = append(content.Rows, row)
			}
		}
		return content, nil
	}
	return domain.BankSection{}, domain.ErrSectionNotFound
}

func (b *Bank) ListSections(_ context.Context) ([]domain.Section, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Section, len(b.sections))
	copy(out, b.sections)
	return out, nil
}

func (b *Bank) CountQuestions(_ context.Context, q domain.QuestionQuery) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.matchingIDsLocked(q)), nil
}

func (b *Bank) QuestionPageRows(_ context.Context, q domain.QuestionQuery) ([]domain.OptionRow, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	page := domain.Paginate(b.matchingIDsLocked(q), q.PageRequest)
	out := make([]domain.OptionRow, 0, len(page.Items)*4)
	for _, id := range page.Items {
		out = append(out, b.rowsForLocked(id)...)
	}
	return out, nil
}

func (b *Bank) QuestionRows(_ context.Context, questionID int64) ([]domain.OptionRow, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rowsForLocked(questionID), nil
}

func (b *Bank) UpdateQuestion(_ context.Context, u domain.QuestionUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var template *domain.OptionRow
	for i := range b.rows {
		if b.rows[i].ID == u.ID {
			template = &b.rows[i]
			break
		}
	}
	if template == nil {
		return domain.ErrQuestionNotFound
	}
	base := *template

	for label, text := range u.Options {
		order := domain.LabelIndex(label)
		found := false
		for i := range b.rows {
			if b.rows[i].ID == u.ID && b.rows[i].OptionOrder == order {
				b.rows[i].OptionText = text
				found = true
			}
		}
		if !found {
			row := base
			row.OptionOrder = order
			row.OptionText = text
			row.IsCorrect = false
			row.Explanation = ""
			row.ExplanationImg = ""
			row.Tooltip = ""
			b.rows = append(b.rows, row)
		}
	}

	correct := domain.LabelIndex(u.CorrectAnswer)
	for i := range b.rows {
		if b.rows[i].ID != u.ID {
			continue
		}
		b.rows[i].QuestionText = u.QuestionText
		b.rows[i].IsCorrect = b.rows[i].OptionOrder == correct
		if b.rows[i].IsCorrect {
			b.rows[i].Explanation = u.ExplanationText
		}
	}
	return nil
}

func (b *Bank) matchingIDsLocked(q domain.QuestionQuery) []int64 {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	seen := make(map[int64]bool)
	hasExplanation := make(map[int64]bool)
	text := make(map[int64]string)
	for _, row := range b.rows {
		seen[row.ID] = true
		text[row.ID] = row.QuestionText
		if strings.TrimSpace(row.Explanation) != "" {
			hasExplanation[row.ID] = true
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		if search != "" && !strings.Contains(strings.ToLower(text[id]), search) {
			continue
		}
		if q.HasEmptyExplanation && hasExplanation[id] {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (b *Bank) rowsForLocked(questionID int64) []domain.OptionRow {
	var out []domain.OptionRow
	for _, row := range b.rows {
		if row.ID == questionID {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OptionOrder < out[j].OptionOrder })
	return out
}

func (b *Bank) ListComments(_ context.Context, questionID int64) ([]domain.Comment, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []domain.Comment{}
	for _, c := range b.comments {
		if c.QuestionID == questionID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (b *Bank) CreateComment(_ context.Context, c domain.Comment) (domain.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.ID = b.nextID()
	b.comments = append(b.comments, c)
	return c, nil
}

func (b *Bank) ReactToComment(_ context.Context, commentID int64, like bool) (domain.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.comments {
		if b.comments[i].ID != commentID {
			continue
		}
		if like {
			b.comments[i].Likes++
		} else {
			b.comments[i].Dislikes++
		}
		return b.comments[i], nil
	}
	return domain.Comment{}, domain.ErrCommentNotFound
}

func (b *Bank) CreateIssueReport(_ context.Context, r domain.IssueReport) (domain.IssueReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r.ID = b.nextID()
	b.reports = append(b.reports, r)
	return r, nil
}

func (b *Bank) CountIssueReports(_ context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.reports), nil
}

func (b *Bank) ListIssueReports(_ context.Context, req domain.PageRequest) ([]domain.IssueReport, error) {
	b.mu.RLock()
	ordered := make([]domain.IssueReport, len(b.reports))
	copy(ordered, b.reports)
	b.mu.RUnlock()

	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
		}
		return ordered[i].ID > ordered[j].ID
	})
	return domain.Paginate(ordered, req).Items, nil
}

func (b *Bank) UpsertUser(_ context.Context, u domain.User) (domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, existing := range b.users {
		if existing.Email != u.Email {
			continue
		}
		u.ID = id
		u.CreatedAt = existing.CreatedAt
		if u.Role != domain.RoleAdmin {
			u.Role = existing.Role
		}
		b.users[id] = u
		return u, nil
	}
	u.ID = uuid.NewString()
	b.users[u.ID] = u
	return u, nil
}

func (b *Bank) GetUser(_ context.Context, id string) (domain.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	u, ok := b.users[id]
	if !ok {
		return domain.User{}, domain.ErrUnauthorized
	}
	return u, nil
}
