package app

import (
	"context"
	"fmt"
	"strings"

	"eatpl-quiz-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// QuestionStore is the persistent question bank.
type QuestionStore interface {
	ListSections(ctx context.Context) ([]domain.Section, error)
	CountQuestions(ctx context.Context, q domain.QuestionQuery) (int, error)
	// QuestionPageRows returns the option rows of the questions on the requested page.
	QuestionPageRows(ctx context.Context, q domain.QuestionQuery) ([]domain.OptionRow, error)
	QuestionRows(ctx context.Context, questionID int64) ([]domain.OptionRow, error)
	UpdateQuestion(ctx context.Context, u domain.QuestionUpdate) error
}

// QuestionService serves the question bank to the admin panel.
type QuestionService struct {
	store    QuestionStore
	sections SectionRepository
	fold     FoldOptions
}

func NewQuestionService(store QuestionStore, sections SectionRepository, fold FoldOptions) *QuestionService {
	return &QuestionService{store: store, sections: sections, fold: fold}
}

func (s *QuestionService) Sections(ctx context.Context) ([]domain.Section, error) {
	return s.store.ListSections(ctx)
}

// SectionQuestions returns the folded records of a section including answers.
func (s *QuestionService) SectionQuestions(ctx context.Context, sectionID string) ([]domain.QuestionRecord, error) {
	content, err := s.sections.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	return GroupRows(content.Rows, s.fold), nil
}

// ListQuestions returns one page of the admin question listing.
func (s *QuestionService) ListQuestions(ctx context.Context, q domain.QuestionQuery) (domain.Page[domain.AdminQuestion], error) {
	q.PageRequest = q.PageRequest.Normalize()
	q.Search = strings.TrimSpace(q.Search)

	var (
		total int
		rows  []domain.OptionRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountQuestions(gctx, q)
		total = n
		return err
	})
	g.Go(func() error {
		r, err := s.store.QuestionPageRows(gctx, q)
		rows = r
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Page[domain.AdminQuestion]{}, err
	}

	records := GroupRows(rows, s.fold)
	items := make([]domain.AdminQuestion, 0, len(records))
	for _, rec := range records {
		items = append(items, AdminQuestionFrom(rec))
	}
	return domain.NewPage(items, total, q.PageRequest), nil
}

// UpdateQuestion applies an admin edit and refreshes the cached section.
func (s *QuestionService) UpdateQuestion(ctx context.Context, u domain.QuestionUpdate) (domain.AdminQuestion, error) {
	u.QuestionText = strings.TrimSpace(u.QuestionText)
	u.CorrectAnswer = strings.ToUpper(strings.TrimSpace(u.CorrectAnswer))
	if u.QuestionText == "" {
		return domain.AdminQuestion{}, fmt.Errorf("%w: question text is required", domain.ErrInvalidInput)
	}
	if domain.LabelIndex(u.CorrectAnswer) < 0 {
		return domain.AdminQuestion{}, fmt.Errorf("%w: correct answer must be one of A-F", domain.ErrInvalidInput)
	}

	options := make(map[string]string, len(u.Options))
	for label, text := range u.Options {
		label = strings.ToUpper(label)
		if domain.LabelIndex(label) < 0 {
			return domain.AdminQuestion{}, fmt.Errorf("%w: unknown option %q", domain.ErrInvalidInput, label)
		}
		// blank text leaves the stored option unchanged
		if strings.TrimSpace(text) != "" {
			options[label] = text
		}
	}
	u.Options = options

	current, err := s.question(ctx, u.ID)
	if err != nil {
		return domain.AdminQuestion{}, err
	}
	if _, ok := u.Options[u.CorrectAnswer]; !ok {
		if _, exists := current.Option(u.CorrectAnswer); !exists {
			return domain.AdminQuestion{}, fmt.Errorf("%w: correct answer %s has no option text", domain.ErrInvalidInput, u.CorrectAnswer)
		}
	}

	if err := s.store.UpdateQuestion(ctx, u); err != nil {
		return domain.AdminQuestion{}, err
	}
	s.sections.Invalidate(ctx, current.SectionID)

	updated, err := s.question(ctx, u.ID)
	if err != nil {
		return domain.AdminQuestion{}, err
	}
	return AdminQuestionFrom(updated), nil
}

// question folds the rows of one question. Rows that all fall outside the
// option range leave nothing to fold.
func (s *QuestionService) question(ctx context.Context, id int64) (domain.QuestionRecord, error) {
	rows, err := s.store.QuestionRows(ctx, id)
	if err != nil {
		return domain.QuestionRecord{}, err
	}
	records := GroupRows(rows, s.fold)
	if len(records) == 0 {
		return domain.QuestionRecord{}, domain.ErrQuestionNotFound
	}
	return records[0], nil
}

// AdminQuestionFrom converts a folded record into an admin listing row.
func AdminQuestionFrom(rec domain.QuestionRecord) domain.AdminQuestion {
	return domain.AdminQuestion{
		ID:             rec.ID,
		SectionID:      rec.SectionID,
		Text:           rec.QuestionText,
		OptionA:        rec.OptionA,
		OptionB:        rec.OptionB,
		OptionC:        rec.OptionC,
		OptionD:        rec.OptionD,
		OptionE:        rec.OptionE,
		OptionF:        rec.OptionF,
		CorrectAnswer:  rec.CorrectAnswer,
		Explanation:    rec.ExplanationText,
		HasExplanation: PlainText(rec.ExplanationText) != "",
	}
}
