package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"eatpl-quiz-service/internal/domain"
)

func TestSectionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{SectionLoader: NewBank(sampleBank())}
	repo := NewSectionRepository(loader, time.Minute)

	if _, err := repo.GetSection(context.Background(), "cardio"); err != nil {
		t.Fatalf("get section: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetSection(context.Background(), "cardio"); err != nil {
		t.Fatalf("get section 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	repo.Invalidate(context.Background(), "cardio")
	if _, err := repo.GetSection(context.Background(), "cardio"); err != nil {
		t.Fatalf("get section 3: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestSectionRepositoryExpires(t *testing.T) {
	loader := &countingLoader{SectionLoader: NewBank(sampleBank())}
	repo := NewSectionRepository(loader, time.Minute)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	if _, err := repo.GetSection(context.Background(), "cardio"); err != nil {
		t.Fatalf("get section: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := repo.GetSection(context.Background(), "cardio"); err != nil {
		t.Fatalf("get section: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestSectionRepositoryMissing(t *testing.T) {
	repo := NewSectionRepository(NewBank(sampleBank()), time.Minute)
	if _, err := repo.GetSection(context.Background(), "nope"); !errors.Is(err, domain.ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
}

type countingLoader struct {
	SectionLoader
	calls int
}

func (l *countingLoader) LoadSection(ctx context.Context, sectionID string) (domain.BankSection, error) {
	l.calls++
	return l.SectionLoader.LoadSection(ctx, sectionID)
}

func sampleBank() domain.Bank {
	return domain.Bank{Sections: []domain.BankSection{
		{
			Section: domain.Section{ID: "cardio", Name: "Cardiology", TimeLimitSeconds: 600},
			Rows: []domain.OptionRow{
				{ID: 1, QuestionText: "Normal resting heart rate?", OptionOrder: 0, OptionText: "20"},
				{ID: 1, QuestionText: "Normal resting heart rate?", OptionOrder: 1, OptionText: "60-100", IsCorrect: true, Explanation: "adult range"},
				{ID: 2, QuestionText: "Heart chambers?", OptionOrder: 0, OptionText: "4", IsCorrect: true},
				{ID: 2, QuestionText: "Heart chambers?", OptionOrder: 1, OptionText: "3"},
			},
		},
		{
			Section: domain.Section{ID: "pharm", Name: "Pharmacology"},
			Rows: []domain.OptionRow{
				{ID: 3, QuestionText: "Antidote for heparin?", OptionOrder: 0, OptionText: "Protamine", IsCorrect: true},
			},
		},
	}}
}
