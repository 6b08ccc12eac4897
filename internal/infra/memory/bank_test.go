package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"eatpl-quiz-service/internal/domain"
)

func TestBankQuestionQueries(t *testing.T) {
	bank := NewBank(sampleBank())
	ctx := context.Background()

	total, err := bank.CountQuestions(ctx, domain.QuestionQuery{})
	if err != nil || total != 3 {
		t.Fatalf("count: %d %v", total, err)
	}

	q := domain.QuestionQuery{Search: "HEART", PageRequest: domain.PageRequest{Page: 1, Limit: 10}}
	if total, _ = bank.CountQuestions(ctx, q); total != 2 {
		t.Fatalf("expected 2 matches for search, got %d", total)
	}

	q = domain.QuestionQuery{HasEmptyExplanation: true, PageRequest: domain.PageRequest{Page: 1, Limit: 10}}
	rows, err := bank.QuestionPageRows(ctx, q)
	if err != nil {
		t.Fatalf("page rows: %v", err)
	}
	ids := map[int64]bool{}
	for _, r := range rows {
		ids[r.ID] = true
	}
	if ids[1] || !ids[2] || !ids[3] {
		t.Fatalf("unexpected ids for empty explanation filter: %v", ids)
	}
}

func TestBankPagination(t *testing.T) {
	src := domain.Bank{Sections: []domain.BankSection{{Section: domain.Section{ID: "s"}}}}
	for i := 1; i <= 120; i++ {
		src.Sections[0].Rows = append(src.Sections[0].Rows, domain.OptionRow{
			ID: int64(i), QuestionText: fmt.Sprintf("q%d", i), OptionText: "x", IsCorrect: true,
		})
	}
	bank := NewBank(src)

	rows, err := bank.QuestionPageRows(context.Background(), domain.QuestionQuery{PageRequest: domain.PageRequest{Page: 3, Limit: 50}})
	if err != nil {
		t.Fatalf("page rows: %v", err)
	}
	if len(rows) != 20 || rows[0].ID != 101 {
		t.Fatalf("expected 20 rows from 101, got %d starting %d", len(rows), rows[0].ID)
	}
}

func TestBankUpdateQuestion(t *testing.T) {
	bank := NewBank(sampleBank())
	ctx := context.Background()

	err := bank.UpdateQuestion(ctx, domain.QuestionUpdate{
		ID:              2,
		QuestionText:    "How many heart chambers?",
		Options:         map[string]string{"C": "5"},
		CorrectAnswer:   "A",
		ExplanationText: "two atria, two ventricles",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	rows, _ := bank.QuestionRows(ctx, 2)
	if len(rows) != 3 {
		t.Fatalf("expected new option row, got %d rows", len(rows))
	}
	if rows[2].OptionText != "5" || rows[2].SectionID != "cardio" {
		t.Fatalf("unexpected added row %+v", rows[2])
	}
	if !rows[0].IsCorrect || rows[0].Explanation != "two atria, two ventricles" || rows[0].QuestionText != "How many heart chambers?" {
		t.Fatalf("unexpected correct row %+v", rows[0])
	}

	if err := bank.UpdateQuestion(ctx, domain.QuestionUpdate{ID: 99}); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestBankComments(t *testing.T) {
	bank := NewBank(sampleBank())
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first, _ := bank.CreateComment(ctx, domain.Comment{QuestionID: 1, Comment: "first", CreatedAt: base})
	_, _ = bank.CreateComment(ctx, domain.Comment{QuestionID: 1, Comment: "second", CreatedAt: base.Add(time.Minute)})
	_, _ = bank.CreateComment(ctx, domain.Comment{QuestionID: 2, Comment: "other", CreatedAt: base})

	list, err := bank.ListComments(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Comment != "second" {
		t.Fatalf("expected newest first, got %+v", list)
	}

	c, err := bank.ReactToComment(ctx, first.ID, true)
	if err != nil || c.Likes != 1 {
		t.Fatalf("like: %+v %v", c, err)
	}
	c, _ = bank.ReactToComment(ctx, first.ID, false)
	if c.Dislikes != 1 {
		t.Fatalf("dislike: %+v", c)
	}
	if _, err := bank.ReactToComment(ctx, 999, true); !errors.Is(err, domain.ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got %v", err)
	}
}

func TestBankUpsertUserKeepsAdmin(t *testing.T) {
	bank := NewBank(domain.Bank{})
	ctx := context.Background()

	admin, err := bank.UpsertUser(ctx, domain.User{Email: "a@example.com", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	again, _ := bank.UpsertUser(ctx, domain.User{Email: "a@example.com", FirstName: "Ann", Role: domain.RoleUser})
	if again.ID != admin.ID || again.Role != domain.RoleAdmin || again.FirstName != "Ann" {
		t.Fatalf("unexpected upsert result %+v", again)
	}
	got, err := bank.GetUser(ctx, admin.ID)
	if err != nil || got.FirstName != "Ann" {
		t.Fatalf("get user: %+v %v", got, err)
	}
	if _, err := bank.GetUser(ctx, "nope"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
