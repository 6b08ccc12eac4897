package app_test

import (
	"strings"
	"testing"

	"eatpl-quiz-service/internal/app"
	"eatpl-quiz-service/internal/domain"
)

func TestGroupRowsFlaggedCorrect(t *testing.T) {
	rows := []domain.OptionRow{
		{ID: 7, QuestionText: "Pick C", OptionOrder: 0, OptionText: "a"},
		{ID: 7, QuestionText: "Pick C", OptionOrder: 1, OptionText: "b"},
		{ID: 7, QuestionText: "Pick C", OptionOrder: 2, OptionText: "c", IsCorrect: true, Explanation: "because"},
	}

	records := app.GroupRows(rows, app.FoldOptions{})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.CorrectAnswer != "C" {
		t.Fatalf("expected C, got %q", rec.CorrectAnswer)
	}
	if rec.CorrectAnswerInferred {
		t.Fatalf("flagged answer must not be marked inferred")
	}
	if rec.ExplanationText != "because" {
		t.Fatalf("unexpected explanation %q", rec.ExplanationText)
	}
	if rec.OptionCount != 3 || rec.IsSingleOption {
		t.Fatalf("unexpected option count %d single=%v", rec.OptionCount, rec.IsSingleOption)
	}
	if got := strings.Join(rec.Labels(), ","); got != "A,B,C" {
		t.Fatalf("unexpected labels %s", got)
	}
	if _, ok := rec.Option("D"); ok {
		t.Fatalf("slot D should be empty")
	}
}

func TestGroupRowsFallsBackToD(t *testing.T) {
	rows := make([]domain.OptionRow, 0, 4)
	for i := 0; i < 4; i++ {
		rows = append(rows, domain.OptionRow{ID: 8, OptionOrder: i, OptionText: domain.OptionLabels[i], Explanation: "exp " + domain.OptionLabels[i]})
	}

	rec := app.GroupRows(rows, app.FoldOptions{})[0]
	if rec.CorrectAnswer != "D" {
		t.Fatalf("expected fallback D, got %q", rec.CorrectAnswer)
	}
	if !rec.CorrectAnswerInferred {
		t.Fatalf("expected fallback answer to be flagged as inferred")
	}
	if rec.ExplanationText != "exp D" {
		t.Fatalf("unexpected explanation %q", rec.ExplanationText)
	}

	disabled := app.GroupRows(rows, app.FoldOptions{DisableFallback: true})[0]
	if disabled.CorrectAnswer != "" || disabled.CorrectAnswerInferred {
		t.Fatalf("expected no answer with fallback disabled, got %+v", disabled)
	}
}

func TestGroupRowsFlagAfterFallbackWins(t *testing.T) {
	rows := []domain.OptionRow{
		{ID: 1, OptionOrder: 3, OptionText: "d"},
		{ID: 1, OptionOrder: 4, OptionText: "e", IsCorrect: true},
		{ID: 1, OptionOrder: 0, OptionText: "a"},
	}
	rec := app.GroupRows(rows, app.FoldOptions{})[0]
	if rec.CorrectAnswer != "E" || rec.CorrectAnswerInferred {
		t.Fatalf("expected flagged E to win, got %q inferred=%v", rec.CorrectAnswer, rec.CorrectAnswerInferred)
	}
}

func TestGroupRowsFlagBeforeDKeepsFlag(t *testing.T) {
	rows := []domain.OptionRow{
		{ID: 1, OptionOrder: 1, OptionText: "b", IsCorrect: true},
		{ID: 1, OptionOrder: 3, OptionText: "d"},
	}
	rec := app.GroupRows(rows, app.FoldOptions{})[0]
	if rec.CorrectAnswer != "B" {
		t.Fatalf("expected B, got %q", rec.CorrectAnswer)
	}
}

func TestGroupRowsSingleOption(t *testing.T) {
	rows := []domain.OptionRow{{ID: 3, QuestionText: "The sky is blue", OptionOrder: 1, OptionText: "True statement", Explanation: "yes"}}
	rec := app.GroupRows(rows, app.FoldOptions{DisableFallback: true})[0]
	if !rec.IsSingleOption || rec.CorrectAnswer != "B" || rec.ExplanationText != "yes" {
		t.Fatalf("unexpected single option record %+v", rec)
	}
	if rec.CorrectAnswerInferred {
		t.Fatalf("single option answer is not inferred")
	}
}

func TestGroupRowsSequenceFollowsFirstAppearance(t *testing.T) {
	rows := []domain.OptionRow{
		{ID: 30, OptionOrder: 0},
		{ID: 10, OptionOrder: 0},
		{ID: 30, OptionOrder: 1},
		{ID: 20, OptionOrder: 0},
		{ID: 10, OptionOrder: 1},
		{ID: 99, OptionOrder: 7},
	}
	records := app.GroupRows(rows, app.FoldOptions{})
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	wantIDs := []int64{30, 10, 20}
	for i, rec := range records {
		if rec.ID != wantIDs[i] || rec.Sequence != i+1 {
			t.Fatalf("record %d: got id=%d seq=%d", i, rec.ID, rec.Sequence)
		}
	}
	if rows[0].ID != 30 || len(rows) != 6 {
		t.Fatalf("input rows were modified")
	}
}

func TestSanitizeExplanation(t *testing.T) {
	got := app.SanitizeExplanation(`line one\nline two<script>alert(1)</script>`)
	if !strings.Contains(got, "<br") {
		t.Fatalf("expected line break, got %q", got)
	}
	if strings.Contains(got, "script") || strings.Contains(got, `\n`) {
		t.Fatalf("expected unsafe markup removed, got %q", got)
	}

	got = app.SanitizeExplanation(`<a href=\"https://example.com\">ref</a>`)
	if !strings.Contains(got, "https://example.com") || strings.Contains(got, `\`) {
		t.Fatalf("expected unescaped link, got %q", got)
	}
}

func TestPlainText(t *testing.T) {
	got := app.PlainText("<p>Hello <b>world</b></p><br/>  second   line ")
	if got != "Hello world\nsecond line" {
		t.Fatalf("unexpected plain text %q", got)
	}
	if app.PlainText("<br/>") != "" {
		t.Fatalf("expected empty text for markup-only html")
	}
}
