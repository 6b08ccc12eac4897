package report

import (
	"bytes"
	"testing"
	"time"

	"eatpl-quiz-service/internal/app"
	"eatpl-quiz-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

func TestResultPDF(t *testing.T) {
	rows := []domain.OptionRow{
		{ID: 1, QuestionText: "Café au lait?", OptionOrder: 0, OptionText: "Yes", IsCorrect: true, Explanation: `milk\nand coffee`},
		{ID: 1, QuestionText: "Café au lait?", OptionOrder: 1, OptionText: "No"},
	}
	attempt := app.NewAttempt("a-1", "u-1", domain.Section{ID: "s"}, app.GroupRows(rows, app.FoldOptions{}))
	if _, err := attempt.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, _, err := attempt.Answer(1, "B"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	res, view, err := attempt.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	var buf bytes.Buffer
	if err := ResultPDF(&buf, "Basics", view, res); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected pdf header, got %q", buf.Bytes()[:8])
	}
}

func TestIssueReportsXLSX(t *testing.T) {
	reports := []domain.IssueReport{
		{ID: 7, QuestionID: 3, UserID: "u-1", Description: "typo in option B", CreatedAt: time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)},
	}
	var buf bytes.Buffer
	if err := IssueReportsXLSX(&buf, reports); err != nil {
		t.Fatalf("xlsx: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	header, _ := f.GetCellValue(issueSheet, "D1")
	desc, _ := f.GetCellValue(issueSheet, "D2")
	created, _ := f.GetCellValue(issueSheet, "E2")
	if header != "Description" || desc != "typo in option B" || created != "2024-05-01 08:30:00" {
		t.Fatalf("unexpected cells %q %q %q", header, desc, created)
	}
}

func TestSetRowReturnsFirstError(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, "Sheet1", 0, []interface{}{"x"}); err == nil {
		t.Fatalf("expected an error for row 0")
	}
	if err := setRow(f, "missing", 1, []interface{}{"x"}); err == nil {
		t.Fatalf("expected an error for an unknown sheet")
	}
	if err := setRow(f, "Sheet1", 1, []interface{}{"a", 2}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	if v, _ := f.GetCellValue("Sheet1", "B1"); v != "2" {
		t.Fatalf("unexpected cell %q", v)
	}
}
