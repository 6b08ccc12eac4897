package report

import (
	"fmt"
	"io"

	"eatpl-quiz-service/internal/app"
	"eatpl-quiz-service/internal/domain"
	"github.com/go-pdf/fpdf"
)

// ResultPDF renders the score and a per-question review of a finished attempt.
func ResultPDF(w io.Writer, sectionName string, view domain.AttemptView, res domain.Result) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, tr("Test Result"), "", 1, "C", false, 0, "")
	if sectionName != "" {
		pdf.SetFont("Helvetica", "", 13)
		pdf.CellFormat(0, 8, tr(sectionName), "", 1, "C", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8,
		fmt.Sprintf("Score: %d/%d (%d%%) | Time: %s", res.Correct, res.Total, res.Percentage, clock(res.ElapsedSeconds)),
		"", 1, "C", false, 0, "")

	for _, q := range view.Questions {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", q.Sequence, q.QuestionText)), "", "L", false)

		pdf.SetFont("Helvetica", "", 10)
		for _, label := range q.Labels() {
			text, _ := q.Option(label)
			marker := "   "
			switch {
			case label == q.CorrectAnswer:
				marker = "[+]"
			case label == q.SelectedAnswer:
				marker = "[x]"
			}
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("%s %s. %s", marker, label, text)), "", "L", false)
		}

		selected := q.SelectedAnswer
		if selected == "" {
			selected = "-"
		}
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 5, fmt.Sprintf("Your answer: %s | Correct answer: %s", selected, q.CorrectAnswer), "", 1, "L", false, 0, "")
		if text := app.PlainText(q.ExplanationText); text != "" {
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 5, tr("Explanation: "+text), "", "L", false)
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, "Attempt ID: "+view.ID, "", 1, "C", false, 0, "")

	return pdf.Output(w)
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
