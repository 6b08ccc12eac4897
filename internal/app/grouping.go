package app

import (
	"log"
	"strings"

	"eatpl-quiz-service/internal/domain"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// FoldOptions tunes how option rows become question records.
type FoldOptions struct {
	// DisableFallback stops option D from being taken as the answer when no
	// row of a question is flagged correct.
	DisableFallback bool
}

const fallbackOrder = 3

var explanationPolicy = bluemonday.UGCPolicy()

// GroupRows folds flat (question, option) rows into one record per question,
// in first-seen order. The input slice is not modified.
func GroupRows(rows []domain.OptionRow, opts FoldOptions) []domain.QuestionRecord {
	counts := make(map[int64]int, len(rows))
	valid := make([]domain.OptionRow, 0, len(rows))
	for _, row := range rows {
		if row.OptionOrder < 0 || row.OptionOrder >= domain.MaxOptions {
			log.Printf("dropping option row for question %d: option order %d out of range", row.ID, row.OptionOrder)
			continue
		}
		counts[row.ID]++
		valid = append(valid, row)
	}

	index := make(map[int64]int, len(counts))
	records := make([]domain.QuestionRecord, 0, len(counts))
	flagged := make(map[int64]bool, len(counts))

	for _, row := range valid {
		pos, ok := index[row.ID]
		if !ok {
			records = append(records, domain.QuestionRecord{
				ID:             row.ID,
				SectionID:      row.SectionID,
				QuestionText:   row.QuestionText,
				Sequence:       len(records) + 1,
				OptionCount:    counts[row.ID],
				IsSingleOption: counts[row.ID] == 1,
			})
			pos = len(records) - 1
			index[row.ID] = pos
		}
		rec := &records[pos]
		rec.SetOption(row.OptionOrder, row.OptionText)
		rec.FeaturedImg = row.FeaturedImg

		fallback := !opts.DisableFallback && rec.CorrectAnswer == "" && row.OptionOrder == fallbackOrder
		if row.IsCorrect || fallback || rec.IsSingleOption {
			rec.CorrectAnswer = domain.OptionLabels[row.OptionOrder]
			rec.ExplanationText = SanitizeExplanation(row.Explanation)
			rec.ExplanationImg = row.ExplanationImg
			rec.Tooltip = row.Tooltip
			if row.IsCorrect || rec.IsSingleOption {
				flagged[row.ID] = true
			}
		}
	}

	for i := range records {
		rec := &records[i]
		if rec.CorrectAnswer != "" && !flagged[rec.ID] {
			rec.CorrectAnswerInferred = true
			log.Printf("question %d has no option flagged correct; defaulting to %s", rec.ID, rec.CorrectAnswer)
		}
	}
	return records
}

// SanitizeExplanation turns stored explanation text into safe HTML.
func SanitizeExplanation(raw string) string {
	if raw == "" {
		return ""
	}
	raw = strings.ReplaceAll(raw, `\n`, "<br/>")
	raw = strings.ReplaceAll(raw, `\"`, `"`)
	return explanationPolicy.Sanitize(raw)
}

// PlainText returns the visible text of an HTML fragment with collapsed whitespace.
func PlainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(strings.ReplaceAll(html, "<br/>", "\n")))
	if err != nil {
		return strings.TrimSpace(html)
	}
	lines := strings.Split(doc.Text(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if f := strings.Join(strings.Fields(line), " "); f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, "\n")
}
