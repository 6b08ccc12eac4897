package report

import (
	"fmt"
	"io"

	"eatpl-quiz-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

const issueSheet = "Issue Reports"

var issueHeaders = []interface{}{"ID", "Question ID", "User ID", "Description", "Created At"}

var issueColWidths = []struct {
	from, to string
	width    float64
}{
	{"A", "C", 14},
	{"D", "D", 60},
	{"E", "E", 22},
}

// IssueReportsXLSX writes the reports as a single-sheet workbook.
func IssueReportsXLSX(w io.Writer, reports []domain.IssueReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", issueSheet); err != nil {
		return err
	}
	if err := setRow(f, issueSheet, 1, issueHeaders); err != nil {
		return err
	}
	for i, r := range reports {
		values := []interface{}{r.ID, r.QuestionID, r.UserID, r.Description, r.CreatedAt.UTC().Format("2006-01-02 15:04:05")}
		if err := setRow(f, issueSheet, i+2, values); err != nil {
			return fmt.Errorf("issue report %d: %w", r.ID, err)
		}
	}
	for _, c := range issueColWidths {
		if err := f.SetColWidth(issueSheet, c.from, c.to, c.width); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
