package http

import (
	"bytes"
	"net/http"

	"eatpl-quiz-service/internal/domain"
	"eatpl-quiz-service/internal/report"
)

type commentRequest struct {
	QuestionID int64  `json:"questionId"`
	Comment    string `json:"comment"`
}

type issueRequest struct {
	QuestionID  int64  `json:"questionId"`
	Description string `json:"description"`
}

type reportsPage struct {
	Reports []domain.IssueReport `json:"reports"`
	domain.Page[domain.IssueReport]
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	qid, err := int64Param(r, "questionId")
	if err != nil {
		writeError(w, err)
		return
	}
	comments, err := s.community.Comments(r.Context(), qid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := s.community.AddComment(r.Context(), userFrom(r.Context()), req.QuestionID, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleReact(like bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := int64Param(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		c, err := s.community.React(r.Context(), id, like)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func (s *Server) handleReportIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	rep, err := s.community.ReportIssue(r.Context(), userFrom(r.Context()), req.QuestionID, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

func (s *Server) handleIssueReports(w http.ResponseWriter, r *http.Request) {
	page, err := s.community.IssueReports(r.Context(), pageRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reportsPage{Reports: page.Items, Page: page})
}

func (s *Server) handleExportIssueReports(w http.ResponseWriter, r *http.Request) {
	var all []domain.IssueReport
	req := domain.PageRequest{Page: 1, Limit: domain.MaxPageSize}
	for {
		page, err := s.community.IssueReports(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		all = append(all, page.Items...)
		if !page.HasNext {
			break
		}
		req.Page++
	}

	var buf bytes.Buffer
	if err := report.IssueReportsXLSX(&buf, all); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="issue-reports.xlsx"`)
	w.Write(buf.Bytes())
}
