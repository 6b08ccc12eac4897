package http

import (
	"bytes"
	"net/http"

	"eatpl-quiz-service/internal/app"
	"eatpl-quiz-service/internal/domain"
	"eatpl-quiz-service/internal/report"
	"github.com/go-chi/chi/v5"
)

type createAttemptRequest struct {
	AutoStart *bool `json:"autoStart"`
}

type answerRequest struct {
	QuestionID int64  `json:"questionId"`
	Label      string `json:"label"`
}

type answerResponse struct {
	Result  domain.AnswerResult `json:"result"`
	Attempt domain.AttemptView  `json:"attempt"`
}

type resultResponse struct {
	Result  domain.Result      `json:"result"`
	Attempt domain.AttemptView `json:"attempt"`
}

func (s *Server) handleCreateAttempt(w http.ResponseWriter, r *http.Request) {
	var req createAttemptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	autoStart := s.opts.AutoStart
	if req.AutoStart != nil {
		autoStart = *req.AutoStart
	}
	view, err := s.attempts.Create(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"), autoStart)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	view, err := s.attempts.Get(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	view, err := s.attempts.Begin(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, view, err := s.attempts.Answer(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"), req.QuestionID, req.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Result: res, Attempt: view})
}

func (s *Server) handleMove(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		move := app.Move{Kind: kind}
		if kind == app.MoveGoto {
			if err := decodeJSON(r, &move); err != nil {
				writeError(w, err)
				return
			}
			move.Kind = kind
		}
		view, err := s.attempts.Navigate(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"), move)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	res, view, err := s.attempts.Finish(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Result: res, Attempt: view})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	res, view, err := s.attempts.Result(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Result: res, Attempt: view})
}

func (s *Server) handleResultPDF(w http.ResponseWriter, r *http.Request) {
	res, view, err := s.attempts.Result(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := report.ResultPDF(&buf, s.sectionName(r, view.SectionID), view, res); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="result-`+view.ID+`.pdf"`)
	w.Write(buf.Bytes())
}

func (s *Server) sectionName(r *http.Request, sectionID string) string {
	sections, err := s.questions.Sections(r.Context())
	if err != nil {
		return sectionID
	}
	for _, sec := range sections {
		if sec.ID == sectionID {
			return sec.Name
		}
	}
	return sectionID
}
