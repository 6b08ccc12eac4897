package http

import (
	"net/http"
	"strconv"

	"eatpl-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

type questionsPage struct {
	Questions []domain.AdminQuestion `json:"questions"`
	domain.Page[domain.AdminQuestion]
}

func newQuestionsPage(p domain.Page[domain.AdminQuestion]) questionsPage {
	return questionsPage{Questions: p.Items, Page: p}
}

type updateQuestionRequest struct {
	QuestionText    string  `json:"question_text"`
	OptionA         *string `json:"option_a"`
	OptionB         *string `json:"option_b"`
	OptionC         *string `json:"option_c"`
	OptionD         *string `json:"option_d"`
	OptionE         *string `json:"option_e"`
	OptionF         *string `json:"option_f"`
	CorrectAnswer   string  `json:"correct_answer"`
	ExplanationText string  `json:"explanation_text"`
}

func (req updateQuestionRequest) toUpdate(id int64) domain.QuestionUpdate {
	options := map[string]string{}
	for i, text := range []*string{req.OptionA, req.OptionB, req.OptionC, req.OptionD, req.OptionE, req.OptionF} {
		if text != nil {
			options[domain.OptionLabels[i]] = *text
		}
	}
	return domain.QuestionUpdate{
		ID:              id,
		QuestionText:    req.QuestionText,
		Options:         options,
		CorrectAnswer:   req.CorrectAnswer,
		ExplanationText: req.ExplanationText,
	}
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	sections, err := s.questions.Sections(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
}

func (s *Server) handleSectionQuestions(w http.ResponseWriter, r *http.Request) {
	records, err := s.questions.SectionQuestions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": records})
}

func (s *Server) handleAdminQuestions(w http.ResponseWriter, r *http.Request) {
	q := domain.QuestionQuery{
		PageRequest: pageRequest(r),
		Search:      r.URL.Query().Get("search"),
	}
	q.HasEmptyExplanation, _ = strconv.ParseBool(r.URL.Query().Get("hasEmptyExplanation"))

	page, err := s.questions.ListQuestions(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuestionsPage(page))
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.questions.UpdateQuestion(r.Context(), req.toUpdate(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
