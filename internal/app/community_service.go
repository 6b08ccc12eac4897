package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"eatpl-quiz-service/internal/domain"
)

const maxCommentLength = 2000

// CommunityStore persists comments and issue reports.
type CommunityStore interface {
	ListComments(ctx context.Context, questionID int64) ([]domain.Comment, error)
	CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error)
	ReactToComment(ctx context.Context, commentID int64, like bool) (domain.Comment, error)
	CreateIssueReport(ctx context.Context, r domain.IssueReport) (domain.IssueReport, error)
	CountIssueReports(ctx context.Context) (int, error)
	ListIssueReports(ctx context.Context, req domain.PageRequest) ([]domain.IssueReport, error)
}

// CommunityService handles comments and issue reports on questions.
type CommunityService struct {
	store     CommunityStore
	questions QuestionStore
	now       func() time.Time
}

func NewCommunityService(store CommunityStore, questions QuestionStore) *CommunityService {
	return &CommunityService{store: store, questions: questions, now: time.Now}
}

// Comments lists the comments on a question, newest first.
func (s *CommunityService) Comments(ctx context.Context, questionID int64) ([]domain.Comment, error) {
	return s.store.ListComments(ctx, questionID)
}

// AddComment posts a comment on a question.
func (s *CommunityService) AddComment(ctx context.Context, user domain.User, questionID int64, text string) (domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Comment{}, fmt.Errorf("%w: comment is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		return domain.Comment{}, fmt.Errorf("%w: comment exceeds %d characters", domain.ErrInvalidInput, maxCommentLength)
	}
	if err := s.requireQuestion(ctx, questionID); err != nil {
		return domain.Comment{}, err
	}
	return s.store.CreateComment(ctx, domain.Comment{
		QuestionID: questionID,
		UserID:     user.ID,
		Username:   user.DisplayName(),
		Comment:    text,
		CreatedAt:  s.now().UTC(),
	})
}

// React adds a like or dislike to a comment.
func (s *CommunityService) React(ctx context.Context, commentID int64, like bool) (domain.Comment, error) {
	return s.store.ReactToComment(ctx, commentID, like)
}

// ReportIssue files an issue report against a question.
func (s *CommunityService) ReportIssue(ctx context.Context, user domain.User, questionID int64, description string) (domain.IssueReport, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return domain.IssueReport{}, fmt.Errorf("%w: please describe the issue", domain.ErrInvalidInput)
	}
	if err := s.requireQuestion(ctx, questionID); err != nil {
		return domain.IssueReport{}, err
	}
	return s.store.CreateIssueReport(ctx, domain.IssueReport{
		QuestionID:  questionID,
		UserID:      user.ID,
		Description: description,
		CreatedAt:   s.now().UTC(),
	})
}

// IssueReports returns one page of issue reports, newest first.
func (s *CommunityService) IssueReports(ctx context.Context, req domain.PageRequest) (domain.Page[domain.IssueReport], error) {
	req = req.Normalize()
	total, err := s.store.CountIssueReports(ctx)
	if err != nil {
		return domain.Page[domain.IssueReport]{}, err
	}
	reports, err := s.store.ListIssueReports(ctx, req)
	if err != nil {
		return domain.Page[domain.IssueReport]{}, err
	}
	return domain.NewPage(reports, total, req), nil
}

func (s *CommunityService) requireQuestion(ctx context.Context, questionID int64) error {
	if questionID <= 0 {
		return fmt.Errorf("%w: question id is required", domain.ErrInvalidInput)
	}
	rows, err := s.questions.QuestionRows(ctx, questionID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}
