package domain

import "errors"

var (
	// ErrSectionNotFound indicates the section content could not be loaded.
	ErrSectionNotFound = errors.New("section not found")
	// ErrQuestionNotFound indicates a question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option label is not part of the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrAttemptNotFound is returned when an attempt does not exist or belongs to another user.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptNotActive is returned for answers outside the active phase.
	ErrAttemptNotActive = errors.New("attempt is not active")
	// ErrAttemptNotFinished is returned when a result is requested too early.
	ErrAttemptNotFinished = errors.New("attempt is not finished")
	// ErrAlreadyAnswered is returned when a question already has an answer.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrCommentNotFound indicates a comment ID is invalid.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned for missing or bad credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
)
