package domain

import "time"

// MaxOptions is the number of option slots a question can carry (A..F).
const MaxOptions = 6

// OptionLabels maps option order to its label.
var OptionLabels = [MaxOptions]string{"A", "B", "C", "D", "E", "F"}

// LabelIndex returns the option order for a label, or -1 if the label is unknown.
func LabelIndex(label string) int {
	for i, l := range OptionLabels {
		if l == label {
			return i
		}
	}
	return -1
}

// OptionRow is one (question, option) pair as stored in the question bank.
type OptionRow struct {
	ID             int64  `json:"id" yaml:"id"`
	SectionID      string `json:"section_id,omitempty" yaml:"section_id"`
	QuestionText   string `json:"question_text" yaml:"question_text"`
	OptionOrder    int    `json:"optionOrder" yaml:"option_order"`
	OptionText     string `json:"option_text" yaml:"option_text"`
	IsCorrect      bool   `json:"isCorrect" yaml:"is_correct"`
	Explanation    string `json:"explanation" yaml:"explanation"`
	ExplanationImg string `json:"explanation_img" yaml:"explanation_img"`
	Tooltip        string `json:"tooltip" yaml:"tooltip"`
	FeaturedImg    string `json:"featured_img" yaml:"featured_img"`
}

// QuestionRecord is the grouped, per-question view derived from option rows.
type QuestionRecord struct {
	ID           int64  `json:"id"`
	SectionID    string `json:"section_id,omitempty"`
	QuestionText string `json:"question_text"`
	Sequence     int    `json:"sequence"`
	OptionCount  int    `json:"optionCount"`

	OptionA *string `json:"option_a,omitempty"`
	OptionB *string `json:"option_b,omitempty"`
	OptionC *string `json:"option_c,omitempty"`
	OptionD *string `json:"option_d,omitempty"`
	OptionE *string `json:"option_e,omitempty"`
	OptionF *string `json:"option_f,omitempty"`

	CorrectAnswer         string `json:"correct_answer"`
	CorrectAnswerInferred bool   `json:"correct_answer_inferred,omitempty"`
	ExplanationText       string `json:"explanation_text"`
	ExplanationImg        string `json:"explaination_img,omitempty"`
	Tooltip               string `json:"tooltip,omitempty"`
	FeaturedImg           string `json:"featured_img,omitempty"`
	IsSingleOption        bool   `json:"is_single_option"`
}

func (q *QuestionRecord) slot(i int) **string {
	switch i {
	case 0:
		return &q.OptionA
	case 1:
		return &q.OptionB
	case 2:
		return &q.OptionC
	case 3:
		return &q.OptionD
	case 4:
		return &q.OptionE
	case 5:
		return &q.OptionF
	}
	return nil
}

// SetOption fills the slot for the given option order. Out-of-range orders are ignored.
func (q *QuestionRecord) SetOption(order int, text string) {
	if p := q.slot(order); p != nil {
		t := text
		*p = &t
	}
}

// Option returns the text for a label and whether the slot is populated.
func (q QuestionRecord) Option(label string) (string, bool) {
	p := q.slot(LabelIndex(label))
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

// Labels lists the populated option labels in order.
func (q QuestionRecord) Labels() []string {
	labels := make([]string, 0, MaxOptions)
	for i, l := range OptionLabels {
		if p := q.slot(i); p != nil && *p != nil {
			labels = append(labels, l)
		}
	}
	return labels
}

// Section groups questions that are taken together as one timed test.
type Section struct {
	ID               string `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	TimeLimitSeconds int    `json:"timeLimitSeconds,omitempty" yaml:"time_limit_seconds"`
}

// Bank is the import format for seeding sections and their option rows.
type Bank struct {
	Sections []BankSection `yaml:"sections" json:"sections"`
}

// BankSection is a section with its flattened option rows.
type BankSection struct {
	Section `yaml:",inline"`
	Rows    []OptionRow `yaml:"rows" json:"rows"`
}

// AttemptState is the lifecycle position of an attempt.
type AttemptState string

const (
	AttemptNotStarted AttemptState = "not_started"
	AttemptActive     AttemptState = "active"
	AttemptFinished   AttemptState = "finished"
)

// AttemptSnapshot is the persisted form of an attempt.
type AttemptSnapshot struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	SectionID    string           `json:"sectionId"`
	State        AttemptState     `json:"state"`
	Questions    []QuestionRecord `json:"questions"`
	Answers      map[int64]string `json:"answers"`
	CurrentIndex int              `json:"currentIndex"`
	TimeLimit    time.Duration    `json:"timeLimit"`
	StartedAt    time.Time        `json:"startedAt"`
	FinishedAt   time.Time        `json:"finishedAt"`
}

// QuestionView is a question as shown to the test taker. Correct answer and
// explanation stay empty until the question is answered or the attempt ends.
type QuestionView struct {
	QuestionRecord
	SelectedAnswer string `json:"selected_answer,omitempty"`
	Answered       bool   `json:"answered"`
}

// AttemptView is the client-facing state of an attempt.
type AttemptView struct {
	ID             string         `json:"id"`
	SectionID      string         `json:"sectionId"`
	State          AttemptState   `json:"state"`
	CurrentIndex   int            `json:"currentIndex"`
	ElapsedSeconds int            `json:"elapsedSeconds"`
	TimeLimit      int            `json:"timeLimitSeconds,omitempty"`
	AnsweredCount  int            `json:"answeredCount"`
	Questions      []QuestionView `json:"questions"`
	Result         *Result        `json:"result,omitempty"`
}

// AnswerResult is returned when a question is answered.
type AnswerResult struct {
	QuestionID      int64  `json:"questionId"`
	Selected        string `json:"selected"`
	Correct         bool   `json:"correct"`
	CorrectAnswer   string `json:"correctAnswer"`
	ExplanationText string `json:"explanationText"`
}

// Result is the score of a finished attempt.
type Result struct {
	Correct        int `json:"correct"`
	Total          int `json:"total"`
	Percentage     int `json:"percentage"`
	ElapsedSeconds int `json:"elapsedSeconds"`
}

// Comment is a user remark on a question.
type Comment struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"questionId"`
	UserID     string    `json:"userId"`
	Username   string    `json:"username"`
	Comment    string    `json:"comment"`
	Likes      int       `json:"likes"`
	Dislikes   int       `json:"dislikes"`
	CreatedAt  time.Time `json:"createdAt"`
}

// IssueReport flags a problem with a specific question.
type IssueReport struct {
	ID          int64     `json:"id"`
	QuestionID  int64     `json:"questionId"`
	UserID      string    `json:"userId"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account created from an identity provider profile.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	GoogleID        string    `json:"googleId"`
	ProfileImageURL string    `json:"profileImageUrl"`
	Role            string    `json:"role"`
	CreatedAt       time.Time `json:"createdAt"`
}

// DisplayName is the name shown next to comments.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// GoogleProfile is the subset of the Google userinfo response used for sign-in.
type GoogleProfile struct {
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	GoogleID        string `json:"googleId"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// AdminQuestion is a question row in the admin listing.
type AdminQuestion struct {
	ID             int64   `json:"id"`
	SectionID      string  `json:"section_id"`
	Text           string  `json:"text"`
	OptionA        *string `json:"option_a,omitempty"`
	OptionB        *string `json:"option_b,omitempty"`
	OptionC        *string `json:"option_c,omitempty"`
	OptionD        *string `json:"option_d,omitempty"`
	OptionE        *string `json:"option_e,omitempty"`
	OptionF        *string `json:"option_f,omitempty"`
	CorrectAnswer  string  `json:"correct_answer"`
	Explanation    string  `json:"explanation"`
	HasExplanation bool    `json:"has_explanation"`
}

// QuestionQuery filters the admin question listing.
type QuestionQuery struct {
	PageRequest
	Search              string
	HasEmptyExplanation bool
}

// QuestionUpdate is an admin edit of a question. Options is keyed by label.
type QuestionUpdate struct {
	ID              int64             `json:"id"`
	QuestionText    string            `json:"question_text"`
	Options         map[string]string `json:"-"`
	CorrectAnswer   string            `json:"correct_answer"`
	ExplanationText string            `json:"explanation_text"`
}
