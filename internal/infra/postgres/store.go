package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eatpl-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const optionRowColumns = `q.id, q.section_id, q.question_text, o.option_order, o.option_text,
	o.is_correct, o.explanation, o.explanation_img, o.tooltip, q.featured_img`

// questionFilter matches $1 (search, may be empty) and $2 (only questions
// without any explanation).
const questionFilter = `($1 = '' OR q.question_text ILIKE $1 ESCAPE '\')
	AND (NOT $2 OR NOT EXISTS (
		SELECT 1 FROM question_options e WHERE e.question_id = q.id AND btrim(e.explanation) <> ''))`

// Store is the Postgres question bank.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) LoadSection(ctx context.Context, sectionID string) (domain.BankSection, error) {
	var content domain.BankSection
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, time_limit_seconds FROM sections WHERE id=$1`, sectionID,
	).Scan(&content.ID, &content.Name, &content.TimeLimitSeconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.BankSection{}, domain.ErrSectionNotFound
	}
	if err != nil {
		return domain.BankSection{}, fmt.Errorf("load section: %w", err)
	}

	content.Rows, err = s.optionRows(ctx, `SELECT `+optionRowColumns+`
		FROM questions q JOIN question_options o ON o.question_id = q.id
		WHERE q.section_id = $1
		ORDER BY q.id, o.option_order`, sectionID)
	if err != nil {
		return domain.BankSection{}, fmt.Errorf("load section rows: %w", err)
	}
	return content, nil
}

func (s *Store) ListSections(ctx context.Context) ([]domain.Section, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, time_limit_seconds FROM sections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	out := []domain.Section{}
	for rows.Next() {
		var sec domain.Section
		if err := rows.Scan(&sec.ID, &sec.Name, &sec.TimeLimitSeconds); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

func (s *Store) CountQuestions(ctx context.Context, q domain.QuestionQuery) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM questions q WHERE `+questionFilter,
		likePattern(q.Search), q.HasEmptyExplanation,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return total, nil
}

func (s *Store) QuestionPageRows(ctx context.Context, q domain.QuestionQuery) ([]domain.OptionRow, error) {
	req := q.PageRequest.Normalize()
	rows, err := s.optionRows(ctx, `WITH page AS (
			SELECT q.id FROM questions q WHERE `+questionFilter+`
			ORDER BY q.id LIMIT $3 OFFSET $4
		)
		SELECT `+optionRowColumns+`
		FROM page p
		JOIN questions q ON q.id = p.id
		JOIN question_options o ON o.question_id = q.id
		ORDER BY q.id, o.option_order`,
		likePattern(q.Search), q.HasEmptyExplanation, req.Limit, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("question page: %w", err)
	}
	return rows, nil
}

func (s *Store) QuestionRows(ctx context.Context, questionID int64) ([]domain.OptionRow, error) {
	rows, err := s.optionRows(ctx, `SELECT `+optionRowColumns+`
		FROM questions q JOIN question_options o ON o.question_id = q.id
		WHERE q.id = $1
		ORDER BY o.option_order`, questionID)
	if err != nil {
		return nil, fmt.Errorf("question rows: %w", err)
	}
	return rows, nil
}

// UpdateQuestion writes question text, option texts, the correct flag, and the
// explanation of the correct option in one transaction.
func (s *Store) UpdateQuestion(ctx context.Context, u domain.QuestionUpdate) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE questions SET question_text=$2 WHERE id=$1`, u.ID, u.QuestionText)
		if err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrQuestionNotFound
		}
		for label, text := range u.Options {
			_, err := tx.Exec(ctx, `INSERT INTO question_options (question_id, option_order, option_text)
				VALUES ($1, $2, $3)
				ON CONFLICT (question_id, option_order) DO UPDATE SET option_text = EXCLUDED.option_text`,
				u.ID, domain.LabelIndex(label), text)
			if err != nil {
				return fmt.Errorf("upsert option %s: %w", label, err)
			}
		}
		correct := domain.LabelIndex(u.CorrectAnswer)
		if _, err := tx.Exec(ctx,
			`UPDATE question_options SET is_correct = (option_order = $2) WHERE question_id=$1`,
			u.ID, correct); err != nil {
			return fmt.Errorf("update correct option: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE question_options SET explanation=$3 WHERE question_id=$1 AND option_order=$2`,
			u.ID, correct, u.ExplanationText); err != nil {
			return fmt.Errorf("update explanation: %w", err)
		}
		return nil
	})
}

func (s *Store) optionRows(ctx context.Context, query string, args ...interface{}) ([]domain.OptionRow, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OptionRow
	for rows.Next() {
		var r domain.OptionRow
		if err := rows.Scan(&r.ID, &r.SectionID, &r.QuestionText, &r.OptionOrder, &r.OptionText,
			&r.IsCorrect, &r.Explanation, &r.ExplanationImg, &r.Tooltip, &r.FeaturedImg); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListComments(ctx context.Context, questionID int64) ([]domain.Comment, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, question_id, user_id, username, comment, likes, dislikes, created_at
		FROM comments WHERE question_id=$1 ORDER BY created_at DESC, id DESC`, questionID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.UserID, &c.Username, &c.Comment, &c.Likes, &c.Dislikes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	err := s.pool.QueryRow(ctx, `INSERT INTO comments (question_id, user_id, username, comment, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		c.QuestionID, c.UserID, c.Username, c.Comment, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

func (s *Store) ReactToComment(ctx context.Context, commentID int64, like bool) (domain.Comment, error) {
	column := "dislikes"
	if like {
		column = "likes"
	}
	var c domain.Comment
	err := s.pool.QueryRow(ctx, `UPDATE comments SET `+column+` = `+column+` + 1 WHERE id=$1
		RETURNING id, question_id, user_id, username, comment, likes, dislikes, created_at`, commentID,
	).Scan(&c.ID, &c.QuestionID, &c.UserID, &c.Username, &c.Comment, &c.Likes, &c.Dislikes, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Comment{}, domain.ErrCommentNotFound
	}
	if err != nil {
		return domain.Comment{}, fmt.Errorf("react to comment: %w", err)
	}
	return c, nil
}

func (s *Store) CreateIssueReport(ctx context.Context, r domain.IssueReport) (domain.IssueReport, error) {
	err := s.pool.QueryRow(ctx, `INSERT INTO issue_reports (question_id, user_id, description, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		r.QuestionID, r.UserID, r.Description, r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		return domain.IssueReport{}, fmt.Errorf("create issue report: %w", err)
	}
	return r, nil
}

func (s *Store) CountIssueReports(ctx context.Context) (int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM issue_reports`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count issue reports: %w", err)
	}
	return total, nil
}

func (s *Store) ListIssueReports(ctx context.Context, req domain.PageRequest) ([]domain.IssueReport, error) {
	req = req.Normalize()
	rows, err := s.pool.Query(ctx, `SELECT id, question_id, user_id, description, created_at
		FROM issue_reports ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, req.Limit, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list issue reports: %w", err)
	}
	defer rows.Close()

	out := []domain.IssueReport{}
	for rows.Next() {
		var r domain.IssueReport
		if err := rows.Scan(&r.ID, &r.QuestionID, &r.UserID, &r.Description, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan issue report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const userColumns = `id, email, first_name, last_name, google_id, profile_image_url, role, created_at`

func (s *Store) UpsertUser(ctx context.Context, u domain.User) (domain.User, error) {
	var out domain.User
	err := s.pool.QueryRow(ctx, `INSERT INTO users (id, email, first_name, last_name, google_id, profile_image_url, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			google_id = EXCLUDED.google_id,
			profile_image_url = EXCLUDED.profile_image_url,
			role = CASE WHEN EXCLUDED.role = 'admin' THEN 'admin' ELSE users.role END,
			updated_at = now()
		RETURNING `+userColumns,
		uuid.NewString(), u.Email, u.FirstName, u.LastName, u.GoogleID, u.ProfileImageURL, u.Role, u.CreatedAt,
	).Scan(&out.ID, &out.Email, &out.FirstName, &out.LastName, &out.GoogleID, &out.ProfileImageURL, &out.Role, &out.CreatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return out, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	var out domain.User
	err := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id).
		Scan(&out.ID, &out.Email, &out.FirstName, &out.LastName, &out.GoogleID, &out.ProfileImageURL, &out.Role, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUnauthorized
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return out, nil
}

// likePattern turns a search string into an escaped ILIKE substring pattern.
func likePattern(search string) string {
	search = strings.TrimSpace(search)
	if search == "" {
		return ""
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(search) + "%"
}
