package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"eatpl-quiz-service/internal/domain"
	pgmigrations "eatpl-quiz-service/internal/infra/postgres/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

type sectionModel struct {
	bun.BaseModel `bun:"table:sections"`

	ID               string `bun:"id,pk"`
	Name             string `bun:"name"`
	TimeLimitSeconds int    `bun:"time_limit_seconds"`
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions"`

	ID           int64  `bun:"id,pk"`
	SectionID    string `bun:"section_id"`
	QuestionText string `bun:"question_text"`
	FeaturedImg  string `bun:"featured_img"`
}

type optionModel struct {
	bun.BaseModel `bun:"table:question_options"`

	QuestionID     int64  `bun:"question_id"`
	OptionOrder    int    `bun:"option_order"`
	OptionText     string `bun:"option_text"`
	IsCorrect      bool   `bun:"is_correct"`
	Explanation    string `bun:"explanation"`
	ExplanationImg string `bun:"explanation_img"`
	Tooltip        string `bun:"tooltip"`
}

// OpenBun opens a bun handle over the pgdriver connector.
func OpenBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Migrate applies all pending schema migrations.
func Migrate(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Printf("no new migrations")
		return nil
	}
	log.Printf("migrated to %s", group)
	return nil
}

// ImportBank upserts sections and questions from an import file. Options of
// imported questions are replaced. It returns the number of questions written.
func ImportBank(ctx context.Context, db *bun.DB, bank domain.Bank) (int, error) {
	imported := 0
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, s := range bank.Sections {
			sec := &sectionModel{ID: s.ID, Name: s.Name, TimeLimitSeconds: s.TimeLimitSeconds}
			if _, err := tx.NewInsert().Model(sec).
				On("CONFLICT (id) DO UPDATE").
				Set("name = EXCLUDED.name").
				Set("time_limit_seconds = EXCLUDED.time_limit_seconds").
				Exec(ctx); err != nil {
				return fmt.Errorf("import section %s: %w", s.ID, err)
			}

			questions, options := bankModels(s)
			for _, q := range questions {
				if _, err := tx.NewInsert().Model(q).
					On("CONFLICT (id) DO UPDATE").
					Set("section_id = EXCLUDED.section_id").
					Set("question_text = EXCLUDED.question_text").
					Set("featured_img = EXCLUDED.featured_img").
					Exec(ctx); err != nil {
					return fmt.Errorf("import question %d: %w", q.ID, err)
				}
				if _, err := tx.NewDelete().Model((*optionModel)(nil)).
					Where("question_id = ?", q.ID).
					Exec(ctx); err != nil {
					return fmt.Errorf("clear options of %d: %w", q.ID, err)
				}
				imported++
			}
			if len(options) > 0 {
				if _, err := tx.NewInsert().Model(&options).Exec(ctx); err != nil {
					return fmt.Errorf("import options of section %s: %w", s.ID, err)
				}
			}
		}
		// keep the serial ahead of explicitly imported ids
		_, err := tx.ExecContext(ctx,
			`SELECT setval(pg_get_serial_sequence('questions', 'id'), GREATEST((SELECT max(id) FROM questions), 1))`)
		return err
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

func bankModels(s domain.BankSection) ([]*questionModel, []optionModel) {
	var questions []*questionModel
	seen := make(map[int64]bool)
	options := make([]optionModel, 0, len(s.Rows))
	for _, row := range s.Rows {
		if row.OptionOrder < 0 || row.OptionOrder >= domain.MaxOptions {
			log.Printf("skip option of question %d: order %d out of range", row.ID, row.OptionOrder)
			continue
		}
		if !seen[row.ID] {
			seen[row.ID] = true
			questions = append(questions, &questionModel{
				ID:           row.ID,
				SectionID:    s.ID,
				QuestionText: row.QuestionText,
				FeaturedImg:  row.FeaturedImg,
			})
		}
		options = append(options, optionModel{
			QuestionID:     row.ID,
			OptionOrder:    row.OptionOrder,
			OptionText:     row.OptionText,
			IsCorrect:      row.IsCorrect,
			Explanation:    row.Explanation,
			ExplanationImg: row.ExplanationImg,
			Tooltip:        row.Tooltip,
		})
	}
	return questions, options
}
