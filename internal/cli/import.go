package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"eatpl-quiz-service/internal/config"
	"eatpl-quiz-service/internal/domain"
	"eatpl-quiz-service/internal/infra/postgres"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewImportCmd loads a YAML question bank into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a YAML question bank into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "bank file (defaults to quiz.bankFile)")
	return cmd
}

func runImport(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if file == "" {
		file = cfg.Quiz.BankFile
	}
	if file == "" {
		return fmt.Errorf("no bank file given")
	}
	bank, err := loadBank(file)
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	db := postgres.OpenBun(cfg.Postgres.URL)
	defer db.Close()
	n, err := postgres.ImportBank(ctx, db, bank)
	if err != nil {
		return err
	}
	log.Printf("imported %d questions in %d sections from %s", n, len(bank.Sections), file)
	return nil
}

func loadBank(path string) (domain.Bank, error) {
	var bank domain.Bank
	data, err := os.ReadFile(path)
	if err != nil {
		return bank, err
	}
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return bank, fmt.Errorf("parse bank %s: %w", path, err)
	}
	return bank, nil
}
