package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eatpl-quiz-service/internal/app"
	"eatpl-quiz-service/internal/config"
	"eatpl-quiz-service/internal/domain"
	"eatpl-quiz-service/internal/infra/google"
	"eatpl-quiz-service/internal/infra/memory"
	"eatpl-quiz-service/internal/infra/postgres"
	infraredis "eatpl-quiz-service/internal/infra/redis"
	transport "eatpl-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// bankStore is everything the services need from the question bank.
type bankStore interface {
	memory.SectionLoader
	app.QuestionStore
	app.CommunityStore
	app.UserStore
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var store bankStore
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = postgres.NewStore(pool)
	} else {
		bank := sampleBank()
		if cfg.Quiz.BankFile != "" {
			if bank, err = loadBank(cfg.Quiz.BankFile); err != nil {
				return err
			}
		}
		log.Printf("no postgres configured, serving %d in-memory sections", len(bank.Sections))
		store = memory.NewBank(bank)
	}

	sectionTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var sections app.SectionRepository
	var attemptStore app.AttemptRepository
	if redisClient != nil {
		sections = infraredis.NewSectionRepository(redisClient, store, sectionTTL)
		attemptStore = infraredis.NewAttemptStore(redisClient, redisTTL)
	} else {
		sections = memory.NewSectionRepository(store, sectionTTL)
		attemptStore = memory.NewAttemptStore()
	}

	fold := app.FoldOptions{DisableFallback: !cfg.FallbackEnabled()}

	var verifier app.ProfileVerifier
	opts := transport.Options{
		CORSOrigins:    cfg.Server.CORSOrigins,
		PublicURL:      cfg.Server.PublicURL,
		AutoStart:      cfg.Quiz.AutoStart,
		SearchDebounce: config.TTLDuration(cfg.Quiz.SearchDebounce, app.DefaultSearchDebounce),
	}
	if cfg.GoogleEnabled() {
		g := google.NewClient(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.Auth.GoogleRedirectURL)
		verifier = g
		opts.Google = g
	} else {
		log.Printf("google client not configured, trusting posted login profiles")
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		log.Printf("auth.jwtSecret not set, using a random secret; tokens will not survive a restart")
	}

	server := transport.NewServer(
		app.NewAttemptService(attemptStore, sections, fold),
		app.NewQuestionService(store, sections, fold),
		app.NewCommunityService(store, store),
		app.NewAuthService(store, verifier, secret, config.TTLDuration(cfg.Auth.TokenTTL, 8*time.Hour), cfg.Auth.AdminEmails),
		opts,
	)

	httpServer := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      server.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// sampleBank provides a minimal section for local runs without a database or bank file.
func sampleBank() domain.Bank {
	return domain.Bank{Sections: []domain.BankSection{{
		Section: domain.Section{ID: "sample", Name: "Sample", TimeLimitSeconds: 300},
		Rows: []domain.OptionRow{
			{ID: 1, QuestionText: "What is 2 + 2?", OptionOrder: 0, OptionText: "3"},
			{ID: 1, QuestionText: "What is 2 + 2?", OptionOrder: 1, OptionText: "4", IsCorrect: true, Explanation: "Two plus two is four."},
			{ID: 1, QuestionText: "What is 2 + 2?", OptionOrder: 2, OptionText: "5"},
		},
	}}}
}
