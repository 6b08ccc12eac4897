package http

import (
	"context"
	"net/http"
	"time"

	"eatpl-quiz-service/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
)

// GoogleFlow is the server-side OAuth code flow.
type GoogleFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
}

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins    []string
	PublicURL      string
	AutoStart      bool
	SearchDebounce time.Duration
	// Google enables the redirect login flow when set.
	Google GoogleFlow
}

// Server exposes the quiz use cases over REST and websockets.
type Server struct {
	attempts  *app.AttemptService
	questions *app.QuestionService
	community *app.CommunityService
	auth      *app.AuthService
	opts      Options
	upgrader  websocket.Upgrader
}

func NewServer(attempts *app.AttemptService, questions *app.QuestionService, community *app.CommunityService, auth *app.AuthService, opts Options) *Server {
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"http://localhost:3000"}
	}
	return &Server{
		attempts:  attempts,
		questions: questions,
		community: community,
		auth:      auth,
		opts:      opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Post("/auth/google-login", s.handleGoogleLogin)
		r.Get("/auth/google/login", s.handleGoogleRedirect)
		r.Get("/auth/google/callback", s.handleGoogleCallback)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate(false))

			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/logout", s.handleLogout)

			r.Get("/sections", s.handleSections)
			r.With(requireAdmin).Get("/sections/{id}/questions", s.handleSectionQuestions)
			r.Post("/sections/{id}/attempts", s.handleCreateAttempt)

			r.Route("/attempts/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetAttempt)
				r.Post("/start", s.handleStartAttempt)
				r.Post("/answers", s.handleAnswer)
				r.Post("/next", s.handleMove(app.MoveNext))
				r.Post("/previous", s.handleMove(app.MovePrevious))
				r.Post("/goto", s.handleMove(app.MoveGoto))
				r.Post("/finish", s.handleFinish)
				r.Get("/result", s.handleResult)
				r.Get("/result.pdf", s.handleResultPDF)
			})

			r.Get("/comments/{questionId}", s.handleListComments)
			r.Post("/comments", s.handleAddComment)
			r.Post("/comments/{id}/like", s.handleReact(true))
			r.Post("/comments/{id}/dislike", s.handleReact(false))
			r.Post("/issue-reports", s.handleReportIssue)

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/issue-reports", s.handleIssueReports)
				r.Get("/issue-reports/export.xlsx", s.handleExportIssueReports)
				r.Get("/questions", s.handleAdminQuestions)
				r.Put("/questions/{id}", s.handleUpdateQuestion)
			})
		})
	})

	r.Route("/ws", func(r chi.Router) {
		r.Use(s.authenticate(true))
		r.Get("/attempts/{id}", s.serveAttemptWS)
		r.With(requireAdmin).Get("/admin/questions", s.serveBrowseWS)
	})
	return r
}
