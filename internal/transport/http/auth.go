package http

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log"
	"net/http"
	"strings"
	"time"

	"eatpl-quiz-service/internal/domain"
)

const (
	tokenCookie = "eatpl_token"
	stateCookie = "eatpl_oauth_state"
)

type ctxKey struct{}

func userFrom(ctx context.Context) domain.User {
	u, _ := ctx.Value(ctxKey{}).(domain.User)
	return u
}

// authenticate resolves the session token into a user. Websocket routes may
// also pass the token as a query parameter since browsers cannot set headers there.
func (s *Server) authenticate(allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(tokenCookie); err == nil {
					token = c.Value
				}
			}
			if token == "" && allowQuery {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				writeError(w, domain.ErrUnauthorized)
				return
			}
			user, err := s.auth.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
		})
	}
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userFrom(r.Context()).Role != domain.RoleAdmin {
			writeError(w, domain.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

type loginRequest struct {
	domain.GoogleProfile
	AccessToken string `json:"accessToken"`
}

type loginResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, token, err := s.auth.Login(r.Context(), req.GoogleProfile, req.AccessToken)
	if err != nil {
		writeError(w, err)
		return
	}
	s.setTokenCookie(w, token)
	writeJSON(w, http.StatusOK, loginResponse{User: user, Token: token})
}

func (s *Server) handleGoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if s.opts.Google == nil {
		http.NotFound(w, r)
		return
	}
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		writeError(w, err)
		return
	}
	state := base64.URLEncoding.EncodeToString(stateBytes)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(10 * time.Minute),
	})
	http.Redirect(w, r, s.opts.Google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.opts.Google == nil {
		http.NotFound(w, r)
		return
	}
	c, err := r.Cookie(stateCookie)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || c.Value != state {
		log.Printf("oauth callback: state mismatch")
		writeError(w, domain.ErrUnauthorized)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	accessToken, err := s.opts.Google.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Printf("oauth callback: %v", err)
		writeError(w, domain.ErrUnauthorized)
		return
	}
	_, token, err := s.auth.Login(r.Context(), domain.GoogleProfile{}, accessToken)
	if err != nil {
		writeError(w, err)
		return
	}
	s.setTokenCookie(w, token)

	target := strings.TrimRight(s.opts.PublicURL, "/") + "/"
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: tokenCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   strings.HasPrefix(s.opts.PublicURL, "https://"),
		Expires:  time.Now().Add(s.auth.TTL()),
	})
}
