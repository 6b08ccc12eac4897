package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eatpl-quiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "eatpl-quiz-service"

// UserStore persists accounts.
type UserStore interface {
	// UpsertUser creates the user or refreshes the profile of the account with
	// the same email. The stored ID is kept; the role is kept unless the new
	// one is admin.
	UpsertUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
}

// ProfileVerifier resolves an identity provider access token into a profile.
type ProfileVerifier interface {
	Profile(ctx context.Context, accessToken string) (domain.GoogleProfile, error)
}

// Claims is the payload of an issued session token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// AuthService signs users in with Google profiles and issues session tokens.
type AuthService struct {
	users       UserStore
	verifier    ProfileVerifier
	secret      []byte
	ttl         time.Duration
	adminEmails map[string]struct{}
	now         func() time.Time
}

// NewAuthService builds the service. A nil verifier trusts posted profiles.
func NewAuthService(users UserStore, verifier ProfileVerifier, secret string, ttl time.Duration, adminEmails []string) *AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = struct{}{}
		}
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AuthService{
		users:       users,
		verifier:    verifier,
		secret:      []byte(secret),
		ttl:         ttl,
		adminEmails: admins,
		now:         time.Now,
	}
}

// TTL is the lifetime of issued tokens.
func (s *AuthService) TTL() time.Duration { return s.ttl }

// Login upserts the user behind a Google profile and returns a session token.
func (s *AuthService) Login(ctx context.Context, profile domain.GoogleProfile, accessToken string) (domain.User, string, error) {
	if s.verifier != nil {
		if accessToken == "" {
			return domain.User{}, "", fmt.Errorf("%w: access token is required", domain.ErrUnauthorized)
		}
		verified, err := s.verifier.Profile(ctx, accessToken)
		if err != nil {
			return domain.User{}, "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
		profile = verified
	}
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	if profile.Email == "" {
		return domain.User{}, "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	role := domain.RoleUser
	if _, ok := s.adminEmails[profile.Email]; ok {
		role = domain.RoleAdmin
	}
	user, err := s.users.UpsertUser(ctx, domain.User{
		Email:           profile.Email,
		FirstName:       strings.TrimSpace(profile.FirstName),
		LastName:        strings.TrimSpace(profile.LastName),
		GoogleID:        profile.GoogleID,
		ProfileImageURL: profile.ProfileImageURL,
		Role:            role,
		CreatedAt:       s.now().UTC(),
	})
	if err != nil {
		return domain.User{}, "", err
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// IssueToken signs an HS256 token for the user.
func (s *AuthService) IssueToken(user domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		Email: user.Email,
		Role:  user.Role,
		Name:  user.DisplayName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Authenticate validates a token and returns the user it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return domain.User{}, domain.ErrUnauthorized
	}
	user, err := s.users.GetUser(ctx, claims.Subject)
	if err != nil {
		return domain.User{}, domain.ErrUnauthorized
	}
	return user, nil
}
