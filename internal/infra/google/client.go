package google

import (
	"context"
	"fmt"

	"eatpl-quiz-service/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var scopes = []string{
	oauth2api.UserinfoEmailScope,
	oauth2api.UserinfoProfileScope,
}

// Client runs the Google OAuth code flow and resolves access tokens into profiles.
type Client struct {
	config *oauth2.Config
	// endpoint overrides the Google API base URL (tests).
	endpoint string
}

func NewClient(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint:     endpoints.Google,
		},
	}
}

// AuthCodeURL is the consent page the browser is redirected to.
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for an access token.
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	if !token.Valid() {
		return "", fmt.Errorf("exchange code: invalid token")
	}
	return token.AccessToken, nil
}

// Profile fetches the userinfo behind an access token.
func (c *Client) Profile(ctx context.Context, accessToken string) (domain.GoogleProfile, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return domain.GoogleProfile{}, fmt.Errorf("oauth2 service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return domain.GoogleProfile{}, fmt.Errorf("userinfo: %w", err)
	}
	return domain.GoogleProfile{
		Email:           info.Email,
		FirstName:       info.GivenName,
		LastName:        info.FamilyName,
		GoogleID:        info.Id,
		ProfileImageURL: info.Picture,
	}, nil
}
