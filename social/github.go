package social

import (
	"fmt"

	"github.com/jrsteele09/go-blog-auth/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GithubFlow obtains a GitHub authorization code. The backend performs the
// code exchange itself, so no token is requested here.
type GithubFlow struct {
	oauth2 *oauth2.Config
}

func NewGithubFlow(cfg config.OAuthConfig, redirectURL string) (*GithubFlow, error) {
	if cfg.GetGithubClientID() == "" {
		return nil, fmt.Errorf("[social.NewGithubFlow] %w: oauth.github_client_id", ErrNotConfigured)
	}
	return NewGithubFlowFrom(&oauth2.Config{
		ClientID:     cfg.GetGithubClientID(),
		ClientSecret: cfg.GetGithubClientSecret(),
		Endpoint:     github.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{"read:user", "user:email"},
	}), nil
}

func NewGithubFlowFrom(cfg *oauth2.Config) *GithubFlow {
	return &GithubFlow{oauth2: cfg}
}

// AuthCodeURL is the authorization page the user opens in a browser.
func (f *GithubFlow) AuthCodeURL(a Attempt) string {
	return f.oauth2.AuthCodeURL(a.State, oauth2.SetAuthURLParam("allow_signup", "true"))
}
