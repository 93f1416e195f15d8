package config

type OAuthConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGithubClientID() string
	GetGithubClientSecret() string
	GetRedirectAddr() string
}

// OAuth holds the social login client registrations used by the CLI.
type OAuth struct {
	GoogleClientID     string `koanf:"google_client_id"`
	GoogleClientSecret string `koanf:"google_client_secret"`
	GithubClientID     string `koanf:"github_client_id"`
	GithubClientSecret string `koanf:"github_client_secret"`
	RedirectAddr       string `koanf:"redirect_addr"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetGoogleClientID() string {
	return o.GoogleClientID
}

func (o OAuth) GetGoogleClientSecret() string {
	return o.GoogleClientSecret
}

func (o OAuth) GetGithubClientID() string {
	return o.GithubClientID
}

func (o OAuth) GetGithubClientSecret() string {
	return o.GithubClientSecret
}

// GetRedirectAddr is the loopback address the OAuth callback listener binds to.
func (o OAuth) GetRedirectAddr() string {
	if o.RedirectAddr == "" {
		return "127.0.0.1:8765"
	}
	return o.RedirectAddr
}
