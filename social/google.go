package social

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-blog-auth/internal/config"
	"golang.org/x/oauth2"
)

const GoogleIssuer = "https://accounts.google.com"

// GoogleIdentity is what a verified Google ID token says about the user.
type GoogleIdentity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Nonce   string `json:"nonce"`
}

// GoogleFlow obtains a Google access token through OpenID Connect with PKCE.
type GoogleFlow struct {
	oauth2   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogleFlow discovers Google's endpoints and keys.
func NewGoogleFlow(ctx context.Context, cfg config.OAuthConfig, redirectURL string) (*GoogleFlow, error) {
	if cfg.GetGoogleClientID() == "" {
		return nil, fmt.Errorf("[social.NewGoogleFlow] %w: oauth.google_client_id", ErrNotConfigured)
	}

	provider, err := oidc.NewProvider(ctx, GoogleIssuer)
	if err != nil {
		return nil, fmt.Errorf("[social.NewGoogleFlow] failed to create OIDC provider: %w", err)
	}

	return NewGoogleFlowFrom(&oauth2.Config{
		ClientID:     cfg.GetGoogleClientID(),
		ClientSecret: cfg.GetGoogleClientSecret(),
		Endpoint:     provider.Endpoint(),
		RedirectURL:  redirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}, provider.Verifier(&oidc.Config{
		ClientID: cfg.GetGoogleClientID(),
	})), nil
}

// NewGoogleFlowFrom builds a flow from an explicit client and ID token verifier.
func NewGoogleFlowFrom(cfg *oauth2.Config, verifier *oidc.IDTokenVerifier) *GoogleFlow {
	return &GoogleFlow{oauth2: cfg, verifier: verifier}
}

// AuthCodeURL is the consent page the user opens in a browser.
func (f *GoogleFlow) AuthCodeURL(a Attempt) string {
	return f.oauth2.AuthCodeURL(a.State,
		oauth2.S256ChallengeOption(a.Verifier),
		oidc.Nonce(a.Nonce),
	)
}

// Exchange trades the authorization code for tokens, verifies the ID token and
// returns the access token for the backend's Google login.
func (f *GoogleFlow) Exchange(ctx context.Context, code string, a Attempt) (string, *GoogleIdentity, error) {
	token, err := f.oauth2.Exchange(ctx, code, oauth2.VerifierOption(a.Verifier))
	if err != nil {
		return "", nil, fmt.Errorf("[GoogleFlow.Exchange] token exchange failed: %w", err)
	}

	// Extract ID token and verify it
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return "", nil, fmt.Errorf("[GoogleFlow.Exchange] %w", ErrNoIDToken)
	}
	idToken, err := f.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", nil, fmt.Errorf("[GoogleFlow.Exchange] ID token verification failed: %w", err)
	}

	var identity GoogleIdentity
	if err := idToken.Claims(&identity); err != nil {
		return "", nil, fmt.Errorf("[GoogleFlow.Exchange] failed to extract claims: %w", err)
	}
	if identity.Nonce != a.Nonce {
		return "", nil, fmt.Errorf("[GoogleFlow.Exchange] %w", ErrNonceMismatch)
	}

	return token.AccessToken, &identity, nil
}
