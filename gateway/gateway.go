// Package gateway performs every credential exchange with the blog backend's
// auth endpoints and is the sole owner of the persisted credential.
package gateway

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-blog-auth/credential"
	"github.com/jrsteele09/go-blog-auth/internal/config"
	apperrors "github.com/jrsteele09/go-blog-auth/internal/errors"
	"github.com/jrsteele09/go-blog-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jrsteele09/go-blog-auth/gateway"

// Error taxonomy, re-exported for callers outside the module.
var (
	ErrNetwork      = apperrors.ErrNetwork
	ErrCredential   = apperrors.ErrCredential
	ErrUnauthorized = apperrors.ErrUnauthorized
)

type Error = apperrors.Error

// Config locates the backend.
type Config struct {
	BaseURL string        // API root, e.g. "http://localhost:8000/api"
	Timeout time.Duration // per request; 0 disables the gateway's own deadline
}

// ConfigFrom reads the backend section of the application config.
func ConfigFrom(cfg config.BackendConfig) Config {
	return Config{BaseURL: cfg.GetBaseURL(), Timeout: cfg.GetRequestTimeout()}
}

// Gateway provides the backend auth operations.
type Gateway struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	store      credential.Store
	log        zerolog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	nowTime    func() time.Time // injectable for testing

	lock  sync.RWMutex
	token credential.Token
}

// Option defines a function type to modify the Gateway instance.
type Option func(*Gateway)

func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.httpClient = client
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.log = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Gateway) {
		g.tracer = tp.Tracer(tracerName)
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(g *Gateway) {
		g.nowTime = nowFunc
	}
}

// New creates the gateway and reads the persisted credential exactly once.
// An unreadable credential is logged and treated as absent.
func New(ctx context.Context, cfg Config, store credential.Store, options ...Option) (*Gateway, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("[gateway.New] base URL is required")
	}
	if store == nil {
		return nil, errors.New("[gateway.New] credential store is required")
	}

	g := &Gateway{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		httpClient: http.DefaultClient,
		store:      store,
		log:        zerolog.Nop(),
		tracer:     otel.Tracer(tracerName),
		nowTime:    time.Now,
	}

	// Apply optional configuration
	for _, opt := range options {
		opt(g)
	}

	token, err := store.Load(ctx)
	switch {
	case err == nil:
		g.token = token
	case errors.Is(err, credential.ErrNotFound):
	default:
		g.log.Warn().Err(err).Msg("stored credential could not be read, continuing signed out")
	}

	return g, nil
}

// IsAuthenticated reports whether a credential is held. It makes no network call.
func (g *Gateway) IsAuthenticated() bool {
	return !g.currentToken().Empty()
}

func (g *Gateway) currentToken() credential.Token {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.token
}

func (g *Gateway) setToken(token credential.Token) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.token = token
}

// Login exchanges email and password for a token and persists it.
func (g *Gateway) Login(ctx context.Context, creds LoginCredentials) error {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return apperrors.Credential("login", "Email and password are required.")
	}

	var resp tokenResponse
	if err := g.do(ctx, call{op: "login", method: http.MethodPost, path: RouteLogin, body: creds, out: &resp}); err != nil {
		return err
	}
	return g.persist(ctx, "login", resp)
}

// Register creates an account. It never logs the user in and leaves the held
// credential untouched, even if the backend answers with tokens.
func (g *Gateway) Register(ctx context.Context, data RegistrationData) error {
	if data.Password1 != data.Password2 {
		return apperrors.Credential("register", apperrors.MessagePasswordsDoNotMatch)
	}
	return g.do(ctx, call{op: "register", method: http.MethodPost, path: RouteRegistration, body: data})
}

// Logout invalidates the session remotely and always clears the local credential.
// The remote error, if any, is returned after the credential is gone.
func (g *Gateway) Logout(ctx context.Context) error {
	token := g.currentToken()

	var remoteErr error
	if !token.Empty() {
		remoteErr = g.do(ctx, call{
			op:     "logout",
			method: http.MethodPost,
			path:   RouteLogout,
			body:   logoutRequest{Refresh: token.Refresh},
			auth:   true,
		})
	}

	if err := g.ClearCredential(ctx); err != nil {
		return err
	}
	return remoteErr
}

// LoginWithGoogle exchanges a Google access token for a backend token.
func (g *Gateway) LoginWithGoogle(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return apperrors.Credential("login_google", "Google access token is required.")
	}

	var resp tokenResponse
	if err := g.do(ctx, call{
		op:     "login_google",
		method: http.MethodPost,
		path:   RouteLoginGoogle,
		body:   googleLoginRequest{AccessToken: accessToken},
		out:    &resp,
	}); err != nil {
		return err
	}
	return g.persist(ctx, "login_google", resp)
}

// LoginWithGithub hands a GitHub authorization code to the backend, which performs the exchange.
func (g *Gateway) LoginWithGithub(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return apperrors.Credential("login_github", "GitHub authorization code is required.")
	}

	var resp tokenResponse
	if err := g.do(ctx, call{
		op:     "login_github",
		method: http.MethodPost,
		path:   RouteLoginGithub,
		body:   githubLoginRequest{Code: code},
		out:    &resp,
	}); err != nil {
		return err
	}
	return g.persist(ctx, "login_github", resp)
}

// GetCurrentUser fetches the identity behind the held credential. Without a
// credential, or with a JWT past its exp, it fails with ErrUnauthorized locally.
func (g *Gateway) GetCurrentUser(ctx context.Context) (*users.Identity, error) {
	if err := g.requireToken("user"); err != nil {
		return nil, err
	}

	var identity users.Identity
	if err := g.do(ctx, call{op: "user", method: http.MethodGet, path: RouteUser, auth: true, out: &identity, check: hasEmail(&identity)}); err != nil {
		return nil, err
	}
	return &identity, nil
}

// UpdateProfile applies a partial update (PATCH) and returns the stored identity.
func (g *Gateway) UpdateProfile(ctx context.Context, update users.ProfileUpdate) (*users.Identity, error) {
	return g.writeProfile(ctx, "update_profile", http.MethodPatch, update)
}

// ReplaceProfile sends a full update (PUT); the backend requires every identity field.
func (g *Gateway) ReplaceProfile(ctx context.Context, update users.ProfileUpdate) (*users.Identity, error) {
	return g.writeProfile(ctx, "replace_profile", http.MethodPut, update)
}

func (g *Gateway) writeProfile(ctx context.Context, op, method string, update users.ProfileUpdate) (*users.Identity, error) {
	if err := g.requireToken(op); err != nil {
		return nil, err
	}
	if update.Empty() {
		return nil, apperrors.Credential(op, "Nothing to update.")
	}

	var identity users.Identity
	if err := g.do(ctx, call{op: op, method: method, path: RouteUser, body: update, auth: true, out: &identity, check: hasEmail(&identity)}); err != nil {
		return nil, err
	}
	return &identity, nil
}

// DeleteAccount removes the account and clears the local credential.
func (g *Gateway) DeleteAccount(ctx context.Context) error {
	if err := g.requireToken("delete_account"); err != nil {
		return err
	}
	if err := g.do(ctx, call{op: "delete_account", method: http.MethodDelete, path: RouteUser, auth: true}); err != nil {
		return err
	}
	return g.ClearCredential(ctx)
}

// ChangePassword sets a new password for the signed in user.
func (g *Gateway) ChangePassword(ctx context.Context, change PasswordChange) error {
	if change.NewPassword1 != change.NewPassword2 {
		return apperrors.Credential("change_password", apperrors.MessagePasswordsDoNotMatch)
	}
	if err := g.requireToken("change_password"); err != nil {
		return err
	}
	return g.do(ctx, call{op: "change_password", method: http.MethodPost, path: RouteChangePassword, body: change, auth: true})
}

// RequestPasswordReset asks the backend to email a reset link.
func (g *Gateway) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.Credential("reset_password", "Email is required.")
	}
	return g.do(ctx, call{op: "reset_password", method: http.MethodPost, path: RouteResetPassword, body: emailRequest{Email: email}})
}

// ConfirmPasswordReset sets a new password using the uid/token pair from the reset link.
func (g *Gateway) ConfirmPasswordReset(ctx context.Context, confirm PasswordResetConfirm) error {
	if confirm.NewPassword1 != confirm.NewPassword2 {
		return apperrors.Credential("confirm_reset_password", apperrors.MessagePasswordsDoNotMatch)
	}
	return g.do(ctx, call{op: "confirm_reset_password", method: http.MethodPost, path: RouteConfirmResetPassword, body: confirm})
}

// VerifyEmail confirms an email address with the key from the verification link.
func (g *Gateway) VerifyEmail(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return apperrors.Credential("verify_email", "Verification key is required.")
	}
	return g.do(ctx, call{op: "verify_email", method: http.MethodPost, path: ConfirmEmailPath(key), body: verifyEmailRequest{Key: key}})
}

// ResendVerificationEmail asks the backend to send a new verification link.
func (g *Gateway) ResendVerificationEmail(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.Credential("resend_email", "Email is required.")
	}
	return g.do(ctx, call{op: "resend_email", method: http.MethodPost, path: RouteResendEmail, body: emailRequest{Email: email}})
}

// ClearCredential forgets the credential in memory first, then in the store, so a
// store failure still leaves this process signed out.
func (g *Gateway) ClearCredential(ctx context.Context) error {
	g.setToken(credential.Token{})
	if err := g.store.Clear(ctx); err != nil {
		return apperrors.Wrapf(err, "[gateway.ClearCredential] clear store")
	}
	return nil
}

// hasEmail rejects an identity the backend answered without an email, such as an empty body.
func hasEmail(identity *users.Identity) func() bool {
	return func() bool {
		return strings.TrimSpace(identity.Email) != ""
	}
}

func (g *Gateway) requireToken(op string) error {
	token := g.currentToken()
	if token.Empty() {
		return apperrors.Unauthorized(op, "Authentication credentials were not provided.")
	}
	if credential.Expired(token.Access, g.nowTime()) {
		return apperrors.Unauthorized(op, "Token is invalid or expired")
	}
	return nil
}

func (g *Gateway) persist(ctx context.Context, op string, resp tokenResponse) error {
	token := resp.token(g.nowTime())
	if token.Empty() {
		return &apperrors.Error{Kind: apperrors.KindNetwork, Op: op, Message: "the server response did not include a token"}
	}
	if err := g.store.Save(ctx, token); err != nil {
		return apperrors.Wrapf(err, "[gateway.%s] save credential", op)
	}
	g.setToken(token)
	return nil
}
