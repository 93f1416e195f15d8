package gateway_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-blog-auth/credential"
	"github.com/jrsteele09/go-blog-auth/fakebackend"
	"github.com/jrsteele09/go-blog-auth/gateway"
	"github.com/jrsteele09/go-blog-auth/internal/utils"
	"github.com/jrsteele09/go-blog-auth/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "correct-horse-battery"
)

type fixture struct {
	backend *fakebackend.Server
	srv     *httptest.Server
	store   *credential.MemoryStore
	metrics *gateway.Metrics
	gw      *gateway.Gateway
}

func newFixture(t *testing.T, backendOpts []fakebackend.Option, opts ...gateway.Option) *fixture {
	t.Helper()
	backend := fakebackend.New(backendOpts...)
	require.NoError(t, backend.Seed(users.Identity{Email: testEmail, FirstName: "Ada", LastName: "Lovelace"}, testPassword))
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	return newFixtureFor(t, backend, srv, credential.NewMemoryStore(), opts...)
}

func newFixtureFor(t *testing.T, backend *fakebackend.Server, srv *httptest.Server, store *credential.MemoryStore, opts ...gateway.Option) *fixture {
	t.Helper()
	metrics := gateway.NewMetrics(prometheus.NewRegistry())
	opts = append([]gateway.Option{gateway.WithHTTPClient(srv.Client()), gateway.WithMetrics(metrics)}, opts...)
	gw, err := gateway.New(context.Background(), gateway.Config{BaseURL: srv.URL + "/api/", Timeout: 5 * time.Second}, store, opts...)
	require.NoError(t, err)
	return &fixture{backend: backend, srv: srv, store: store, metrics: metrics, gw: gw}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.gw.Login(context.Background(), gateway.LoginCredentials{Email: testEmail, Password: testPassword}))
}

func messageOf(t *testing.T, err error) string {
	t.Helper()
	var gwErr *gateway.Error
	require.True(t, errors.As(err, &gwErr), "expected a gateway error, got %v", err)
	return gwErr.Message
}

func TestNew_Validation(t *testing.T) {
	_, err := gateway.New(context.Background(), gateway.Config{}, credential.NewMemoryStore())
	require.Error(t, err)

	_, err = gateway.New(context.Background(), gateway.Config{BaseURL: "http://localhost"}, nil)
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.False(t, f.gw.IsAuthenticated())
	f.login(t)
	require.True(t, f.gw.IsAuthenticated())

	stored, err := f.store.Load(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, stored.Access)
	require.NotEmpty(t, stored.Refresh)

	identity, err := f.gw.GetCurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, testEmail, identity.Email)
	require.Equal(t, "Ada Lovelace", identity.FullName())

	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("login", gateway.OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("user", gateway.OutcomeOK)))
}

func TestLogin_Rejected(t *testing.T) {
	f := newFixture(t, nil)

	err := f.gw.Login(context.Background(), gateway.LoginCredentials{Email: testEmail, Password: "nope"})
	require.ErrorIs(t, err, gateway.ErrCredential)
	require.Equal(t, "Invalid credentials.", messageOf(t, err))
	require.False(t, f.gw.IsAuthenticated())
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("login", gateway.OutcomeCredential)))
}

func TestLogin_MissingFieldsMakesNoRequest(t *testing.T) {
	f := newFixture(t, nil)

	err := f.gw.Login(context.Background(), gateway.LoginCredentials{Email: testEmail})
	require.ErrorIs(t, err, gateway.ErrCredential)
	require.Equal(t, "Email and password are required.", messageOf(t, err))
	require.Equal(t, 0, testutil.CollectAndCount(f.metrics.Requests))
}

func TestLogin_Unreachable(t *testing.T) {
	f := newFixture(t, nil)
	f.srv.Close()

	err := f.gw.Login(context.Background(), gateway.LoginCredentials{Email: testEmail, Password: testPassword})
	require.ErrorIs(t, err, gateway.ErrNetwork)
	require.False(t, f.gw.IsAuthenticated())
}

func TestServerErrorIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	gw, err := gateway.New(context.Background(), gateway.Config{BaseURL: srv.URL}, credential.NewMemoryStore())
	require.NoError(t, err)

	err = gw.Login(context.Background(), gateway.LoginCredentials{Email: testEmail, Password: testPassword})
	require.ErrorIs(t, err, gateway.ErrNetwork)
	require.Equal(t, "Bad Gateway", messageOf(t, err))
}

func TestSendsBearerAndRequestID(t *testing.T) {
	var sawBearer, sawRequestID atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawBearer.Store(r.Header.Get("Authorization") == "Bearer stored-access")
		sawRequestID.Store(r.Header.Get("X-Request-ID") != "")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email": "ada@example.com", "role": "AUH"}`))
	}))
	t.Cleanup(srv.Close)

	store := credential.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), credential.Token{Access: "stored-access", Refresh: "r"}))
	gw, err := gateway.New(context.Background(), gateway.Config{BaseURL: srv.URL}, store)
	require.NoError(t, err)
	require.True(t, gw.IsAuthenticated(), "stored credential is loaded at construction")

	identity, err := gw.GetCurrentUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, users.RoleAuthor, identity.Role)
	require.True(t, sawBearer.Load())
	require.True(t, sawRequestID.Load())
}

func TestGetCurrentUser_BlankIdentity(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"empty object", "{}"},
		{"no email", `{"first_name": "Ada"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			store := credential.NewMemoryStore()
			require.NoError(t, store.Save(context.Background(), credential.Token{Access: "stored-access", Refresh: "r"}))
			metrics := gateway.NewMetrics(prometheus.NewRegistry())
			gw, err := gateway.New(context.Background(), gateway.Config{BaseURL: srv.URL}, store, gateway.WithMetrics(metrics))
			require.NoError(t, err)

			identity, err := gw.GetCurrentUser(context.Background())
			require.Nil(t, identity)
			require.ErrorIs(t, err, gateway.ErrNetwork)
			require.Equal(t, "the server sent an unreadable response", messageOf(t, err))
			require.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("user", gateway.OutcomeNetwork)))

			_, err = gw.UpdateProfile(context.Background(), users.ProfileUpdate{FirstName: utils.Ptr("Ada")})
			require.ErrorIs(t, err, gateway.ErrNetwork)
		})
	}
}

func TestGetCurrentUser_WithoutToken(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.gw.GetCurrentUser(context.Background())
	require.ErrorIs(t, err, gateway.ErrUnauthorized)
	require.Equal(t, 0, testutil.CollectAndCount(f.metrics.Requests))
}

func TestGetCurrentUser_ExpiredLocally(t *testing.T) {
	now := time.Now()
	f := newFixture(t, nil, gateway.WithNowTime(func() time.Time { return now }))
	f.login(t)

	now = now.Add(2 * time.Hour)
	_, err := f.gw.GetCurrentUser(context.Background())
	require.ErrorIs(t, err, gateway.ErrUnauthorized)
	require.Equal(t, "Token is invalid or expired", messageOf(t, err))
}

func TestGetCurrentUser_RejectedByServer(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	token, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.gw.Logout(context.Background()))

	// A second gateway still holding the now revoked token.
	store := credential.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), token))
	other := newFixtureFor(t, f.backend, f.srv, store)

	_, err = other.gw.GetCurrentUser(context.Background())
	require.ErrorIs(t, err, gateway.ErrUnauthorized)
	require.Equal(t, "Given token not valid for any token type", messageOf(t, err))
	require.Equal(t, 1.0, testutil.ToFloat64(other.metrics.Requests.WithLabelValues("user", gateway.OutcomeUnauthorized)))
}

func TestCorruptStoredCredentialStartsSignedOut(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	gw, err := gateway.New(context.Background(), gateway.Config{BaseURL: srv.URL}, failingStore{})
	require.NoError(t, err)
	require.False(t, gw.IsAuthenticated())
}

type failingStore struct{}

func (failingStore) Load(context.Context) (credential.Token, error) {
	return credential.Token{}, errors.New("disk on fire")
}
func (failingStore) Save(context.Context, credential.Token) error { return errors.New("disk on fire") }
func (failingStore) Clear(context.Context) error                  { return errors.New("disk on fire") }

func TestRegister(t *testing.T) {
	data := gateway.RegistrationData{
		Email:       "grace@example.com",
		FirstName:   "Grace",
		LastName:    "Hopper",
		PhoneNumber: "+15550100",
		Password1:   "cobol-forever-1959",
		Password2:   "cobol-forever-1959",
	}

	t.Run("mismatch is local", func(t *testing.T) {
		f := newFixture(t, nil)
		bad := data
		bad.Password2 = "something-else"
		err := f.gw.Register(context.Background(), bad)
		require.ErrorIs(t, err, gateway.ErrCredential)
		require.Equal(t, "Passwords do not match", messageOf(t, err))
		require.Equal(t, 0, testutil.CollectAndCount(f.metrics.Requests))
	})

	t.Run("does not sign in", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.gw.Register(context.Background(), data))
		require.False(t, f.gw.IsAuthenticated())
		_, err := f.store.Load(context.Background())
		require.ErrorIs(t, err, credential.ErrNotFound)

		require.NoError(t, f.gw.Login(context.Background(), gateway.LoginCredentials{Email: data.Email, Password: data.Password1}))
	})

	t.Run("verification required", func(t *testing.T) {
		f := newFixture(t, []fakebackend.Option{fakebackend.WithMandatoryVerification()})
		require.NoError(t, f.gw.Register(context.Background(), data))
		require.False(t, f.gw.IsAuthenticated())

		mail, ok := f.backend.LastMail(data.Email, fakebackend.MailVerification)
		require.True(t, ok)
		require.NoError(t, f.gw.VerifyEmail(context.Background(), mail.Key))
		require.NoError(t, f.gw.Login(context.Background(), gateway.LoginCredentials{Email: data.Email, Password: data.Password1}))
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newFixture(t, nil)
		dup := data
		dup.Email = testEmail
		err := f.gw.Register(context.Background(), dup)
		require.ErrorIs(t, err, gateway.ErrCredential)
		require.Equal(t, "email: A user is already registered with this e-mail address.", messageOf(t, err))
	})
}

func TestLogout(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)

	require.NoError(t, f.gw.Logout(context.Background()))
	require.False(t, f.gw.IsAuthenticated())
	_, err := f.store.Load(context.Background())
	require.ErrorIs(t, err, credential.ErrNotFound)

	require.NoError(t, f.gw.Logout(context.Background()), "logout without a credential is a no-op")
}

func TestLogout_ClearsEvenWhenServerFails(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	f.srv.Close()

	err := f.gw.Logout(context.Background())
	require.ErrorIs(t, err, gateway.ErrNetwork)
	require.False(t, f.gw.IsAuthenticated())
	_, err = f.store.Load(context.Background())
	require.ErrorIs(t, err, credential.ErrNotFound)
}

func TestSocialLogin(t *testing.T) {
	f := newFixture(t, []fakebackend.Option{
		fakebackend.WithSocialAccount(fakebackend.ProviderGoogle, "ya29.google", users.Identity{Email: "g@example.com"}),
		fakebackend.WithSocialAccount(fakebackend.ProviderGithub, "gh-code", users.Identity{Email: "gh@example.com"}),
	})
	ctx := context.Background()

	require.NoError(t, f.gw.LoginWithGoogle(ctx, "ya29.google"))
	identity, err := f.gw.GetCurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "g@example.com", identity.Email)

	require.NoError(t, f.gw.LoginWithGithub(ctx, "gh-code"))
	identity, err = f.gw.GetCurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "gh@example.com", identity.Email)

	err = f.gw.LoginWithGithub(ctx, "stale-code")
	require.ErrorIs(t, err, gateway.ErrCredential)
	require.Equal(t, "Incorrect value", messageOf(t, err))

	require.ErrorIs(t, f.gw.LoginWithGoogle(ctx, " "), gateway.ErrCredential)
}

func TestProfile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.gw.UpdateProfile(ctx, users.ProfileUpdate{FirstName: utils.Ptr("Augusta")})
	require.ErrorIs(t, err, gateway.ErrUnauthorized)

	f.login(t)
	_, err = f.gw.UpdateProfile(ctx, users.ProfileUpdate{})
	require.ErrorIs(t, err, gateway.ErrCredential)

	identity, err := f.gw.UpdateProfile(ctx, users.ProfileUpdate{
		FirstName: utils.Ptr("Augusta"),
		Profile:   &users.ProfileFields{Bio: utils.Ptr("Analyst")},
	})
	require.NoError(t, err)
	require.Equal(t, "Augusta", identity.FirstName)
	require.Equal(t, "Lovelace", identity.LastName)
	require.Equal(t, "Analyst", identity.Profile.Bio)

	_, err = f.gw.ReplaceProfile(ctx, users.ProfileUpdate{FirstName: utils.Ptr("Only")})
	require.ErrorIs(t, err, gateway.ErrCredential)

	require.NoError(t, f.gw.DeleteAccount(ctx))
	require.False(t, f.gw.IsAuthenticated())
	_, ok := f.backend.Account(testEmail)
	require.False(t, ok)
}

func TestPasswordFlows(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.gw.ChangePassword(ctx, gateway.PasswordChange{NewPassword1: "a-new-password", NewPassword2: "a-new-password"})
	require.ErrorIs(t, err, gateway.ErrUnauthorized)

	f.login(t)
	err = f.gw.ChangePassword(ctx, gateway.PasswordChange{NewPassword1: "a-new-password", NewPassword2: "different"})
	require.Equal(t, "Passwords do not match", messageOf(t, err))
	require.NoError(t, f.gw.ChangePassword(ctx, gateway.PasswordChange{NewPassword1: "a-new-password", NewPassword2: "a-new-password"}))

	require.ErrorIs(t, f.gw.RequestPasswordReset(ctx, ""), gateway.ErrCredential)
	require.NoError(t, f.gw.RequestPasswordReset(ctx, testEmail))
	mail, ok := f.backend.LastMail(testEmail, fakebackend.MailPasswordReset)
	require.True(t, ok)

	err = f.gw.ConfirmPasswordReset(ctx, gateway.PasswordResetConfirm{UID: mail.UID, Token: "forged", NewPassword1: "reset-pass-2026", NewPassword2: "reset-pass-2026"})
	require.ErrorIs(t, err, gateway.ErrCredential)
	require.Equal(t, "token: Invalid value", messageOf(t, err))

	require.NoError(t, f.gw.ConfirmPasswordReset(ctx, gateway.PasswordResetConfirm{UID: mail.UID, Token: mail.Token, NewPassword1: "reset-pass-2026", NewPassword2: "reset-pass-2026"}))
	require.NoError(t, f.gw.Login(ctx, gateway.LoginCredentials{Email: testEmail, Password: "reset-pass-2026"}))
}

func TestEmailVerification(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.ErrorIs(t, f.gw.VerifyEmail(ctx, ""), gateway.ErrCredential)
	err := f.gw.VerifyEmail(ctx, "unknown-key")
	require.ErrorIs(t, err, gateway.ErrCredential)
	require.Equal(t, "Not found.", messageOf(t, err))

	require.NoError(t, f.gw.ResendVerificationEmail(ctx, testEmail))
	require.ErrorIs(t, f.gw.ResendVerificationEmail(ctx, ""), gateway.ErrCredential)
}
