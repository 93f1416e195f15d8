// Package fakebackend is an in-memory stand-in for the blog's Django auth API.
// It speaks the same wire contract as the real backend and is used by tests
// and by cmd/fakebackend for local development.
package fakebackend

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-blog-auth/users"
	fakeuserrepo "github.com/jrsteele09/go-blog-auth/users/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Provider names a social login provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGithub Provider = "github"
)

const (
	MailVerification  = "verification"
	MailPasswordReset = "password_reset"
)

// Mail is a message the backend would have emailed.
type Mail struct {
	To    string
	Kind  string
	Key   string // email verification key
	UID   string // password reset uid
	Token string // password reset token
}

type socialKey struct {
	provider   Provider
	credential string
}

type resetTicket struct {
	email   string
	token   string
	expires time.Time
}

type Server struct {
	mux       *http.ServeMux
	routes    []string
	routeOut  io.Writer
	log       zerolog.Logger
	metrics   *metrics
	users     users.UserRepo
	tokens    *tokenIssuer
	nowTime   func() time.Time
	verifyReq bool

	lock          sync.Mutex
	social        map[socialKey]users.Identity
	verifications map[string]string      // key -> email
	resets        map[string]resetTicket // uid -> ticket
	outbox        []Mail
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.log = logger
	}
}

// WithNowTime sets the clock used for token issuing and validation (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func WithSigningKey(key string) Option {
	return func(s *Server) {
		if key != "" {
			s.tokens.key = []byte(key)
		}
	}
}

func WithTokenLifetimes(access, refresh time.Duration) Option {
	return func(s *Server) {
		s.tokens.accessTTL = access
		s.tokens.refreshTTL = refresh
	}
}

// WithMandatoryVerification rejects logins of unverified accounts.
func WithMandatoryVerification() Option {
	return func(s *Server) {
		s.verifyReq = true
	}
}

// WithSocialAccount accepts credential (a Google access token or a GitHub code)
// for provider and signs in, or creates, the account with identity.
func WithSocialAccount(provider Provider, credential string, identity users.Identity) Option {
	return func(s *Server) {
		s.social[socialKey{provider: provider, credential: credential}] = identity
	}
}

// WithMetrics counts served requests on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Server) {
		s.metrics = newMetrics(reg)
	}
}

// WithRouteListing prints the registered routes to w at startup.
func WithRouteListing(w io.Writer) Option {
	return func(s *Server) {
		s.routeOut = w
	}
}

func New(options ...Option) *Server {
	s := &Server{
		mux:           http.NewServeMux(),
		routeOut:      io.Discard,
		log:           zerolog.Nop(),
		users:         fakeuserrepo.NewFakeUserRepo(),
		nowTime:       time.Now,
		social:        make(map[socialKey]users.Identity),
		verifications: make(map[string]string),
		resets:        make(map[string]resetTicket),
	}
	s.tokens = newTokenIssuer([]byte("fakebackend-signing-key"), func() time.Time { return s.nowTime() })

	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Seed stores a verified account with password.
func (s *Server) Seed(identity users.Identity, password string) error {
	hash, err := users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("[Seed] hash password: %w", err)
	}
	if identity.Role == "" {
		identity.Role = users.RoleCustomer
	}
	if identity.Profile == nil {
		identity.Profile = &users.Profile{}
	}
	return s.users.Upsert(&users.Account{PasswordHash: hash, Verified: true, Identity: identity})
}

// Account returns the stored account for email.
func (s *Server) Account(email string) (*users.Account, bool) {
	account, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, false
	}
	return account, true
}

// Outbox returns every mail sent so far, oldest first.
func (s *Server) Outbox() []Mail {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Mail(nil), s.outbox...)
}

// LastMail returns the most recent mail of kind sent to email.
func (s *Server) LastMail(email, kind string) (Mail, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for i := len(s.outbox) - 1; i >= 0; i-- {
		m := s.outbox[i]
		if strings.EqualFold(m.To, email) && m.Kind == kind {
			return m, true
		}
	}
	return Mail{}, false
}

func (s *Server) sendMail(m Mail) {
	s.lock.Lock()
	s.outbox = append(s.outbox, m)
	s.lock.Unlock()
	s.log.Info().Str("to", m.To).Str("kind", m.Kind).Msg("mail sent")
}

func (s *Server) logRoutes() {
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	fmt.Fprintf(s.routeOut, "[%-19s] %s\n", displayMethod, path)
}
