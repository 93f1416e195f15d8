// Package session tracks who is signed in. The Store resolves the persisted
// credential once at startup, runs the auth operations through a Gateway and
// reports each transition together with the navigation it implies.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/jrsteele09/go-blog-auth/gateway"
	"github.com/jrsteele09/go-blog-auth/routes"
	"github.com/jrsteele09/go-blog-auth/users"
	"github.com/rs/zerolog"
)

var (
	// ErrNotReady is returned by operations issued before Initialize has resolved.
	ErrNotReady = errors.New("session is still initializing")
	// ErrClosed is returned by operations issued after Teardown.
	ErrClosed = errors.New("session is closed")
)

// Gateway is the backend the store drives.
type Gateway interface {
	IsAuthenticated() bool
	Login(ctx context.Context, creds gateway.LoginCredentials) error
	Register(ctx context.Context, data gateway.RegistrationData) error
	Logout(ctx context.Context) error
	LoginWithGoogle(ctx context.Context, accessToken string) error
	LoginWithGithub(ctx context.Context, code string) error
	GetCurrentUser(ctx context.Context) (*users.Identity, error)
	ClearCredential(ctx context.Context) error
}

var _ Gateway = (*gateway.Gateway)(nil)

type Store struct {
	gw  Gateway
	log zerolog.Logger

	once  sync.Once
	ready chan struct{}

	lock    sync.Mutex
	state   State
	closed  bool
	subs    map[int]func(State)
	nextSub int
}

// Option defines a function type to modify the Store instance.
type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.log = logger
	}
}

func New(gw Gateway, options ...Option) *Store {
	s := &Store{
		gw:    gw,
		log:   zerolog.Nop(),
		ready: make(chan struct{}),
		state: State{Status: StatusInitializing},
		subs:  make(map[int]func(State)),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Initialize resolves the stored credential into an identity. It runs once per
// Store; concurrent and later callers wait for, and receive, the resolved state.
// A credential the backend no longer accepts is cleared.
func (s *Store) Initialize(ctx context.Context) State {
	s.once.Do(func() {
		defer close(s.ready)
		s.resume(ctx)
	})
	return s.State()
}

func (s *Store) resume(ctx context.Context) {
	s.apply(Started{Op: OpInitialize})

	if !s.gw.IsAuthenticated() {
		s.apply(ResumeFailed{})
		return
	}

	identity, err := s.gw.GetCurrentUser(ctx)
	if err != nil {
		s.log.Info().Err(err).Msg("stored credential rejected, signing out")
		if clearErr := s.gw.ClearCredential(ctx); clearErr != nil {
			s.log.Warn().Err(clearErr).Msg("failed to clear stored credential")
		}
		s.apply(ResumeFailed{Err: err})
		return
	}
	s.apply(Resumed{Identity: identity})
}

// Ready is closed once Initialize has resolved.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Wait blocks until Initialize has resolved or ctx is done.
func (s *Store) Wait(ctx context.Context) (State, error) {
	select {
	case <-s.ready:
		return s.State(), nil
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
}

func (s *Store) Login(ctx context.Context, creds gateway.LoginCredentials) ([]Effect, error) {
	return s.signIn(ctx, OpLogin, func(ctx context.Context) error {
		return s.gw.Login(ctx, creds)
	})
}

func (s *Store) LoginWithGoogle(ctx context.Context, accessToken string) ([]Effect, error) {
	return s.signIn(ctx, OpLoginGoogle, func(ctx context.Context) error {
		return s.gw.LoginWithGoogle(ctx, accessToken)
	})
}

func (s *Store) LoginWithGithub(ctx context.Context, code string) ([]Effect, error) {
	return s.signIn(ctx, OpLoginGithub, func(ctx context.Context) error {
		return s.gw.LoginWithGithub(ctx, code)
	})
}

// signIn runs exchange and then loads the identity behind the new credential.
func (s *Store) signIn(ctx context.Context, op Op, exchange func(context.Context) error) ([]Effect, error) {
	if err := s.begin(op); err != nil {
		return nil, err
	}

	if err := exchange(ctx); err != nil {
		s.apply(Failed{Op: op, Err: err})
		return nil, err
	}
	identity, err := s.gw.GetCurrentUser(ctx)
	if err != nil {
		s.apply(Failed{Op: op, Err: err})
		return nil, err
	}

	s.log.Info().Str("op", op.String()).Str("email", identity.Email).Msg("signed in")
	return s.apply(Authenticated{Op: op, Identity: identity}), nil
}

// Register creates an account. The session stays signed out.
func (s *Store) Register(ctx context.Context, data gateway.RegistrationData) ([]Effect, error) {
	if err := s.begin(OpRegister); err != nil {
		return nil, err
	}
	if err := s.gw.Register(ctx, data); err != nil {
		s.apply(Failed{Op: OpRegister, Err: err})
		return nil, err
	}
	return s.apply(Registered{}), nil
}

// Logout always ends signed out. A backend failure is logged, not returned;
// the only errors are ErrNotReady and ErrClosed.
func (s *Store) Logout(ctx context.Context) ([]Effect, error) {
	if err := s.begin(OpLogout); err != nil {
		return nil, err
	}
	if err := s.gw.Logout(ctx); err != nil {
		s.log.Warn().Err(err).Msg("remote logout failed, local session cleared")
	}
	return s.apply(LoggedOut{}), nil
}

// UpdateIdentity replaces the signed in identity, e.g. after a profile edit.
// It is ignored when nobody is signed in.
func (s *Store) UpdateIdentity(identity *users.Identity) {
	s.apply(IdentityUpdated{Identity: identity})
}

// State returns a snapshot that shares nothing with the store.
func (s *Store) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return snapshot(s.state)
}

// Guard decides whether path may render for the current state.
func (s *Store) Guard(path string) routes.Decision {
	st := s.State()
	return routes.Guard(path, st.Status != StatusInitializing, st.Status == StatusAuthenticated)
}

// Subscribe registers fn to be called with the new state after every transition.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.lock.Lock()
		defer s.lock.Unlock()
		delete(s.subs, id)
	}
}

// Teardown drops every subscriber. Results of operations still in flight are
// discarded and later operations fail with ErrClosed.
func (s *Store) Teardown() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
	s.subs = make(map[int]func(State))
}

// begin records the start of op unless the store cannot take operations.
func (s *Store) begin(op Op) error {
	_, err := s.transition(Started{Op: op}, func(st State) error {
		if st.Status == StatusInitializing {
			return ErrNotReady
		}
		return nil
	})
	return err
}

func (s *Store) apply(ev Event) []Effect {
	effects, _ := s.transition(ev, nil)
	return effects
}

func (s *Store) transition(ev Event, check func(State) error) ([]Effect, error) {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return nil, ErrClosed
	}
	if check != nil {
		if err := check(s.state); err != nil {
			s.lock.Unlock()
			return nil, err
		}
	}

	next, effects := Reduce(s.state, ev)
	s.state = next
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.lock.Unlock()

	for _, fn := range subs {
		fn(snapshot(next))
	}
	return effects, nil
}

func snapshot(st State) State {
	if st.Identity != nil {
		st.Identity = cloneIdentity(st.Identity)
	}
	return st
}
