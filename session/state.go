package session

import (
	apperrors "github.com/jrsteele09/go-blog-auth/internal/errors"
	"github.com/jrsteele09/go-blog-auth/routes"
	"github.com/jrsteele09/go-blog-auth/users"
)

type Status int

const (
	StatusInitializing Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// State is a snapshot of the session. Identity is non-nil exactly when Status is StatusAuthenticated.
type State struct {
	Identity  *users.Identity
	Status    Status
	LastError string // message of the most recent failed operation
	Busy      bool   // an operation is in flight
}

// Op names a session operation.
type Op int

const (
	OpInitialize Op = iota
	OpLogin
	OpRegister
	OpLogout
	OpLoginGoogle
	OpLoginGithub
)

func (o Op) String() string {
	switch o {
	case OpInitialize:
		return "initialize"
	case OpLogin:
		return "login"
	case OpRegister:
		return "register"
	case OpLogout:
		return "logout"
	case OpLoginGoogle:
		return "login_google"
	case OpLoginGithub:
		return "login_github"
	}
	return "unknown"
}

// fallbackMessage is recorded when a failure carries no message of its own.
func (o Op) fallbackMessage() string {
	switch o {
	case OpRegister:
		return "Registration failed"
	case OpLoginGoogle:
		return "Google login failed"
	case OpLoginGithub:
		return "GitHub login failed"
	case OpLogout:
		return "Logout failed"
	}
	return "Login failed"
}

type EffectKind int

const (
	EffectNavigate EffectKind = iota + 1
)

// Effect is a command the view layer carries out after a transition.
type Effect struct {
	Kind EffectKind
	Path string
}

func Navigate(path string) Effect {
	return Effect{Kind: EffectNavigate, Path: path}
}

func (e Effect) String() string {
	if e.Kind == EffectNavigate {
		return "navigate " + e.Path
	}
	return "unknown"
}

// Event is an input to Reduce.
type Event interface {
	event()
}

type (
	// Started marks the beginning of an operation.
	Started struct{ Op Op }
	// Resumed completes initialisation with the identity behind a stored credential.
	Resumed struct{ Identity *users.Identity }
	// ResumeFailed completes initialisation signed out.
	ResumeFailed struct{ Err error }
	// Authenticated completes a login of any kind.
	Authenticated struct {
		Op       Op
		Identity *users.Identity
	}
	// Failed completes an operation that did not succeed.
	Failed struct {
		Op  Op
		Err error
	}
	// Registered completes a registration. It never signs the user in.
	Registered struct{}
	// LoggedOut completes a logout, whatever the backend answered.
	LoggedOut struct{}
	// IdentityUpdated replaces the identity of a signed in user, e.g. after a profile edit.
	IdentityUpdated struct{ Identity *users.Identity }
)

func (Started) event()         {}
func (Resumed) event()         {}
func (ResumeFailed) event()    {}
func (Authenticated) event()   {}
func (Failed) event()          {}
func (Registered) event()      {}
func (LoggedOut) event()       {}
func (IdentityUpdated) event() {}

// Reduce computes the state that follows ev and the effects to perform. It does no I/O.
func Reduce(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case Started:
		s.Busy = true
		if ev.Op != OpLogout {
			s.LastError = ""
		}
		return s, nil

	case Resumed:
		if s.Status != StatusInitializing {
			return s, nil
		}
		if ev.Identity == nil {
			return Reduce(s, ResumeFailed{})
		}
		return State{Identity: cloneIdentity(ev.Identity), Status: StatusAuthenticated}, nil

	case ResumeFailed:
		if s.Status != StatusInitializing {
			return s, nil
		}
		return State{Status: StatusUnauthenticated}, nil

	case Authenticated:
		if ev.Identity == nil {
			return Reduce(s, Failed{Op: ev.Op})
		}
		return State{Identity: cloneIdentity(ev.Identity), Status: StatusAuthenticated}, []Effect{Navigate(routes.Home)}

	case Failed:
		s.Busy = false
		s.LastError = apperrors.Message(ev.Err, ev.Op.fallbackMessage())
		if s.LastError == "" {
			s.LastError = ev.Op.fallbackMessage()
		}
		return s, nil

	case Registered:
		s.Busy = false
		return s, []Effect{Navigate(routes.Login)}

	case LoggedOut:
		return State{Status: StatusUnauthenticated, LastError: s.LastError}, []Effect{Navigate(routes.Login)}

	case IdentityUpdated:
		if s.Status != StatusAuthenticated || ev.Identity == nil {
			return s, nil
		}
		s.Identity = cloneIdentity(ev.Identity)
		return s, nil
	}
	return s, nil
}

// cloneIdentity copies id so a State never shares it with a caller.
func cloneIdentity(id *users.Identity) *users.Identity {
	c := *id
	if id.Profile != nil {
		p := *id.Profile
		c.Profile = &p
	}
	return &c
}
