package session_test

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-blog-auth/gateway"
	"github.com/jrsteele09/go-blog-auth/users"
)

// fakeGateway holds a credential flag and returns canned results.
type fakeGateway struct {
	mu sync.Mutex

	authenticated bool
	identity      *users.Identity

	loginErr    error
	registerErr error
	logoutErr   error
	socialErr   error
	userErr     error

	// userGate, when set, blocks GetCurrentUser until it is closed.
	userGate chan struct{}

	calls map[string]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{identity: ada, calls: make(map[string]int)}
}

func (f *fakeGateway) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeGateway) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeGateway) setAuthenticated(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authenticated = v
}

func (f *fakeGateway) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

func (f *fakeGateway) Login(_ context.Context, _ gateway.LoginCredentials) error {
	f.record("login")
	if f.loginErr != nil {
		return f.loginErr
	}
	f.setAuthenticated(true)
	return nil
}

func (f *fakeGateway) Register(_ context.Context, _ gateway.RegistrationData) error {
	f.record("register")
	return f.registerErr
}

func (f *fakeGateway) Logout(_ context.Context) error {
	f.record("logout")
	f.setAuthenticated(false)
	return f.logoutErr
}

func (f *fakeGateway) LoginWithGoogle(_ context.Context, _ string) error {
	f.record("login_google")
	if f.socialErr != nil {
		return f.socialErr
	}
	f.setAuthenticated(true)
	return nil
}

func (f *fakeGateway) LoginWithGithub(_ context.Context, _ string) error {
	f.record("login_github")
	if f.socialErr != nil {
		return f.socialErr
	}
	f.setAuthenticated(true)
	return nil
}

func (f *fakeGateway) GetCurrentUser(ctx context.Context) (*users.Identity, error) {
	f.record("user")
	if f.userGate != nil {
		select {
		case <-f.userGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.identity, nil
}

func (f *fakeGateway) ClearCredential(_ context.Context) error {
	f.record("clear")
	f.setAuthenticated(false)
	return nil
}
