package session_test

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-blog-auth/gateway"
	apperrors "github.com/jrsteele09/go-blog-auth/internal/errors"
	"github.com/jrsteele09/go-blog-auth/session"
	"github.com/jrsteele09/go-blog-auth/users"
	"github.com/stretchr/testify/require"
)

// consistent reports whether st carries an identity exactly when it is signed in.
func consistent(st session.State) bool {
	return (st.Identity != nil) == (st.Status == session.StatusAuthenticated)
}

type storeOp struct {
	name string
	run  func(ctx context.Context, store *session.Store)
}

var storeOps = []storeOp{
	{"initialize", func(ctx context.Context, s *session.Store) { s.Initialize(ctx) }},
	{"login", func(ctx context.Context, s *session.Store) { _, _ = s.Login(ctx, creds) }},
	{"login_google", func(ctx context.Context, s *session.Store) { _, _ = s.LoginWithGoogle(ctx, "google-token") }},
	{"login_github", func(ctx context.Context, s *session.Store) { _, _ = s.LoginWithGithub(ctx, "gh-code") }},
	{"register", func(ctx context.Context, s *session.Store) {
		_, _ = s.Register(ctx, gateway.RegistrationData{Email: "grace@example.com"})
	}},
	{"logout", func(ctx context.Context, s *session.Store) { _, _ = s.Logout(ctx) }},
	{"update_identity", func(_ context.Context, s *session.Store) {
		s.UpdateIdentity(&users.Identity{Email: "ada@example.com", FirstName: "Augusta"})
	}},
	{"update_identity_nil", func(_ context.Context, s *session.Store) { s.UpdateIdentity(nil) }},
}

// failures toggles the fake's canned errors between steps.
var failures = []func(gw *fakeGateway){
	func(gw *fakeGateway) { gw.loginErr, gw.socialErr, gw.userErr, gw.registerErr, gw.logoutErr = nil, nil, nil, nil, nil },
	func(gw *fakeGateway) { gw.loginErr = apperrors.Credential("login", "Invalid credentials.") },
	func(gw *fakeGateway) { gw.socialErr = apperrors.Credential("login_google", "Incorrect value") },
	func(gw *fakeGateway) { gw.userErr = apperrors.Unauthorized("user", "Token is invalid or expired") },
	func(gw *fakeGateway) { gw.registerErr = apperrors.Credential("register", apperrors.MessagePasswordsDoNotMatch) },
	func(gw *fakeGateway) { gw.logoutErr = apperrors.Network("logout", fmt.Errorf("connection refused")) },
	func(gw *fakeGateway) { gw.setAuthenticated(true) },
}

func TestStore_IdentityMatchesStatusAcrossSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ctx := context.Background()

	for seq := 0; seq < 200; seq++ {
		gw := newFakeGateway()
		gw.setAuthenticated(rng.Intn(2) == 0)
		store := session.New(gw)

		var transitions []string
		store.Subscribe(func(st session.State) {
			if !consistent(st) {
				transitions = append(transitions, fmt.Sprintf("%s identity=%v", st.Status, st.Identity))
			}
		})

		var steps []string
		for step := 0; step < 20; step++ {
			if rng.Intn(3) == 0 {
				failures[rng.Intn(len(failures))](gw)
			}
			op := storeOps[rng.Intn(len(storeOps))]
			steps = append(steps, op.name)
			op.run(ctx, store)

			st := store.State()
			require.True(t, consistent(st), "sequence %d after %v: %s identity=%v", seq, steps, st.Status, st.Identity)
			require.False(t, st.Busy, "sequence %d after %v", seq, steps)
		}
		require.Empty(t, transitions, "sequence %d: %v", seq, steps)
	}
}

func TestStore_IdentityMatchesStatusUnderConcurrency(t *testing.T) {
	ctx := context.Background()

	for seq := 0; seq < 50; seq++ {
		gw := newFakeGateway()
		if seq%2 == 0 {
			gw.userErr = apperrors.Unauthorized("user", "Token is invalid or expired")
		}
		gw.setAuthenticated(seq%3 == 0)
		store := session.New(gw)

		var violations atomic.Int32
		store.Subscribe(func(st session.State) {
			if !consistent(st) {
				violations.Add(1)
			}
		})

		var wg sync.WaitGroup
		for worker := 0; worker < 4; worker++ {
			wg.Add(1)
			go func(seed int64) {
				defer wg.Done()
				rng := rand.New(rand.NewSource(seed))
				for step := 0; step < 20; step++ {
					storeOps[rng.Intn(len(storeOps))].run(ctx, store)
				}
			}(int64(seq*10 + worker))
		}
		wg.Wait()

		require.Zero(t, violations.Load(), "sequence %d", seq)
		require.True(t, consistent(store.State()), "sequence %d", seq)
	}
}
