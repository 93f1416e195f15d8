// Package credential persists the bearer token that lets a client resume a
// session without re-entering credentials. The auth gateway is the only
// writer; everything else observes the identity the gateway resolves.
package credential

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Load when no credential is stored.
var ErrNotFound = errors.New("credential not found")

// Token is the persisted credential. Access is sent as the bearer token; Refresh is
// handed back to the backend on logout so it can be blacklisted.
type Token struct {
	Access  string    `json:"access"`
	Refresh string    `json:"refresh,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

func (t Token) Empty() bool {
	return t.Access == ""
}

type Store interface {
	// Load returns ErrNotFound when nothing is stored.
	Load(ctx context.Context) (Token, error)
	Save(ctx context.Context, token Token) error
	// Clear is idempotent.
	Clear(ctx context.Context) error
}
