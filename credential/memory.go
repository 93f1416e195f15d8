package credential

import (
	"context"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the credential for the lifetime of the process.
type MemoryStore struct {
	token Token
	lock  sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (Token, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.token.Empty() {
		return Token{}, ErrNotFound
	}
	return m.token, nil
}

func (m *MemoryStore) Save(_ context.Context, token Token) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.token = token
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.token = Token{}
	return nil
}
