package fakeuserrepo

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-blog-auth/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

var ErrNotFound = errors.New("not found")

// FakeUserRepo keeps accounts in memory. Emails are matched case-insensitively.
type FakeUserRepo struct {
	users    map[string]*users.Account
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.Account),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(account *users.Account) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if existing, ok := ur.users[account.ID]; ok {
		delete(ur.emailIds, emailKey(existing.Identity.Email))
	}
	stored := *account
	ur.users[account.ID] = &stored
	ur.emailIds[emailKey(account.Identity.Email)] = account.ID
	return nil
}

func (ur *FakeUserRepo) Delete(email string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	userID, ok := ur.emailIds[emailKey(email)]
	if !ok {
		return ErrNotFound
	}
	delete(ur.emailIds, emailKey(email))
	delete(ur.users, userID)
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userID, ok := ur.emailIds[emailKey(email)]
	if !ok {
		return nil, ErrNotFound
	}
	account := *ur.users[userID]
	return &account, nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	stored, ok := ur.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	account := *stored
	return &account, nil
}

func (ur *FakeUserRepo) SetVerified(email string, verified bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	userID, ok := ur.emailIds[emailKey(email)]
	if !ok {
		return ErrNotFound
	}
	ur.users[userID].Verified = verified
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
