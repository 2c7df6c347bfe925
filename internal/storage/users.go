package storage

import (
	"context"
	"sync"
	"time"

	"github.com/dharsanguruparan/LinguaDrop/internal/fault"
	"github.com/dharsanguruparan/LinguaDrop/internal/model"
)

// MemoryUsers is an in-memory account store.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

// NewMemoryUsers constructs an empty store.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]*model.User)}
}

// Create inserts an account.
func (m *MemoryUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.CreatedAt = time.Now().UTC()
	cp := *user
	m.users[user.Username] = &cp
	return nil
}

// GetByUsername returns the account for username.
func (m *MemoryUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[username]
	if !ok {
		return nil, fault.New(fault.NotFound, "user not found")
	}
	cp := *user
	return &cp, nil
}
