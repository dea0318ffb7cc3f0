package auth

import (
	"context"
	"strings"
	"sync"

	"clinica/pkg/platform/sentinel"
)

// InMemoryUserStore keeps accounts in a map guarded by a RWMutex.
type InMemoryUserStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]User
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[int64]User)}
}

func (s *InMemoryUserStore) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return sentinel.ErrConflict
		}
	}
	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = *user
	return nil
}

func (s *InMemoryUserStore) GetByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.users {
		user := s.users[id]
		if strings.EqualFold(user.Username, username) {
			return &user, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryUserStore) GetByID(_ context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &user, nil
}
