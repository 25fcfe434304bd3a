// Package memory provides an in-memory directory used by tests and
// single-node deployments without an external directory.
package memory

import (
	"context"
	"sync"

	"github.com/procwise/procwise/service/directory"
)

// Service implements directory.Service backed by two maps.
type Service struct {
	mu      sync.RWMutex
	users   map[string]*directory.User
	clients map[string]*directory.Client
}

var _ directory.Service = (*Service)(nil)

// New creates an empty in-memory directory.
func New() *Service {
	return &Service{
		users:   map[string]*directory.User{},
		clients: map[string]*directory.Client{},
	}
}

// AddUser registers or replaces a user entry.
func (s *Service) AddUser(user *directory.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// AddClient registers or replaces a client entry.
func (s *Service) AddClient(client *directory.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client.ID] = client
}

// RemoveUser drops a user entry; subsequent lookups fail with ErrNotFound.
func (s *Service) RemoveUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// RemoveClient drops a client entry.
func (s *Service) RemoveClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

func (s *Service) User(_ context.Context, id string) (*directory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	ret := *user
	return &ret, nil
}

func (s *Service) Client(_ context.Context, id string) (*directory.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	ret := *client
	return &ret, nil
}
