// Package acl maintains the per-template list of users authorized to view
// and start a template. Admins bypass the list entirely; step-level
// assignment is independent and handled by the processor.
package acl

import (
	"context"
	"sync"

	"github.com/procwise/procwise/auth"
)

// Service is the template access-control contract.
type Service interface {
	Grant(ctx context.Context, templateID, userID string) error
	Revoke(ctx context.Context, templateID, userID string) error
	Authorized(ctx context.Context, templateID string) ([]string, error)
	CanAccess(ctx context.Context, caller auth.Caller, templateID string) (bool, error)

	// Drop removes every grant of a template; called on template deletion.
	Drop(ctx context.Context, templateID string) error
}

// Memory is the in-memory ACL implementation.
type Memory struct {
	mu     sync.RWMutex
	grants map[string]map[string]bool
}

var _ Service = (*Memory)(nil)

// NewMemory creates an empty in-memory ACL.
func NewMemory() *Memory {
	return &Memory{grants: map[string]map[string]bool{}}
}

func (s *Memory) Grant(_ context.Context, templateID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, ok := s.grants[templateID]
	if !ok {
		users = map[string]bool{}
		s.grants[templateID] = users
	}
	users[userID] = true
	return nil
}

func (s *Memory) Revoke(_ context.Context, templateID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants[templateID], userID)
	return nil
}

func (s *Memory) Authorized(_ context.Context, templateID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := s.grants[templateID]
	out := make([]string, 0, len(users))
	for userID := range users {
		out = append(out, userID)
	}
	return out, nil
}

func (s *Memory) CanAccess(_ context.Context, caller auth.Caller, templateID string) (bool, error) {
	if caller.IsAdmin {
		return true, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grants[templateID][caller.UserID], nil
}

func (s *Memory) Drop(_ context.Context, templateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, templateID)
	return nil
}
