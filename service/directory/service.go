// Package directory defines the port to the external user/client directory.
// The engine never manages users or clients itself; it only resolves ids to
// display names and the admin flag.
package directory

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the directory has no record for the id; the
// report builder treats it as a soft failure and degrades to a placeholder.
var ErrNotFound = errors.New("directory: not found")

// User is a directory entry for a person.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

// Client is a directory entry for a company record processes run against.
type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Service resolves identities against the external directory.
type Service interface {
	User(ctx context.Context, id string) (*User, error)
	Client(ctx context.Context, id string) (*Client, error)
}
