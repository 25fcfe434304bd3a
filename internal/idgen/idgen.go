// Package idgen mints the opaque string identifiers used for templates,
// processes and step executions. Callers must not assume a format; the
// indirection exists so tests can produce predictable ids.
package idgen

import "github.com/google/uuid"

// NewFunc produces the next identifier; swap it in tests.
var NewFunc = func() string { return uuid.New().String() }

// New returns a freshly minted identifier.
func New() string { return NewFunc() }
