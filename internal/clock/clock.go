// Package clock is the single source of wall-clock time for the engine so
// tests can freeze it.
package clock

import "time"

// NowFunc supplies the current time; swap it in tests.
var NowFunc = time.Now

// Now returns the engine's notion of the current time.
func Now() time.Time { return NowFunc() }
