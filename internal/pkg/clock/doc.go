// Package clock provides a tiny time abstraction.
//
// Production code depends on Clocker instead of calling time.Now() directly.
// Passcode expiry and token lifetimes are computed from it, and tests drive
// those boundaries with a Manual clock.
package clock
