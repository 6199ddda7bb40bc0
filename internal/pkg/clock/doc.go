// Package clock provides a tiny time abstraction.
//
// Code that checks expiries depends on Clocker instead of calling time.Now so
// tests can pin the instant with Frozen.
package clock
