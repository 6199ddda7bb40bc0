// Package jwt issues and verifies the session tokens handed out after a
// successful two-factor login, and keeps a revocation list so logout takes
// effect before the token expires.
package jwt
