// Package otp covers both one-time codes used at login: the TOTP computed by
// an authenticator app from a shared secret, and the random numeric code
// pushed to the user over a messenger.
package otp
