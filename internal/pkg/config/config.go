package config

import (
	"io"
	"time"
)

// Config is the read side of the application configuration.
//
// Getters never fail: a missing or unconvertible key yields the zero value
// (or the registered default), so callers validate what they require.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt64(key string) int64
	GetUint(key string) uint
	GetFloat64(key string) float64

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer number of minutes.
	GetMinute(key string) time.Duration

	// GetBinary reads a base64 encoded value. Invalid base64 yields nil.
	GetBinary(key string) []byte

	// GetArray reads "<a>,<b>,..." and drops blank elements.
	GetArray(key string) []string

	// GetMap reads "<k1>:<v1>,<k2>:<v2>,...".
	GetMap(key string) map[string]string
}
