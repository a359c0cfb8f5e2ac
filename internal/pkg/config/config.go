// Package config exposes typed, read-only access to application settings.
package config

import (
	"io"
	"time"
)

// Config reads settings by dotted key (for example "lockout.max_failures").
//
// Missing keys yield the zero value of the requested type.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint32(key string) uint32
	GetFloat64(key string) float64

	// GetSecond reads an integer key as a number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer key as a number of minutes.
	GetMinute(key string) time.Duration

	// GetArray reads either a YAML list or a comma separated string.
	// Elements are trimmed and empty elements dropped.
	GetArray(key string) []string
}
