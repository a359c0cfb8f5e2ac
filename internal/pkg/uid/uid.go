// Package uid generates identifiers: time-ordered UUIDs for correlation ids and
// lease tokens, snowflake integers for audit events.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// NumberID generates 64-bit integer identifiers.
type NumberID interface {
	Generate() int64
}
