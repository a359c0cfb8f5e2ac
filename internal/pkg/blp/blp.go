// Package blp implements the Bell-LaPadula mandatory access-control decision:
// no read up, no write down.
package blp

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when a clearance or classification lies outside
// [Unclassified, TopSecret].
var ErrInvalidRange = errors.New("blp: level out of range")

// Level is both a subject clearance and an object classification.
type Level int8

const (
	Unclassified Level = iota
	Confidential
	Secret
	TopSecret
)

var levelNames = [...]string{"UNCLASSIFIED", "CONFIDENTIAL", "SECRET", "TOP SECRET"}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool {
	return l >= Unclassified && l <= TopSecret
}

// ParseLevel range-checks n before narrowing it, so 259 is rejected rather
// than wrapping to TopSecret.
func ParseLevel(n int) (Level, error) {
	if n < int(Unclassified) || n > int(TopSecret) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRange, n)
	}

	return Level(n), nil
}

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Level(%d)", int8(l))
	}

	return levelNames[l]
}

// Mode is the kind of access requested on an object.
type Mode uint8

const (
	Read Mode = iota + 1
	// Write covers both append and overwrite.
	Write
)

func (m Mode) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "unknown"
	}
}

// ParseMode maps "read", "write" and "append" to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "read":
		return Read, true
	case "write", "append":
		return Write, true
	default:
		return 0, false
	}
}

// CanRead reports whether a subject at clearance may read an object at classification.
func CanRead(clearance, classification Level) bool {
	return clearance >= classification
}

// CanWrite reports whether a subject at clearance may write an object at classification.
func CanWrite(clearance, classification Level) bool {
	return clearance <= classification
}

// Decide validates both levels and applies the rule for mode.
func Decide(clearance, classification Level, mode Mode) (bool, error) {
	if !clearance.Valid() || !classification.Valid() {
		return false, fmt.Errorf("%w: clearance=%d classification=%d", ErrInvalidRange, clearance, classification)
	}

	switch mode {
	case Read:
		return CanRead(clearance, classification), nil
	case Write:
		return CanWrite(clearance, classification), nil
	default:
		return false, fmt.Errorf("blp: unknown mode %d", mode)
	}
}
