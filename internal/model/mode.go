package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMode is returned for operation modes other than copy and move.
var ErrInvalidMode = errors.New("invalid operation mode")

// Mode decides what happens to a source file once it is placed.
type Mode int

const (
	// ModeCopy leaves the source in place.
	ModeCopy Mode = iota

	// ModeMove removes the source after it has been placed.
	ModeMove
)

// String returns "copy" or "move".
func (m Mode) String() string {
	if m == ModeMove {
		return "move"
	}
	return "copy"
}

// ParseMode converts "copy" or "move", in any case, to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "copy":
		return ModeCopy, nil
	case "move":
		return ModeMove, nil
	default:
		return ModeCopy, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}
