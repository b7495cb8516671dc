package rewrite

import (
	"fmt"
	"strings"
)

// Mode selects what happens to the timestamps of inspected segments.
type Mode string

const (
	// ModeObserve only analyzes segments.
	ModeObserve Mode = "observe"
	// ModeStrip removes Timestamp options.
	ModeStrip Mode = "strip"
	// ModeSpoof replaces timestamp values with synthesized ones.
	ModeSpoof Mode = "spoof"
)

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToLower(s))
	switch mode {
	case ModeObserve, ModeStrip, ModeSpoof:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown mode %q: must be one of %q, %q or %q", s, ModeObserve, ModeStrip, ModeSpoof)
	}
}

func (m Mode) String() string {
	return string(m)
}

// Set implements pflag.Value.
func (m *Mode) Set(s string) error {
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}

	*m = mode
	return nil
}

// Type implements pflag.Value.
func (m *Mode) Type() string {
	return "mode"
}

func (m *Mode) UnmarshalText(text []byte) error {
	return m.Set(string(text))
}

// Action is what the rewriter did to a segment.
type Action uint8

const (
	// ActionNone means the options are left as is.
	ActionNone Action = iota
	// ActionStripped means the Timestamp options were removed.
	ActionStripped
	// ActionSpoofed means the timestamp values were replaced.
	ActionSpoofed
)

func (m Action) String() string {
	switch m {
	case ActionNone:
		return "none"
	case ActionStripped:
		return "stripped"
	case ActionSpoofed:
		return "spoofed"
	default:
		return fmt.Sprintf("Action(%d)", uint8(m))
	}
}
