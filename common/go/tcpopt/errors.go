package tcpopt

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedOption is reported when a non-padding option has no room
	// for its length byte.
	ErrTruncatedOption = errors.New("truncated option header")
	// ErrInvalidLength is reported when an option length byte is less than 2.
	ErrInvalidLength = errors.New("invalid option length")
	// ErrOptionOverrun is reported when an option extends beyond the end of
	// the options field.
	ErrOptionOverrun = errors.New("option overruns options field")
)

// DecodeError describes the malformation that stopped the decoding.
type DecodeError struct {
	// Offset is the position of the malformed option's kind byte.
	Offset int
	// Kind is the kind of the malformed option.
	Kind Kind
	// Length is the length byte of the malformed option, zero if it was not
	// present.
	Length uint8
	// Err is one of ErrTruncatedOption, ErrInvalidLength or ErrOptionOverrun.
	Err error
}

func (m *DecodeError) Error() string {
	return fmt.Sprintf("%v: kind %s at offset %d (length %d)", m.Err, m.Kind, m.Offset, m.Length)
}

func (m *DecodeError) Unwrap() error {
	return m.Err
}
