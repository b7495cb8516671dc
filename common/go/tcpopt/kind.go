package tcpopt

import "fmt"

// Kind is the TCP option kind byte.
//
// Only a handful of kinds are named. Any other value is an unknown kind that
// still carries its original code, so the byte survives re-encoding as is.
type Kind uint8

const (
	// KindEndOfList terminates the option list. Also used as padding.
	KindEndOfList Kind = 0
	// KindNop is the single byte filler used for alignment.
	KindNop Kind = 1
	// KindMSS is the Maximum Segment Size option.
	KindMSS Kind = 2
	// KindWindowScale is the RFC 7323 Window Scale option.
	KindWindowScale Kind = 3
	// KindSACKPermitted is the RFC 2018 SACK-Permitted option.
	KindSACKPermitted Kind = 4
	// KindSACK is the RFC 2018 SACK option.
	KindSACK Kind = 5
	// KindTimestamp is the RFC 7323 Timestamp option (TSopt).
	KindTimestamp Kind = 8
)

var kindNames = map[Kind]string{
	KindEndOfList:     "EndOfList",
	KindNop:           "Nop",
	KindMSS:           "MSS",
	KindWindowScale:   "WindowScale",
	KindSACKPermitted: "SACKPermitted",
	KindSACK:          "SACK",
	KindTimestamp:     "Timestamp",
}

// Known reports whether the kind is one of the named kinds.
func (m Kind) Known() bool {
	_, ok := kindNames[m]
	return ok
}

// Byte returns the on-wire code of the kind.
func (m Kind) Byte() byte {
	return byte(m)
}

// IsPadding reports whether the kind is encoded as a single byte without
// length and data fields.
func (m Kind) IsPadding() bool {
	return m == KindEndOfList || m == KindNop
}

func (m Kind) String() string {
	if name, ok := kindNames[m]; ok {
		return name
	}

	return fmt.Sprintf("Unknown(%d)", uint8(m))
}
