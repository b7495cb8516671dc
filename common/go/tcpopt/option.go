package tcpopt

import (
	"encoding/hex"
	"fmt"
)

// Option is a single decoded TCP option.
type Option struct {
	// Kind is the option kind.
	Kind Kind
	// Length is the TLV length byte as it appeared on the wire, including
	// the kind and length bytes.
	//
	// End-of-List and No-Operation have no length on the wire, for them it
	// is always 1.
	Length uint8
	// Data is the option payload, excluding the kind and length bytes.
	Data []byte
}

// Clone returns a deep copy of the option.
func (m Option) Clone() Option {
	out := m
	if m.Data != nil {
		out.Data = append([]byte(nil), m.Data...)
	}

	return out
}

func (m Option) String() string {
	if m.Kind.IsPadding() {
		return m.Kind.String()
	}

	return fmt.Sprintf("%s(len=%d data=%s)", m.Kind, m.Length, hex.EncodeToString(m.Data))
}
