package tcpopt

import (
	"encoding/binary"
	"fmt"
)

// TimestampDataLen is the payload size of a well-formed Timestamp option.
const TimestampDataLen = 8

// Timestamp is the payload of the RFC 7323 Timestamp option.
//
//	+-------+-------+---------------------+---------------------+
//	|Kind=8 |  10   |   TS Value (TSval)  |TS Echo Reply (TSecr)|
//	+-------+-------+---------------------+---------------------+
//	    1       1              4                     4
type Timestamp struct {
	// Val is the sender's timestamp clock value (TSval).
	Val uint32
	// Ecr is the echoed peer timestamp (TSecr).
	Ecr uint32
}

// ExtractTimestamp returns the timestamp carried by the given option.
//
// It reports false if the option is not a Timestamp option or its payload is
// not exactly 8 bytes long.
func ExtractTimestamp(opt Option) (Timestamp, bool) {
	if opt.Kind != KindTimestamp || len(opt.Data) != TimestampDataLen {
		return Timestamp{}, false
	}

	return Timestamp{
		Val: binary.BigEndian.Uint32(opt.Data[0:4]),
		Ecr: binary.BigEndian.Uint32(opt.Data[4:8]),
	}, true
}

// Bytes returns the big-endian wire payload of the timestamp.
func (m Timestamp) Bytes() []byte {
	data := make([]byte, TimestampDataLen)
	binary.BigEndian.PutUint32(data[0:4], m.Val)
	binary.BigEndian.PutUint32(data[4:8], m.Ecr)
	return data
}

func (m Timestamp) String() string {
	return fmt.Sprintf("TSval=%d TSecr=%d", m.Val, m.Ecr)
}

// SynthesizeTimestamp generates a replacement timestamp.
//
// The value is base+increment plus an offset in [0, 1000) mixed from base
// with a linear congruential step, all in wraparound uint32 arithmetic. Ecr
// is always zero: the caller must fill in the echoed peer value.
//
// The result is deterministic and is not suitable as a security primitive.
func SynthesizeTimestamp(base, increment uint32) Timestamp {
	offset := (base*1103515245 + 12345) % 1000

	return Timestamp{
		Val: base + increment + offset,
		Ecr: 0,
	}
}
