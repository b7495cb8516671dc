package tcpopt

// wordSize is the alignment of the TCP options field.
const wordSize = 4

// Encode serializes options back into a TCP options field.
//
// Padding kinds are written as a single byte. Other kinds are written with
// their stored Length byte followed by Data verbatim: the length is never
// recomputed. The result is zero-padded to a multiple of 4 bytes.
func Encode(options []Option) []byte {
	size := 0
	for _, opt := range options {
		if opt.Kind.IsPadding() {
			size++
		} else {
			size += 2 + len(opt.Data)
		}
	}

	out := make([]byte, 0, alignWord(size))
	for _, opt := range options {
		out = append(out, opt.Kind.Byte())
		if opt.Kind.IsPadding() {
			continue
		}

		out = append(out, opt.Length)
		out = append(out, opt.Data...)
	}

	for len(out)%wordSize != 0 {
		out = append(out, byte(KindEndOfList))
	}

	return out
}

// StripTimestamp returns the options field with every Timestamp option
// removed.
func StripTimestamp(data []byte) []byte {
	return defaultCodec.StripTimestamp(data)
}

// WithoutKind returns the options whose kind differs from the given one.
func WithoutKind(options []Option, kind Kind) []Option {
	out := make([]Option, 0, len(options))
	for _, opt := range options {
		if opt.Kind != kind {
			out = append(out, opt)
		}
	}

	return out
}

func alignWord(n int) int {
	return (n + wordSize - 1) &^ (wordSize - 1)
}
