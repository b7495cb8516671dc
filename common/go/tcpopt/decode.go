package tcpopt

// Parse decodes the TCP options field.
//
// The scan stops at the first End-of-List option or at the first malformed
// option. In the latter case the returned error is a *DecodeError and the
// options decoded before the malformation are returned along with it, so
// a short result must be read as "parsed as far as possible".
func Parse(data []byte) ([]Option, error) {
	options := []Option{}

	pos := 0
	for pos < len(data) {
		kind := Kind(data[pos])

		switch kind {
		case KindEndOfList:
			return options, nil
		case KindNop:
			options = append(options, Option{Kind: kind, Length: 1})
			pos++
			continue
		}

		if pos+1 >= len(data) {
			return options, &DecodeError{Offset: pos, Kind: kind, Err: ErrTruncatedOption}
		}

		length := data[pos+1]
		if length < 2 {
			return options, &DecodeError{Offset: pos, Kind: kind, Length: length, Err: ErrInvalidLength}
		}

		end := pos + int(length)
		if end > len(data) {
			return options, &DecodeError{Offset: pos, Kind: kind, Length: length, Err: ErrOptionOverrun}
		}

		var payload []byte
		if length > 2 {
			payload = append([]byte(nil), data[pos+2:end]...)
		}

		options = append(options, Option{
			Kind:   kind,
			Length: length,
			Data:   payload,
		})
		pos = end
	}

	return options, nil
}
