package tcpopt

import (
	"go.uber.org/zap"
)

// Analysis is the result of analyzing a TCP options field.
type Analysis struct {
	// HasTimestamp is true if at least one Timestamp option was decoded,
	// well-formed or not.
	HasTimestamp bool
	// Timestamp is the value of the last Timestamp option, nil if there was
	// none or the last one has a malformed payload.
	Timestamp *Timestamp
	// Options are the decoded options in wire order.
	Options []Option
	// Risk is the risk assessed for the last well-formed Timestamp option,
	// RiskLow if there was none.
	Risk Risk
}

// Analyze decodes the options field and assesses its timestamp.
func Analyze(data []byte) Analysis {
	return defaultCodec.Analyze(data)
}

// Analyze decodes the options field and assesses its timestamp.
//
// Several Timestamp options are invalid, but accepted: the last one wins.
func (m *Codec) Analyze(data []byte) Analysis {
	result, _ := m.Inspect(data)
	return result
}

// Inspect is Analyze that also returns the *DecodeError that stopped
// decoding, if any. The analysis then covers the options decoded before it.
func (m *Codec) Inspect(data []byte) (Analysis, error) {
	options, err := m.parse(data)
	return m.analyze(options), err
}

func (m *Codec) analyze(options []Option) Analysis {
	result := Analysis{
		Options: options,
		Risk:    RiskLow,
	}

	for _, opt := range result.Options {
		if opt.Kind != KindTimestamp {
			continue
		}

		result.HasTimestamp = true
		result.Timestamp = nil

		ts, ok := ExtractTimestamp(opt)
		if !ok {
			continue
		}

		result.Timestamp = &ts
		result.Risk = AssessRisk(ts.Val)

		m.log.Debugw("TCP timestamp detected",
			zap.Uint32("tsval", ts.Val),
			zap.Uint32("tsecr", ts.Ecr),
			zap.Stringer("risk", result.Risk),
		)
	}

	return result
}
