package tcpopt

import (
	"go.uber.org/zap"
)

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// CodecOption is a function that configures the codec.
type CodecOption func(*options)

// WithLog sets the logger malformed input is reported to.
func WithLog(log *zap.SugaredLogger) CodecOption {
	return func(o *options) {
		o.Log = log
	}
}

// Codec decodes, analyzes and strips TCP options fields, reporting
// malformed input to its logger instead of failing.
//
// Codec holds no mutable state and is safe for concurrent use.
type Codec struct {
	log *zap.SugaredLogger
}

var defaultCodec = NewCodec()

// NewCodec creates a new codec.
func NewCodec(options ...CodecOption) *Codec {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	return &Codec{
		log: opts.Log,
	}
}

// Decode decodes the options field, never failing.
//
// A malformation stops the scan and is logged as a warning; the options
// decoded so far are returned.
func (m *Codec) Decode(data []byte) []Option {
	options, _ := m.parse(data)
	return options
}

// parse is Parse with malformations reported to the codec logger.
func (m *Codec) parse(data []byte) ([]Option, error) {
	options, err := Parse(data)
	if err != nil {
		m.log.Warnw("stopped decoding TCP options",
			zap.Error(err),
			zap.Int("decoded", len(options)),
			zap.Int("size", len(data)),
		)
	}

	return options, err
}

// StripTimestamp returns the options field with every Timestamp option
// removed, zero-padded to a multiple of 4 bytes.
func (m *Codec) StripTimestamp(data []byte) []byte {
	return Encode(WithoutKind(m.Decode(data), KindTimestamp))
}

// Decode decodes the options field, never failing.
func Decode(data []byte) []Option {
	return defaultCodec.Decode(data)
}
