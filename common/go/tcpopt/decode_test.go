package tcpopt

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// synOptions is a typical Linux SYN options field:
// MSS 1460, SACK permitted, timestamp, NOP, window scale 7.
var synOptions = []byte{
	0x02, 0x04, 0x05, 0xb4,
	0x04, 0x02,
	0x08, 0x0a, 0x12, 0x34, 0x56, 0x78, 0x87, 0x65, 0x43, 0x21,
	0x01,
	0x03, 0x03, 0x07,
}

func TestParse(t *testing.T) {
	options, err := Parse(synOptions)
	require.NoError(t, err)

	expected := []Option{
		{Kind: KindMSS, Length: 4, Data: []byte{0x05, 0xb4}},
		{Kind: KindSACKPermitted, Length: 2},
		{Kind: KindTimestamp, Length: 10, Data: []byte{0x12, 0x34, 0x56, 0x78, 0x87, 0x65, 0x43, 0x21}},
		{Kind: KindNop, Length: 1},
		{Kind: KindWindowScale, Length: 3, Data: []byte{0x07}},
	}
	if diff := cmp.Diff(expected, options); diff != "" {
		t.Fatalf("unexpected options (-want +got):\n%s", diff)
	}
}

func TestParse_Empty(t *testing.T) {
	options, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestParse_StopsAtEndOfList(t *testing.T) {
	options, err := Parse([]byte{0x01, 0x00, 0x02, 0x04, 0x05, 0xb4})
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, KindNop, options[0].Kind)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		decoded  []Kind
		offset   int
		length   uint8
		expected error
	}{
		{
			name:     "truncated header",
			data:     []byte{0x01, 0x02},
			decoded:  []Kind{KindNop},
			offset:   1,
			expected: ErrTruncatedOption,
		},
		{
			name:     "zero length",
			data:     []byte{0x02, 0x04, 0x05, 0xb4, 0x08, 0x00, 0x01},
			decoded:  []Kind{KindMSS},
			offset:   4,
			expected: ErrInvalidLength,
		},
		{
			name:     "length one",
			data:     []byte{0xfd, 0x01},
			decoded:  []Kind{},
			offset:   0,
			length:   1,
			expected: ErrInvalidLength,
		},
		{
			name:     "overrun",
			data:     []byte{0x01, 0x01, 0x08, 0x0a, 0x00, 0x00},
			decoded:  []Kind{KindNop, KindNop},
			offset:   2,
			length:   10,
			expected: ErrOptionOverrun,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			options, err := Parse(test.data)
			require.ErrorIs(t, err, test.expected)

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, test.offset, decodeErr.Offset)
			assert.Equal(t, test.length, decodeErr.Length)

			kinds := make([]Kind, 0, len(options))
			for _, opt := range options {
				kinds = append(kinds, opt.Kind)
			}
			assert.Equal(t, test.decoded, kinds)
		})
	}
}

func TestParse_UnknownKindPreserved(t *testing.T) {
	data := []byte{0xfd, 0x04, 0xbe, 0xef, 0x1e, 0x02}

	options, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, options, 2)

	assert.Equal(t, Kind(0xfd), options[0].Kind)
	assert.False(t, options[0].Kind.Known())
	assert.Equal(t, "Unknown(253)", options[0].Kind.String())
	assert.Equal(t, []byte{0xbe, 0xef}, options[0].Data)
	assert.Equal(t, Kind(0x1e), options[1].Kind)
	assert.Empty(t, options[1].Data)

	assert.Equal(t, data, Encode(options)[:len(data)])
}

func TestParse_DoesNotAliasInput(t *testing.T) {
	data := []byte{0x02, 0x04, 0x05, 0xb4}

	options, err := Parse(data)
	require.NoError(t, err)

	data[2] = 0xff
	assert.Equal(t, []byte{0x05, 0xb4}, options[0].Data)
}

func TestDecode_Total(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for range 10000 {
		data := make([]byte, rng.Intn(41))
		rng.Read(data)

		require.NotPanics(t, func() {
			options := Decode(data)
			require.NotNil(t, options)

			for _, opt := range options {
				if opt.Kind.IsPadding() {
					assert.Equal(t, uint8(1), opt.Length)
					continue
				}
				assert.GreaterOrEqual(t, opt.Length, uint8(2))
				assert.Equal(t, int(opt.Length), 2+len(opt.Data))
			}
		})
	}
}

func TestCodec_DecodeLogsMalformation(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	codec := NewCodec(WithLog(zap.New(core).Sugar()))

	options := codec.Decode([]byte{0x02, 0x04, 0x05, 0xb4, 0x03})
	require.Len(t, options, 1)
	assert.Equal(t, KindMSS, options[0].Kind)

	entries := logs.FilterMessage("stopped decoding TCP options").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, int64(1), entries[0].ContextMap()["decoded"])
}

func TestCodec_DecodeWellFormedIsQuiet(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	codec := NewCodec(WithLog(zap.New(core).Sugar()))

	codec.Decode(synOptions)
	assert.Zero(t, logs.Len())
}
